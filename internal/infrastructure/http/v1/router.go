package v1

import (
	"github.com/gin-gonic/gin"

	"invoicehub/internal/core/security"
	"invoicehub/internal/domain/audit"
	"invoicehub/internal/domain/auth"
	"invoicehub/internal/domain/catalogs/organization"
	"invoicehub/internal/domain/catalogs/product"
	"invoicehub/internal/domain/invoice"
	"invoicehub/internal/domain/reports"
	"invoicehub/internal/infrastructure/http/v1/handlers"
	"invoicehub/internal/infrastructure/http/v1/middleware"
	"invoicehub/pkg/logger"
)

// RouterConfig holds everything the HTTP layer needs.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// DB backs the readiness and info probes
	DB handlers.DBProbe

	// Version is reported by /health/info
	Version string

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Idempotency stores responses of keyed POST /invoices requests; nil disables it
	Idempotency middleware.IdempotencyStore

	// AuditReader serves history endpoints
	AuditReader audit.Reader

	AuthService         *auth.Service
	OrganizationService *organization.Service
	ProductService      *product.Service
	InvoiceService      *invoice.Service
	ReportService       *reports.Service

	// Debug switches gin to debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters: Recovery must sit inside ErrorHandler
	// so the error it registers is rendered)
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()

	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, base, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerShopRoutes(protected, base, cfg)
		registerProductRoutes(protected, base, cfg)
		registerInvoiceRoutes(protected, base, cfg)
		registerReportRoutes(protected, base, cfg)
	}

	return router
}

// registerAuthRoutes registers login and user administration endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewAuthHandler(base, cfg.AuthService)

	rg.POST("/auth/login", h.Login)

	protected := rg.Group("")
	protected.Use(middleware.Auth(cfg.JWTValidator))
	protected.GET("/auth/me", h.Me)
	protected.GET("/auth/roles", middleware.RequireRole(security.RoleSuperAdmin), h.Roles)
	protected.POST("/users/shop-admin", middleware.RequireRole(security.RoleSuperAdmin), h.CreateShopAdmin)
}

func registerShopRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewShopHandler(base, cfg.OrganizationService)

	shops := rg.Group("/shops")
	shops.Use(middleware.RequireRole(security.RoleSuperAdmin))
	shops.GET("", h.List)
	shops.POST("", h.Create)
	shops.GET("/:id", h.Get)
}

func registerProductRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewProductHandler(base, cfg.ProductService, cfg.AuditReader)
	RegisterCRUDRoutes(rg.Group("/products"), h,
		middleware.RequireRole(security.RoleSuperAdmin, security.RoleShopAdmin))
}

func registerInvoiceRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewInvoiceHandler(base, cfg.InvoiceService, cfg.AuditReader)

	create := []gin.HandlerFunc{middleware.RequireRole(security.RoleSuperAdmin, security.RoleShopAdmin)}
	if cfg.Idempotency != nil {
		create = append(create, middleware.Idempotency(cfg.Idempotency))
	}

	invoices := rg.Group("/invoices")
	invoices.GET("", h.List)
	invoices.POST("", append(create, h.Create)...)
	invoices.GET("/:id", h.Get)
	invoices.GET("/:id/history", h.History)
}

// registerReportRoutes registers dashboard and report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewDashboardHandler(base, cfg.ReportService)
	inv := handlers.NewInvoiceHandler(base, cfg.InvoiceService, cfg.AuditReader)

	dashboard := rg.Group("/dashboard")
	{
		dashboard.GET("/summary", h.Summary)
		dashboard.GET("/charts/daily", h.Daily)
		dashboard.GET("/charts/monthly", h.Monthly)
		dashboard.GET("/invoices", inv.List)
	}

	rg.GET("/reports/sales-summary", h.SalesSummary)
}
