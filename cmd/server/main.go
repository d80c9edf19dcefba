// Package main is the entry point for the InvoiceHub API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invoicehub/internal/config"
	corenumerator "invoicehub/internal/core/numerator"
	"invoicehub/internal/domain/auth"
	"invoicehub/internal/domain/catalogs/organization"
	"invoicehub/internal/domain/catalogs/product"
	"invoicehub/internal/domain/invoice"
	"invoicehub/internal/domain/reports"
	v1 "invoicehub/internal/infrastructure/http/v1"
	"invoicehub/internal/infrastructure/http/v1/middleware"
	"invoicehub/internal/infrastructure/numerator"
	"invoicehub/internal/infrastructure/storage/postgres"
	"invoicehub/internal/infrastructure/storage/postgres/auth_repo"
	"invoicehub/internal/infrastructure/storage/postgres/catalog_repo"
	"invoicehub/internal/infrastructure/storage/postgres/document_repo"
	"invoicehub/internal/infrastructure/storage/postgres/report_repo"
	"invoicehub/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting invoicehub server", "version", cfg.Version, "env", cfg.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	if err := postgres.EnsureSchema(ctx, txManager); err != nil {
		log.Fatalw("failed to prepare schema", "error", err)
	}
	pool.LogStats(ctx)

	// --- Repositories ---
	orgRepo := catalog_repo.NewOrganizationRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	invoiceRepo := document_repo.NewInvoiceRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)
	roleRepo := auth_repo.NewRoleRepo(txManager)
	reportRepo := report_repo.NewReportRepo(txManager)

	auditRecorder, err := postgres.NewAuditRecorder(txManager, cfg.AuditCompressThreshold)
	if err != nil {
		log.Fatalw("failed to create audit recorder", "error", err)
	}

	// --- Services ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.AccessTokenTTL = cfg.JWTTTL
	jwtService := auth.NewJWTService(jwtConfig)

	authService := auth.NewService(userRepo, roleRepo, orgRepo, txManager, jwtService, auth.DefaultServiceConfig())
	if err := authService.EnsureBootstrap(ctx, auth.BootstrapConfig{
		Username: cfg.SuperAdminUsername,
		Email:    cfg.SuperAdminEmail,
		Password: cfg.SuperAdminPassword,
	}); err != nil {
		log.Fatalw("failed to bootstrap users", "error", err)
	}

	invoiceCfg := invoice.DefaultServiceConfig()
	invoiceCfg.MaxAttempts = cfg.InvoiceMaxAttempts
	defaultStatus, err := invoice.ParsePaymentStatus(cfg.InvoiceDefaultPaymentStatus)
	if err != nil {
		log.Fatalw("invalid INVOICE_DEFAULT_PAYMENT_STATUS", "value", cfg.InvoiceDefaultPaymentStatus)
	}
	invoiceCfg.DefaultPaymentStatus = defaultStatus

	invoiceService := invoice.NewService(
		invoiceRepo,
		productRepo,
		numerator.New(corenumerator.DefaultConfig()),
		txManager,
		invoiceCfg,
	)
	invoiceService.Hooks().OnAfterCreate(invoice.AuditHook(auditRecorder))
	invoiceService.Hooks().OnAfterCreate(invoice.OutboxHook(postgres.NewOutboxPublisher(txManager)))

	var idempotency middleware.IdempotencyStore
	if cfg.IdempotencyEnabled {
		idempotency = postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:              log,
		DB:                  pool,
		Version:             cfg.Version,
		JWTValidator:        jwtService,
		Idempotency:         idempotency,
		AuditReader:         auditRecorder,
		AuthService:         authService,
		OrganizationService: organization.NewService(orgRepo),
		ProductService:      product.NewService(productRepo, orgRepo, txManager, auditRecorder),
		InvoiceService:      invoiceService,
		ReportService:       reports.NewService(reportRepo, txManager),
		Debug:               cfg.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	_ = log.Sync()
	log.Info("server stopped")
}
