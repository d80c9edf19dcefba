// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// CRUDRouteHandler is implemented by handlers of editable resources.
type CRUDRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// HistoryRouteHandler is an optional interface for resources with an audit trail.
type HistoryRouteHandler interface {
	History(c *gin.Context)
}

// RegisterCRUDRoutes registers the standard routes of a resource. Writes go through the
// extra handlers (role checks, idempotency) before reaching the handler.
//
// Usage:
//
//	handler := handlers.NewProductHandler(base, cfg.ProductService, cfg.AuditReader)
//	RegisterCRUDRoutes(api.Group("/products"), handler)
func RegisterCRUDRoutes(group *gin.RouterGroup, handler CRUDRouteHandler, writes ...gin.HandlerFunc) {
	group.GET("", handler.List)
	group.GET("/:id", handler.Get)
	group.POST("", append(writes, handler.Create)...)
	group.PUT("/:id", append(writes, handler.Update)...)
	group.DELETE("/:id", append(writes, handler.Delete)...)

	if h, ok := handler.(HistoryRouteHandler); ok {
		group.GET("/:id/history", h.History)
	}
}
