package handlers

import (
	"github.com/gin-gonic/gin"

	"invoicehub/internal/domain/catalogs/organization"
	"invoicehub/internal/infrastructure/http/v1/dto"
)

// ShopHandler handles HTTP requests for shops.
type ShopHandler struct {
	*BaseHandler
	service *organization.Service
}

// NewShopHandler creates a new shop handler.
func NewShopHandler(base *BaseHandler, service *organization.Service) *ShopHandler {
	return &ShopHandler{BaseHandler: base, service: service}
}

// Create handles POST /shops
func (h *ShopHandler) Create(c *gin.Context) {
	var req dto.CreateShopRequest
	if !h.BindJSON(c, &req) {
		return
	}

	shop, err := h.service.Create(c.Request.Context(), h.Caller(c), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, shop)
}

// Get handles GET /shops/:id
func (h *ShopHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	shop, err := h.service.GetByID(c.Request.Context(), h.Caller(c), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, shop)
}

// List handles GET /shops
func (h *ShopHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	page, err := h.service.List(c.Request.Context(), h.Caller(c), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, page)
}
