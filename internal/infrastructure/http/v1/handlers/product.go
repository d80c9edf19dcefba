package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"invoicehub/internal/domain/audit"
	"invoicehub/internal/domain/catalogs/product"
	"invoicehub/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	*BaseHandler
	service *product.Service
	history audit.Reader
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *product.Service, history audit.Reader) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service, history: history}
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Create(c.Request.Context(), h.Caller(c), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// Get handles GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), h.Caller(c), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	var q dto.ProductListQuery
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

// Update handles PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), h.Caller(c), id, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Delete handles DELETE /products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), h.Caller(c), id); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// History handles GET /products/:id/history
func (h *ProductHandler) History(c *gin.Context) {
	h.writeHistory(c, h.history, "product", func(ctx context.Context, id int64) error {
		_, err := h.service.GetByID(ctx, h.Caller(c), id)
		return err
	})
}
