package handlers

import (
	"github.com/gin-gonic/gin"

	"invoicehub/internal/domain/reports"
	"invoicehub/internal/infrastructure/http/v1/dto"
)

// DashboardHandler serves dashboard figures and sales reports.
type DashboardHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(base *BaseHandler, service *reports.Service) *DashboardHandler {
	return &DashboardHandler{BaseHandler: base, service: service}
}

// Summary handles GET /dashboard/summary
func (h *DashboardHandler) Summary(c *gin.Context) {
	var q dto.ShopScopeQuery
	if !h.BindQuery(c, &q) {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), h.Caller(c), q.ShopID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// Daily handles GET /dashboard/charts/daily
func (h *DashboardHandler) Daily(c *gin.Context) {
	var q dto.DailyChartQuery
	if !h.BindQuery(c, &q) {
		return
	}

	points, err := h.service.DailyRevenue(c.Request.Context(), h.Caller(c), q.ShopID, q.Days)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, points)
}

// Monthly handles GET /dashboard/charts/monthly
func (h *DashboardHandler) Monthly(c *gin.Context) {
	var q dto.MonthlyChartQuery
	if !h.BindQuery(c, &q) {
		return
	}

	points, err := h.service.MonthlyRevenue(c.Request.Context(), h.Caller(c), q.ShopID, q.Months)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, points)
}

// SalesSummary handles GET /reports/sales-summary
func (h *DashboardHandler) SalesSummary(c *gin.Context) {
	var q dto.ShopScopeQuery
	if !h.BindQuery(c, &q) {
		return
	}

	out, err := h.service.SalesSummary(c.Request.Context(), h.Caller(c), q.ShopID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, out)
}
