package handlers

import (
	"github.com/gin-gonic/gin"

	"oficina/internal/domain/reports"
	"oficina/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, service: service}
}

// Valuation handles GET /reports/valuation?scope=total|category|supplier.
func (h *ReportsHandler) Valuation(c *gin.Context) {
	var query dto.ValuationQuery
	if !h.BindQuery(c, &query) {
		return
	}

	scope := reports.ValuationScope(query.Scope)
	if query.Scope == "" {
		scope = reports.ScopeTotal
	}

	report, err := h.service.GetValuation(c.Request.Context(), scope)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromValuation(report))
}
