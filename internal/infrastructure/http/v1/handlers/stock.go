package handlers

import (
	"github.com/gin-gonic/gin"

	"oficina/internal/domain/stockview"
	"oficina/internal/infrastructure/http/v1/dto"
)

// StockHandler handles stock view endpoints.
type StockHandler struct {
	*BaseHandler
	view *stockview.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, view *stockview.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, view: view}
}

// BelowThreshold handles GET /stock/below-threshold.
func (h *StockHandler) BelowThreshold(c *gin.Context) {
	items, err := h.view.BelowThreshold(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(dto.FromProducts(items)))
}

// AtZero handles GET /stock/at-zero.
func (h *StockHandler) AtZero(c *gin.Context) {
	items, err := h.view.AtZero(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(dto.FromProducts(items)))
}

// Rebuild handles POST /stock/:id/rebuild. Recomputes the cached quantity
// for one product from the ledger.
func (h *StockHandler) Rebuild(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	qty, err := h.view.Rebuild(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.BalanceResponse{
		ProductID: productID.String(),
		Quantity:  qty,
	})
}
