package handlers

import (
	"github.com/gin-gonic/gin"

	"oficina/internal/core/apperror"
	"oficina/internal/domain/inventory"
	"oficina/internal/domain/reconcile"
	"oficina/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles count session endpoints.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
	engine  *reconcile.Engine
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service, engine *reconcile.Engine) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, service: service, engine: engine}
}

// RegisterRoutes registers inventory session routes.
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Open)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/start", h.Start)
	rg.PUT("/:id/counts", h.RecordCount)
	rg.POST("/:id/finalize", h.Finalize)
	rg.POST("/:id/cancel", h.Cancel)
	rg.GET("/:id/divergences", h.Divergences)
}

// Open handles POST /inventories.
func (h *InventoryHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	session, err := h.service.Open(c.Request.Context(), req.Description)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, session.ID.String())
}

// Get handles GET /inventories/:id.
func (h *InventoryHandler) Get(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	session, err := h.service.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSession(session))
}

// Start handles POST /inventories/:id/start. Snapshots expected
// quantities for every active product.
func (h *InventoryHandler) Start(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	session, err := h.service.Start(c.Request.Context(), sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSession(session))
}

// RecordCount handles PUT /inventories/:id/counts.
func (h *InventoryHandler) RecordCount(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.RecordCountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := parseID(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	item, err := h.service.RecordCount(c.Request.Context(), sessionID, productID, req.Counted)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromItem(*item))
}

// Finalize handles POST /inventories/:id/finalize. Posts one adjustment
// per divergent item and closes the session.
func (h *InventoryHandler) Finalize(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	adjustments, err := h.engine.Finalize(c.Request.Context(), sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FinalizeResponse{
		SessionID:   sessionID.String(),
		Adjustments: dto.FromMovements(adjustments),
	})
}

// Cancel handles POST /inventories/:id/cancel.
func (h *InventoryHandler) Cancel(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), sessionID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "session cancelled")
}

// Divergences handles GET /inventories/:id/divergences.
func (h *InventoryHandler) Divergences(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	rows, err := h.service.DivergenceReport(c.Request.Context(), sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(dto.FromDivergenceRows(rows)))
}
