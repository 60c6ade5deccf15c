package handlers

import (
	"github.com/gin-gonic/gin"

	"oficina/internal/core/apperror"
	"oficina/internal/domain/ledger"
	"oficina/internal/infrastructure/http/v1/dto"
)

// MovementHandler handles ledger endpoints.
type MovementHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewMovementHandler creates a new movement handler.
func NewMovementHandler(base *BaseHandler, service *ledger.Service) *MovementHandler {
	return &MovementHandler{BaseHandler: base, service: service}
}

// Append handles POST /movements.
func (h *MovementHandler) Append(c *gin.Context) {
	var req dto.AppendMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := parseID(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	movementType := ledger.MovementType(req.Type)
	if !movementType.Valid() {
		h.Error(c, apperror.NewValidation("unknown movement type").WithDetail("type", req.Type))
		return
	}

	m, err := h.service.Append(c.Request.Context(), ledger.AppendRequest{
		ProductID: productID,
		Type:      movementType,
		Quantity:  req.Quantity,
		Note:      req.Note,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMovement(*m))
}

// Transfer handles POST /movements/transfer.
func (h *MovementHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	fromID, err := parseID(req.FromProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid source product id"))
		return
	}
	toID, err := parseID(req.ToProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid target product id"))
		return
	}

	out := ledger.AppendRequest{
		ProductID: fromID,
		Type:      ledger.TypeTransferencia,
		Quantity:  req.Quantity.Neg(),
		Note:      req.Note,
	}
	in := ledger.AppendRequest{
		ProductID: toID,
		Type:      ledger.TypeTransferencia,
		Quantity:  req.Quantity,
		Note:      req.Note,
	}

	movements, err := h.service.AppendTransferPair(c.Request.Context(), out, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(dto.FromMovements(movements)))
}

// History handles GET /products/:id/movements.
func (h *MovementHandler) History(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var query dto.MovementHistoryQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := ledger.MovementFilter{
		FromDate: query.FromDate,
		ToDate:   query.ToDate,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	if query.Type != "" {
		movementType := ledger.MovementType(query.Type)
		if !movementType.Valid() {
			h.Error(c, apperror.NewValidation("unknown movement type").WithDetail("type", query.Type))
			return
		}
		filter.Type = &movementType
	}

	movements, err := h.service.MovementsForProduct(c.Request.Context(), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(dto.FromMovements(movements)))
}

// Balance handles GET /products/:id/balance. An optional asOf query
// computes the balance at a past cutoff from the ledger.
func (h *MovementHandler) Balance(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	resp := dto.BalanceResponse{ProductID: productID.String()}

	if asOf, hasCutoff, err := parseTimeQuery(c, "asOf"); err != nil {
		h.Error(c, apperror.NewValidation("invalid asOf timestamp"))
		return
	} else if hasCutoff {
		qty, err := h.service.BalanceAsOf(c.Request.Context(), productID, asOf)
		if err != nil {
			h.Error(c, err)
			return
		}
		resp.Quantity = qty
		resp.AsOf = &asOf
		h.OK(c, resp)
		return
	}

	qty, err := h.service.Balance(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	resp.Quantity = qty

	h.OK(c, resp)
}
