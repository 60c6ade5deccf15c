package dto

import (
	"time"

	"oficina/internal/core/types"
	"oficina/internal/domain/ledger"
)

// AppendMovementRequest for posting a movement to the ledger.
type AppendMovementRequest struct {
	ProductID string         `json:"productId" binding:"required,uuid"`
	Type      string         `json:"type" binding:"required"`
	Quantity  types.Quantity `json:"quantity"`
	Note      string         `json:"note"`
}

// TransferRequest posts a paired transferencia (two legs netting to zero).
type TransferRequest struct {
	FromProductID string         `json:"fromProductId" binding:"required,uuid"`
	ToProductID   string         `json:"toProductId" binding:"required,uuid"`
	Quantity      types.Quantity `json:"quantity"`
	Note          string         `json:"note"`
}

// MovementResponse contains movement fields.
type MovementResponse struct {
	ID        string         `json:"id"`
	ProductID string         `json:"productId"`
	Type      string         `json:"type"`
	Quantity  types.Quantity `json:"quantity"`
	Period    time.Time      `json:"period"`
	SessionID string         `json:"sessionId,omitempty"`
	Note      string         `json:"note,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// FromMovement creates MovementResponse from the domain model.
func FromMovement(m ledger.StockMovement) MovementResponse {
	resp := MovementResponse{
		ID:        m.ID.String(),
		ProductID: m.ProductID.String(),
		Type:      string(m.Type),
		Quantity:  m.Quantity,
		Period:    m.Period,
		Note:      m.Note,
		CreatedAt: m.CreatedAt,
	}
	if m.SessionID != nil {
		resp.SessionID = m.SessionID.String()
	}
	return resp
}

// FromMovements maps a slice of movements.
func FromMovements(items []ledger.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(items))
	for _, m := range items {
		out = append(out, FromMovement(m))
	}
	return out
}

// BalanceResponse for the balance endpoints.
type BalanceResponse struct {
	ProductID string         `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
	AsOf      *time.Time     `json:"asOf,omitempty"`
}

// MovementHistoryQuery filters GET /products/:id/movements.
type MovementHistoryQuery struct {
	Type     string     `form:"type"`
	FromDate *time.Time `form:"fromDate" time_format:"2006-01-02"`
	ToDate   *time.Time `form:"toDate" time_format:"2006-01-02"`
	Limit    int        `form:"limit"`
	Offset   int        `form:"offset"`
}
