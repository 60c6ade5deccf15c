package dto

import (
	"time"

	"oficina/internal/core/types"
	"oficina/internal/domain/inventory"
)

// OpenSessionRequest for opening a count session.
type OpenSessionRequest struct {
	Description string `json:"description"`
}

// RecordCountRequest for recording one product count.
type RecordCountRequest struct {
	ProductID string         `json:"productId" binding:"required,uuid"`
	Counted   types.Quantity `json:"counted"`
}

// SessionResponse contains session header fields.
type SessionResponse struct {
	ID          string         `json:"id"`
	Description string         `json:"description,omitempty"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	StartedAt   *time.Time     `json:"startedAt,omitempty"`
	FinalizedAt *time.Time     `json:"finalizedAt,omitempty"`
	Items       []ItemResponse `json:"items,omitempty"`
}

// FromSession creates SessionResponse from the domain model.
func FromSession(s *inventory.Session) SessionResponse {
	resp := SessionResponse{
		ID:          s.ID.String(),
		Description: s.Description,
		Status:      string(s.Status),
		CreatedAt:   s.CreatedAt,
		StartedAt:   s.StartedAt,
		FinalizedAt: s.FinalizedAt,
	}
	for _, it := range s.Items {
		resp.Items = append(resp.Items, FromItem(it))
	}
	return resp
}

// ItemResponse contains one count-sheet line.
type ItemResponse struct {
	ProductID        string          `json:"productId"`
	ExpectedQuantity types.Quantity  `json:"expectedQuantity"`
	CountedQuantity  *types.Quantity `json:"countedQuantity,omitempty"`
	Divergence       types.Quantity  `json:"divergence"`
	CountedAt        *time.Time      `json:"countedAt,omitempty"`
}

// FromItem creates ItemResponse from the domain model.
func FromItem(it inventory.Item) ItemResponse {
	return ItemResponse{
		ProductID:        it.ProductID.String(),
		ExpectedQuantity: it.ExpectedQuantity,
		CountedQuantity:  it.CountedQuantity,
		Divergence:       it.Divergence,
		CountedAt:        it.CountedAt,
	}
}

// DivergenceResponse contains one divergence report row.
type DivergenceResponse struct {
	ProductID        string         `json:"productId"`
	ExpectedQuantity types.Quantity `json:"expectedQuantity"`
	CountedQuantity  types.Quantity `json:"countedQuantity"`
	Divergence       types.Quantity `json:"divergence"`
}

// FromDivergenceRows maps the divergence report.
func FromDivergenceRows(rows []inventory.DivergenceRow) []DivergenceResponse {
	out := make([]DivergenceResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, DivergenceResponse{
			ProductID:        r.ProductID.String(),
			ExpectedQuantity: r.ExpectedQuantity,
			CountedQuantity:  r.CountedQuantity,
			Divergence:       r.Divergence,
		})
	}
	return out
}

// FinalizeResponse returns the adjustments posted by finalize.
type FinalizeResponse struct {
	SessionID   string             `json:"sessionId"`
	Adjustments []MovementResponse `json:"adjustments"`
}
