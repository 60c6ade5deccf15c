package dto

import (
	"oficina/internal/core/types"
	"oficina/internal/domain/reports"
)

// ValuationQuery filters GET /reports/valuation.
type ValuationQuery struct {
	Scope string `form:"scope"`
}

// ValuationRowResponse contains one valuation group.
type ValuationRowResponse struct {
	Group    string         `json:"group,omitempty"`
	Products int            `json:"products"`
	Quantity types.Quantity `json:"quantity"`
	Amount   types.Money    `json:"amount"`
}

// ValuationResponse contains the valuation report.
type ValuationResponse struct {
	Scope string                 `json:"scope"`
	Rows  []ValuationRowResponse `json:"rows"`
	Total types.Money            `json:"total"`
}

// FromValuation creates ValuationResponse from the domain model.
func FromValuation(r *reports.ValuationReport) ValuationResponse {
	resp := ValuationResponse{
		Scope: string(r.Scope),
		Rows:  make([]ValuationRowResponse, 0, len(r.Rows)),
		Total: r.Total,
	}
	for _, row := range r.Rows {
		resp.Rows = append(resp.Rows, ValuationRowResponse{
			Group:    row.Group,
			Products: row.Products,
			Quantity: row.Quantity,
			Amount:   row.Amount,
		})
	}
	return resp
}
