// Package reports provides valuation reports over the stock view.
// Report rows are explicit typed records so shapes are checked at compile
// time rather than discovered at call sites.
package reports

import (
	"oficina/internal/core/types"
)

// ValuationScope selects the grouping of a valuation report.
type ValuationScope string

const (
	ScopeTotal      ValuationScope = "total"
	ScopeByCategory ValuationScope = "category"
	ScopeBySupplier ValuationScope = "supplier"
)

// ValuationRow is one group of the valuation report.
// Amount = sum(currentQuantity * unitCost) over the group; unit cost comes
// from the product catalog, never computed here.
type ValuationRow struct {
	// Group is empty for the total scope, otherwise the category or
	// supplier name.
	Group string `db:"grp" json:"group,omitempty"`

	Products int            `db:"products" json:"products"`
	Quantity types.Quantity `db:"quantity" json:"quantity"`
	Amount   types.Money    `db:"amount" json:"amount"`
}

// ValuationReport is the full valuation result.
type ValuationReport struct {
	Scope ValuationScope `json:"scope"`
	Rows  []ValuationRow `json:"rows"`
	Total types.Money    `json:"total"`
}
