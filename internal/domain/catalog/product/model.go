// Package product provides the product catalog as seen by the stock core.
// Products are owned by the catalog service of the ERP; this core reads them
// to validate movements and to scope stock queries, and never mutates
// anything except the derived current quantity.
package product

import (
	"context"
	"time"

	"oficina/internal/core/apperror"
	"oficina/internal/core/id"
	"oficina/internal/core/types"
)

// Product is the catalog record referenced by ledger movements.
type Product struct {
	ID   id.ID  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`

	// SKU is the item article within the shop.
	SKU string `db:"sku" json:"sku"`

	// Category and Supplier scope valuation reports.
	Category string `db:"category" json:"category"`
	Supplier string `db:"supplier" json:"supplier"`

	// UnitCost is supplied by the catalog; the stock core only multiplies.
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	// MinimumThreshold drives the low-stock query.
	MinimumThreshold types.Quantity `db:"minimum_threshold" json:"minimumThreshold"`

	// CurrentQuantity is derived from the ledger. Never set by callers.
	CurrentQuantity types.Quantity `db:"current_quantity" json:"currentQuantity"`

	// Active gates appends: movements against disabled products are rejected.
	Active bool `db:"active" json:"active"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a new active Product.
func New(name, sku string) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:        id.New(),
		Name:      name,
		SKU:       sku,
		UnitCost:  types.ZeroMoney(),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks catalog invariants.
func (p *Product) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if p.MinimumThreshold.IsNegative() {
		return apperror.NewValidation("minimum threshold cannot be negative").
			WithDetail("field", "minimumThreshold")
	}
	return nil
}
