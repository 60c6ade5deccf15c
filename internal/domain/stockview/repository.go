// Package stockview maintains the materialized current-quantity cache
// derived from the movement ledger. It is an explicitly-reconciled read path:
// the ledger stays the source of truth and a rebuild always wins over the
// cached value.
package stockview

import (
	"context"
	"time"

	"oficina/internal/core/id"
	"oficina/internal/core/types"
	"oficina/internal/domain/catalog/product"
)

// Repository defines persistence for the stock view cache.
type Repository interface {
	// ApplyDelta adds delta to the cached quantity (UPSERT on product).
	// The increment happens in the store, so concurrent appends for the
	// same product cannot lose updates.
	ApplyDelta(ctx context.Context, productID id.ID, delta types.Quantity, movementAt time.Time) error

	// GetQuantity returns the cached quantity (zero when no row yet).
	GetQuantity(ctx context.Context, productID id.ID) (types.Quantity, error)

	// Overwrite replaces the cached quantity. Used by Rebuild.
	Overwrite(ctx context.Context, productID id.ID, quantity types.Quantity) error

	// BelowThreshold returns active products with cached quantity below
	// their minimum threshold, CurrentQuantity populated.
	BelowThreshold(ctx context.Context) ([]*product.Product, error)

	// AtZero returns active products with cached quantity exactly zero.
	AtZero(ctx context.Context) ([]*product.Product, error)
}
