package product

import (
	"context"

	"oficina/internal/core/id"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error

	// GetByID retrieves a product by id. Returns apperror.NewNotFound when absent.
	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	// GetBySKU retrieves a product by article.
	GetBySKU(ctx context.Context, sku string) (*Product, error)

	// ListActive returns all active products ordered by name.
	ListActive(ctx context.Context) ([]*Product, error)

	// SetActive flips the active flag.
	SetActive(ctx context.Context, productID id.ID, active bool) error
}
