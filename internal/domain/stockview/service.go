package stockview

import (
	"context"
	"fmt"
	"time"

	"oficina/internal/core/clock"
	"oficina/internal/core/id"
	"oficina/internal/core/types"
	"oficina/internal/domain/catalog/product"
	"oficina/internal/domain/ledger"
	"oficina/pkg/logger"
)

// BalanceSource recomputes a product balance from the ledger.
// Implemented by the ledger service.
type BalanceSource interface {
	BalanceAsOf(ctx context.Context, productID id.ID, cutoff time.Time) (types.Quantity, error)
}

// Service maintains and queries the materialized stock view.
type Service struct {
	repo     Repository
	source   BalanceSource
	products *product.Service
	clock    clock.Clock
}

// NewService creates a new stock view service.
// The balance source is set afterwards via SetSource because the ledger
// service in turn consumes this view.
func NewService(repo Repository, products *product.Service, clk clock.Clock) *Service {
	return &Service{
		repo:     repo,
		products: products,
		clock:    clk,
	}
}

// SetSource wires the ledger as the rebuild source.
func (s *Service) SetSource(source BalanceSource) {
	s.source = source
}

// Apply consumes an appended movement. Called by the ledger inside the
// append transaction, so the appending caller reads its own write.
func (s *Service) Apply(ctx context.Context, m ledger.StockMovement) error {
	if err := s.repo.ApplyDelta(ctx, m.ProductID, m.Quantity, m.Period); err != nil {
		return fmt.Errorf("apply delta: %w", err)
	}
	return nil
}

// Quantity returns the cached current quantity for a product.
func (s *Service) Quantity(ctx context.Context, productID id.ID) (types.Quantity, error) {
	return s.repo.GetQuantity(ctx, productID)
}

// Rebuild recomputes the product's quantity from the ledger and overwrites
// the cached value. A mismatch is logged as drift, never raised: the
// recomputed value always wins.
func (s *Service) Rebuild(ctx context.Context, productID id.ID) (types.Quantity, error) {
	cached, err := s.repo.GetQuantity(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("get cached quantity: %w", err)
	}

	recomputed, err := s.source.BalanceAsOf(ctx, productID, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("recompute balance: %w", err)
	}

	if cached != recomputed {
		logger.Warn(ctx, "stock view drift detected",
			"product_id", productID,
			"cached", cached,
			"recomputed", recomputed,
		)
	}

	if err := s.repo.Overwrite(ctx, productID, recomputed); err != nil {
		return 0, fmt.Errorf("overwrite quantity: %w", err)
	}

	return recomputed, nil
}

// RebuildAll rebuilds every active product. Used by the drift worker and
// after bulk imports.
func (s *Service) RebuildAll(ctx context.Context) error {
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active products: %w", err)
	}

	for _, p := range products {
		if _, err := s.Rebuild(ctx, p.ID); err != nil {
			return fmt.Errorf("rebuild %s: %w", p.ID, err)
		}
	}

	logger.Info(ctx, "stock view rebuilt", "products", len(products))
	return nil
}

// BelowThreshold returns active products below their minimum threshold.
func (s *Service) BelowThreshold(ctx context.Context) ([]*product.Product, error) {
	return s.repo.BelowThreshold(ctx)
}

// AtZero returns active products with zero stock.
func (s *Service) AtZero(ctx context.Context) ([]*product.Product, error) {
	return s.repo.AtZero(ctx)
}
