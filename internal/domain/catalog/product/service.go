package product

import (
	"context"
	"fmt"
	"time"

	"oficina/internal/core/apperror"
	"oficina/internal/core/id"
	"oficina/internal/core/tx"
	"oficina/pkg/logger"
)

// Service provides catalog operations used by the stock core.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new product service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create registers a new product.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product created", "id", p.ID, "sku", p.SKU)
	return nil
}

// Update saves edits to a product's descriptive fields.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	logger.Info(ctx, "product updated", "id", p.ID)
	return nil
}

// GetByID retrieves a product by id.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// GetActive retrieves a product and verifies it is enabled.
// Used by the ledger to validate appends.
func (s *Service) GetActive(ctx context.Context, productID id.ID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, apperror.NewInactiveProduct(productID.String())
	}
	return p, nil
}

// ListActive returns all active products.
func (s *Service) ListActive(ctx context.Context) ([]*Product, error) {
	return s.repo.ListActive(ctx)
}

// Deactivate disables a product. Existing movements are untouched;
// the ledger refuses new ones.
func (s *Service) Deactivate(ctx context.Context, productID id.ID) error {
	if err := s.repo.SetActive(ctx, productID, false); err != nil {
		return err
	}
	logger.Info(ctx, "product deactivated", "id", productID)
	return nil
}

// Activate re-enables a product.
func (s *Service) Activate(ctx context.Context, productID id.ID) error {
	if err := s.repo.SetActive(ctx, productID, true); err != nil {
		return err
	}
	logger.Info(ctx, "product activated", "id", productID)
	return nil
}
