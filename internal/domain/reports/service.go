package reports

import (
	"context"
	"fmt"

	"oficina/internal/core/apperror"
	"oficina/internal/core/types"
)

// Service provides report generation operations.
type Service struct {
	repo Repository
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetValuation generates the stock valuation report for the given scope.
func (s *Service) GetValuation(ctx context.Context, scope ValuationScope) (*ValuationReport, error) {
	switch scope {
	case ScopeTotal, ScopeByCategory, ScopeBySupplier:
	default:
		return nil, apperror.NewValidation("unknown valuation scope").
			WithDetail("scope", string(scope))
	}

	rows, err := s.repo.GetValuation(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("get valuation: %w", err)
	}

	total := types.ZeroMoney()
	for _, row := range rows {
		total = total.Add(row.Amount)
	}

	return &ValuationReport{
		Scope: scope,
		Rows:  rows,
		Total: total,
	}, nil
}
