package reports

import (
	"context"
)

// Repository defines report data access interface.
type Repository interface {
	// GetValuation aggregates quantity * unit cost over active products,
	// grouped per scope.
	GetValuation(ctx context.Context, scope ValuationScope) ([]ValuationRow, error)
}
