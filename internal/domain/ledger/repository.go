package ledger

import (
	"context"
	"time"

	"oficina/internal/core/id"
	"oficina/internal/core/types"
)

// Repository defines persistence for the movement ledger.
// The store is append-only: there is no update or delete operation.
type Repository interface {
	// Insert appends a single movement.
	Insert(ctx context.Context, m StockMovement) error

	// SumAsOf sums quantities for the product with period <= cutoff.
	SumAsOf(ctx context.Context, productID id.ID, cutoff time.Time) (types.Quantity, error)

	// ListByProduct returns movements for a product ordered by (period, id)
	// ascending so replay is deterministic.
	ListByProduct(ctx context.Context, productID id.ID, filter MovementFilter) ([]StockMovement, error)

	// ListBySession returns movements posted by a reconciliation session.
	ListBySession(ctx context.Context, sessionID id.ID) ([]StockMovement, error)
}

// MovementFilter narrows ListByProduct.
type MovementFilter struct {
	Type     *MovementType
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
