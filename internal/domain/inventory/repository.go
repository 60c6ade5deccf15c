package inventory

import (
	"context"

	"oficina/internal/core/id"
	"oficina/internal/core/types"
)

// Repository defines persistence for inventory sessions and their items.
type Repository interface {
	// Create inserts a new session. The store enforces "at most one
	// non-terminal session": a concurrent create loses with
	// apperror.NewConflict, closing the check-then-act race.
	Create(ctx context.Context, s *Session) error

	// GetByID retrieves a session header (no items).
	GetByID(ctx context.Context, sessionID id.ID) (*Session, error)

	// UpdateStatus transitions a session, guarded by the expected current
	// status. Returns apperror.NewInvalidState when the guard fails.
	UpdateStatus(ctx context.Context, s *Session, expected Status) error

	// SaveItems batch inserts the snapshot taken at start.
	SaveItems(ctx context.Context, sessionID id.ID, items []Item) error

	// GetItems returns all items of a session.
	GetItems(ctx context.Context, sessionID id.ID) ([]Item, error)

	// GetItem returns the item for one product, or apperror.NewNotFound.
	GetItem(ctx context.Context, sessionID, productID id.ID) (*Item, error)

	// RecordCount overwrites the counted quantity and divergence for one
	// item. Last write wins; naturally idempotent.
	RecordCount(ctx context.Context, sessionID, productID id.ID, counted, divergence types.Quantity) error

	// DivergenceRows returns counted items with non-zero divergence,
	// ordered by absolute divergence descending.
	DivergenceRows(ctx context.Context, sessionID id.ID) ([]DivergenceRow, error)
}
