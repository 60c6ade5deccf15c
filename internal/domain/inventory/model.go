// Package inventory provides physical-count sessions.
// A session snapshots expected quantities at start, collects counted
// quantities, and is closed by the reconciliation engine.
package inventory

import (
	"time"

	"oficina/internal/core/apperror"
	"oficina/internal/core/id"
	"oficina/internal/core/types"
)

// Status represents the lifecycle state of a session.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusFinalized  Status = "finalized"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no transition leaves this status.
func (s Status) Terminal() bool {
	return s == StatusFinalized || s == StatusCancelled
}

// Session is a bounded-lifetime count event.
// At most one session may be planned or in progress system-wide; the store
// enforces this with a uniqueness constraint, not an in-process check.
type Session struct {
	ID          id.ID  `db:"id" json:"id"`
	Description string `db:"description" json:"description"`
	Status      Status `db:"status" json:"status"`

	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	StartedAt   *time.Time `db:"started_at" json:"startedAt,omitempty"`
	FinalizedAt *time.Time `db:"finalized_at" json:"finalizedAt,omitempty"`

	Items []Item `db:"-" json:"items,omitempty"`
}

// NewSession creates a session in planned status.
func NewSession(description string, now time.Time) *Session {
	return &Session{
		ID:          id.New(),
		Description: description,
		Status:      StatusPlanned,
		CreatedAt:   now,
	}
}

// Item is one counted product within a session.
// Exactly one item exists per (session, product) pair.
type Item struct {
	SessionID id.ID `db:"session_id" json:"sessionId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	// ExpectedQuantity is the ledger balance snapshotted at session start.
	// Frozen thereafter.
	ExpectedQuantity types.Quantity `db:"expected_quantity" json:"expectedQuantity"`

	// CountedQuantity is nil until the product is counted.
	// Re-counting overwrites it: last write wins.
	CountedQuantity *types.Quantity `db:"counted_quantity" json:"countedQuantity,omitempty"`

	// Divergence = counted - expected, valid once counted.
	Divergence types.Quantity `db:"divergence" json:"divergence"`

	CountedAt *time.Time `db:"counted_at" json:"countedAt,omitempty"`
}

// Counted reports whether a count was recorded for this item.
func (i *Item) Counted() bool { return i.CountedQuantity != nil }

// SetCount overwrites the counted quantity and recomputes divergence.
func (i *Item) SetCount(counted types.Quantity, at time.Time) {
	i.CountedQuantity = &counted
	i.Divergence = counted - i.ExpectedQuantity
	i.CountedAt = &at
}

// Start transitions the session to in progress.
func (s *Session) Start(now time.Time) error {
	if s.Status != StatusPlanned {
		return apperror.NewInvalidState("inventory session", string(s.Status), "start")
	}
	s.Status = StatusInProgress
	s.StartedAt = &now
	return nil
}

// Cancel discards the session. Items are retained for audit but produce
// no ledger movements.
func (s *Session) Cancel() error {
	if s.Status.Terminal() {
		return apperror.NewInvalidState("inventory session", string(s.Status), "cancel")
	}
	s.Status = StatusCancelled
	return nil
}

// Finalize flips the session to its terminal reconciled state.
// Completeness is checked by the reconciliation engine before posting.
func (s *Session) Finalize(now time.Time) error {
	if s.Status != StatusInProgress {
		return apperror.NewInvalidState("inventory session", string(s.Status), "finalize")
	}
	s.Status = StatusFinalized
	s.FinalizedAt = &now
	return nil
}

// UncountedItems returns how many items still lack a counted quantity.
func (s *Session) UncountedItems() int {
	n := 0
	for i := range s.Items {
		if !s.Items[i].Counted() {
			n++
		}
	}
	return n
}

// DivergenceRow is one line of the divergence report.
type DivergenceRow struct {
	ProductID        id.ID          `db:"product_id" json:"productId"`
	ExpectedQuantity types.Quantity `db:"expected_quantity" json:"expectedQuantity"`
	CountedQuantity  types.Quantity `db:"counted_quantity" json:"countedQuantity"`
	Divergence       types.Quantity `db:"divergence" json:"divergence"`
}
