// Package ledger provides the append-only stock movement ledger.
// Balances are always derived from movements, never stored as the source of
// truth; the materialized stock view is a cache over this ledger.
package ledger

import (
	"time"

	"oficina/internal/core/apperror"
	"oficina/internal/core/id"
	"oficina/internal/core/types"
)

// MovementType classifies a stock movement.
// The five-member set is shared by the ledger and by reconciliation.
type MovementType string

const (
	// TypeEntrada is a goods receipt. Quantity must be positive.
	TypeEntrada MovementType = "entrada"
	// TypeSaida is a goods issue. Quantity must be negative.
	TypeSaida MovementType = "saida"
	// TypeAjuste is a correction, either sign. Reconciliation posts these.
	TypeAjuste MovementType = "ajuste"
	// TypeTransferencia records a transfer leg. Paired legs must net to zero.
	TypeTransferencia MovementType = "transferencia"
	// TypeInventario marks an opening balance load.
	TypeInventario MovementType = "inventario"
)

// Valid reports whether t is one of the known movement types.
func (t MovementType) Valid() bool {
	switch t {
	case TypeEntrada, TypeSaida, TypeAjuste, TypeTransferencia, TypeInventario:
		return true
	}
	return false
}

// StockMovement is a single ledger entry. Immutable once appended:
// corrections are new movements, never edits or deletes.
type StockMovement struct {
	ID        id.ID        `db:"id" json:"id"`
	ProductID id.ID        `db:"product_id" json:"productId"`
	Type      MovementType `db:"movement_type" json:"type"`

	// Quantity is signed: positive increases stock, negative decreases it.
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// Period is the business timestamp used for balance cutoffs.
	// Ties are broken by ID (UUIDv7, insertion-ordered) for deterministic replay.
	Period time.Time `db:"period" json:"period"`

	// SessionID is set only for movements posted by reconciliation.
	SessionID *id.ID `db:"session_id" json:"sessionId,omitempty"`

	Note string `db:"note" json:"note,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ValidateSign checks the quantity sign against the movement type.
func (m *StockMovement) ValidateSign() error {
	if m.Quantity.IsZero() {
		return apperror.NewValidation("quantity must be non-zero").
			WithDetail("type", string(m.Type))
	}

	switch m.Type {
	case TypeEntrada:
		if !m.Quantity.IsPositive() {
			return apperror.NewValidation("entrada requires a positive quantity").
				WithDetail("quantity", m.Quantity.String())
		}
	case TypeSaida:
		if !m.Quantity.IsNegative() {
			return apperror.NewValidation("saida requires a negative quantity").
				WithDetail("quantity", m.Quantity.String())
		}
	case TypeAjuste, TypeTransferencia, TypeInventario:
		// Either sign, non-zero.
	default:
		return apperror.NewValidation("unknown movement type").
			WithDetail("type", string(m.Type))
	}

	return nil
}
