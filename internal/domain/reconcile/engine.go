// Package reconcile converts count divergences into adjustment movements.
// Finalize is the one place that needs multi-record transactional atomicity:
// either every adjustment is appended and the session flips to finalized,
// or none are and the session stays in progress.
package reconcile

import (
	"context"
	"fmt"

	"oficina/internal/core/apperror"
	"oficina/internal/core/clock"
	"oficina/internal/core/id"
	"oficina/internal/core/tx"
	"oficina/internal/domain/inventory"
	"oficina/internal/domain/ledger"
	"oficina/pkg/logger"
)

// Engine finalizes inventory sessions.
type Engine struct {
	sessions  inventory.Repository
	ledger    *ledger.Service
	txManager tx.Manager
	clock     clock.Clock
	auditor   inventory.Auditor // optional
}

// NewEngine creates a new reconciliation engine.
func NewEngine(
	sessions inventory.Repository,
	ledgerSvc *ledger.Service,
	txManager tx.Manager,
	clk clock.Clock,
	auditor inventory.Auditor,
) *Engine {
	return &Engine{
		sessions:  sessions,
		ledger:    ledgerSvc,
		txManager: txManager,
		clock:     clk,
		auditor:   auditor,
	}
}

// Finalize posts one ajuste movement per item with non-zero divergence,
// tagged with the session id, and transitions the session to finalized.
// Items with zero divergence post nothing. On any error the transaction
// rolls back and the session remains in progress, so the call is retryable.
func (e *Engine) Finalize(ctx context.Context, sessionID id.ID) ([]ledger.StockMovement, error) {
	session, err := e.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != inventory.StatusInProgress {
		return nil, apperror.NewInvalidState("inventory session", string(session.Status), "finalize")
	}

	items, err := e.sessions.GetItems(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	session.Items = items

	if uncounted := session.UncountedItems(); uncounted > 0 {
		return nil, apperror.NewIncompleteCount(sessionID.String(), uncounted)
	}

	if err := session.Finalize(e.clock.Now()); err != nil {
		return nil, err
	}

	var posted []ledger.StockMovement
	err = e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for i := range items {
			item := &items[i]
			if item.Divergence.IsZero() {
				continue
			}

			m, err := e.ledger.Append(ctx, ledger.AppendRequest{
				ProductID: item.ProductID,
				Type:      ledger.TypeAjuste,
				Quantity:  item.Divergence,
				Note:      fmt.Sprintf("inventory reconciliation %s", session.ID),
				SessionID: &session.ID,
			})
			if err != nil {
				return fmt.Errorf("post adjustment for %s: %w", item.ProductID, err)
			}
			posted = append(posted, *m)
		}

		if err := e.sessions.UpdateStatus(ctx, session, inventory.StatusInProgress); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e.auditor != nil {
		auditErr := e.auditor.LogChange(ctx, "InventorySession", session.ID, "finalize",
			map[string]any{"adjustments": len(posted)})
		if auditErr != nil {
			logger.Warn(ctx, "audit write failed", "session_id", session.ID, "error", auditErr)
		}
	}

	logger.Info(ctx, "inventory session finalized",
		"id", session.ID,
		"adjustments", len(posted),
	)

	return posted, nil
}
