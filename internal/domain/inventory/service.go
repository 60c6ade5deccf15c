package inventory

import (
	"context"
	"fmt"

	"oficina/internal/core/apperror"
	"oficina/internal/core/clock"
	"oficina/internal/core/id"
	"oficina/internal/core/tx"
	"oficina/internal/core/types"
	"oficina/internal/domain/catalog/product"
	"oficina/internal/domain/ledger"
	"oficina/pkg/logger"
)

// Auditor records lifecycle transitions for the audit trail.
// Best-effort: failures are logged, never fail the operation.
type Auditor interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// Service provides the count-taking workflow.
type Service struct {
	repo      Repository
	ledger    *ledger.Service
	products  *product.Service
	txManager tx.Manager
	clock     clock.Clock
	auditor   Auditor // optional
}

// NewService creates a new inventory session service.
func NewService(
	repo Repository,
	ledgerSvc *ledger.Service,
	products *product.Service,
	txManager tx.Manager,
	clk clock.Clock,
	auditor Auditor,
) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledgerSvc,
		products:  products,
		txManager: txManager,
		clock:     clk,
		auditor:   auditor,
	}
}

func (s *Service) audit(ctx context.Context, sessionID id.ID, action string, changes map[string]any) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.LogChange(ctx, "InventorySession", sessionID, action, changes); err != nil {
		logger.Warn(ctx, "audit write failed", "session_id", sessionID, "action", action, "error", err)
	}
}

// Open creates a session in planned status. Fails with a conflict when any
// session is already planned or in progress: the store's uniqueness
// constraint makes the check-and-create atomic under concurrent callers.
func (s *Service) Open(ctx context.Context, description string) (*Session, error) {
	session := NewSession(description, s.clock.Now())

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, session.ID, "open", map[string]any{"description": description})
	logger.Info(ctx, "inventory session opened", "id", session.ID)
	return session, nil
}

// GetByID retrieves a session with its items.
func (s *Service) GetByID(ctx context.Context, sessionID id.ID) (*Session, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	session.Items = items

	return session, nil
}

// Start transitions the session to in progress and snapshots the expected
// quantity of every active product as of the start instant. The snapshot and
// the transition commit together.
func (s *Service) Start(ctx context.Context, sessionID id.ID) (*Session, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	startedAt := s.clock.Now()
	if err := session.Start(startedAt); err != nil {
		return nil, err
	}

	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}

	items := make([]Item, 0, len(products))
	for _, p := range products {
		expected, err := s.ledger.BalanceAsOf(ctx, p.ID, startedAt)
		if err != nil {
			return nil, fmt.Errorf("snapshot balance for %s: %w", p.ID, err)
		}
		items = append(items, Item{
			SessionID:        sessionID,
			ProductID:        p.ID,
			ExpectedQuantity: expected,
		})
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SaveItems(ctx, sessionID, items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		if err := s.repo.UpdateStatus(ctx, session, StatusPlanned); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	session.Items = items
	s.audit(ctx, sessionID, "start", map[string]any{"items": len(items)})
	logger.Info(ctx, "inventory session started", "id", sessionID, "items", len(items))
	return session, nil
}

// RecordCount overwrites the counted quantity for a product in the session.
// Re-counting is allowed and idempotent: last write wins, no history kept.
func (s *Service) RecordCount(ctx context.Context, sessionID, productID id.ID, counted types.Quantity) (*Item, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != StatusInProgress {
		return nil, apperror.NewInvalidState("inventory session", string(session.Status), "record count")
	}

	item, err := s.repo.GetItem(ctx, sessionID, productID)
	if err != nil {
		// The product was inactive at start time and has no item.
		return nil, err
	}

	item.SetCount(counted, s.clock.Now())

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.RecordCount(ctx, sessionID, productID, counted, item.Divergence)
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// Cancel discards a planned or in-progress session. No ledger effect;
// items are retained for audit.
func (s *Service) Cancel(ctx context.Context, sessionID id.ID) error {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}

	previous := session.Status
	if err := session.Cancel(); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.UpdateStatus(ctx, session, previous)
	})
	if err != nil {
		return err
	}

	s.audit(ctx, sessionID, "cancel", map[string]any{"from": string(previous)})
	logger.Info(ctx, "inventory session cancelled", "id", sessionID)
	return nil
}

// DivergenceReport returns counted items with non-zero divergence, largest
// absolute discrepancies first, so the most material errors surface on top.
func (s *Service) DivergenceReport(ctx context.Context, sessionID id.ID) ([]DivergenceRow, error) {
	if _, err := s.repo.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.DivergenceRows(ctx, sessionID)
}
