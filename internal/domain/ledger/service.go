package ledger

import (
	"context"
	"fmt"
	"time"

	"oficina/internal/core/apperror"
	"oficina/internal/core/clock"
	"oficina/internal/core/id"
	"oficina/internal/core/tx"
	"oficina/internal/core/types"
	"oficina/internal/domain/catalog/product"
	"oficina/pkg/logger"
)

// View consumes each appended movement synchronously so the appending caller
// reads its own write. Implemented by the stock view service.
type View interface {
	Apply(ctx context.Context, m StockMovement) error
}

// Service provides business operations for the movement ledger.
type Service struct {
	repo      Repository
	products  *product.Service
	view      View
	txManager tx.Manager
	clock     clock.Clock
}

// NewService creates a new ledger service.
func NewService(repo Repository, products *product.Service, view View, txManager tx.Manager, clk clock.Clock) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		view:      view,
		txManager: txManager,
		clock:     clk,
	}
}

// AppendRequest is the caller-supplied part of a movement. The service
// assigns id and period on append.
type AppendRequest struct {
	ProductID id.ID          `json:"productId"`
	Type      MovementType   `json:"type"`
	Quantity  types.Quantity `json:"quantity"`
	Note      string         `json:"note,omitempty"`

	// SessionID tags movements posted by reconciliation. External callers
	// leave it nil.
	SessionID *id.ID `json:"sessionId,omitempty"`
}

// Append validates, stamps, and appends a movement, then updates the stock
// view for the affected product within the same transaction.
func (s *Service) Append(ctx context.Context, req AppendRequest) (*StockMovement, error) {
	m := StockMovement{
		ID:        id.New(),
		ProductID: req.ProductID,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Period:    s.clock.Now(),
		SessionID: req.SessionID,
		Note:      req.Note,
		CreatedAt: s.clock.Now(),
	}

	if err := m.ValidateSign(); err != nil {
		return nil, err
	}

	// Product must exist and be active.
	if _, err := s.products.GetActive(ctx, req.ProductID); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Insert(ctx, m); err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}
		if err := s.view.Apply(ctx, m); err != nil {
			return fmt.Errorf("apply to stock view: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "movement appended",
		"id", m.ID,
		"product_id", m.ProductID,
		"type", m.Type,
		"quantity", m.Quantity,
	)

	return &m, nil
}

// AppendTransferPair appends the two legs of a transfer atomically.
// The legs must net to zero; each leg is a Transferencia movement.
func (s *Service) AppendTransferPair(ctx context.Context, out, in AppendRequest) ([]StockMovement, error) {
	if out.Type != TypeTransferencia || in.Type != TypeTransferencia {
		return nil, apperror.NewValidation("transfer legs must use type transferencia")
	}
	if out.Quantity+in.Quantity != 0 {
		return nil, apperror.NewValidation("transfer legs must net to zero").
			WithDetail("out", out.Quantity.String()).
			WithDetail("in", in.Quantity.String())
	}

	var legs []StockMovement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, req := range []AppendRequest{out, in} {
			m, err := s.Append(ctx, req)
			if err != nil {
				return err
			}
			legs = append(legs, *m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return legs, nil
}

// BalanceAsOf sums all movement quantities for the product with
// period <= cutoff. Pure read: repeated calls return the same value until a
// movement with period <= cutoff is appended.
func (s *Service) BalanceAsOf(ctx context.Context, productID id.ID, cutoff time.Time) (types.Quantity, error) {
	balance, err := s.repo.SumAsOf(ctx, productID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sum movements: %w", err)
	}
	return balance, nil
}

// Balance returns the ledger-derived balance as of now.
func (s *Service) Balance(ctx context.Context, productID id.ID) (types.Quantity, error) {
	return s.BalanceAsOf(ctx, productID, s.clock.Now())
}

// MovementsForProduct returns the product's movements ordered by
// (period, id) ascending.
func (s *Service) MovementsForProduct(ctx context.Context, productID id.ID, filter MovementFilter) ([]StockMovement, error) {
	return s.repo.ListByProduct(ctx, productID, filter)
}

// MovementsForSession returns movements posted by a reconciliation session.
func (s *Service) MovementsForSession(ctx context.Context, sessionID id.ID) ([]StockMovement, error) {
	return s.repo.ListBySession(ctx, sessionID)
}
