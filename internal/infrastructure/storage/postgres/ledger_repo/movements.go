// Package ledger_repo provides the PostgreSQL implementation for the
// append-only movement ledger.
package ledger_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"oficina/internal/core/id"
	"oficina/internal/core/types"
	"oficina/internal/domain/ledger"
	"oficina/internal/infrastructure/storage/postgres"
)

const movementsTable = "stock_movements"

var movementColumns = []string{
	"id", "product_id", "movement_type", "quantity",
	"period", "session_id", "note", "created_at",
}

// MovementRepo implements ledger.Repository.
type MovementRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewMovementRepo creates a new movement ledger repository.
func NewMovementRepo(txManager *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert appends a single movement.
func (r *MovementRepo) Insert(ctx context.Context, m ledger.StockMovement) error {
	q := r.builder.Insert(movementsTable).
		Columns(movementColumns...).
		Values(
			m.ID, m.ProductID, m.Type, m.Quantity,
			m.Period, m.SessionID, m.Note, m.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", postgres.WrapStorageErr(err))
	}

	return nil
}

// SumAsOf sums quantities for the product with period <= cutoff.
func (r *MovementRepo) SumAsOf(ctx context.Context, productID id.ID, cutoff time.Time) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM stock_movements
		WHERE product_id = $1
		  AND period <= $2
	`

	var sumScaled int64
	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, productID, cutoff).Scan(&sumScaled)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("sum movements: %w", postgres.WrapStorageErr(err))
	}

	return types.NewQuantityFromInt64Scaled(sumScaled), nil
}

// ListByProduct returns movements for a product ordered by (period, id).
func (r *MovementRepo) ListByProduct(ctx context.Context, productID id.ID, filter ledger.MovementFilter) ([]ledger.StockMovement, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID})

	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"movement_type": *filter.Type})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"period": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"period": *filter.ToDate})
	}

	q = q.OrderBy("period ASC", "id ASC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []ledger.StockMovement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", postgres.WrapStorageErr(err))
	}

	return movements, nil
}

// ListBySession returns movements posted by a reconciliation session.
func (r *MovementRepo) ListBySession(ctx context.Context, sessionID id.ID) ([]ledger.StockMovement, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"session_id": sessionID}).
		OrderBy("period ASC", "id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []ledger.StockMovement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select session movements: %w", postgres.WrapStorageErr(err))
	}

	return movements, nil
}

// Ensure interface compliance.
var _ ledger.Repository = (*MovementRepo)(nil)
