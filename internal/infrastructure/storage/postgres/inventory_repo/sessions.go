// Package inventory_repo provides the PostgreSQL implementation for
// inventory count sessions and their items.
package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"oficina/internal/core/apperror"
	"oficina/internal/core/id"
	"oficina/internal/core/types"
	"oficina/internal/domain/inventory"
	"oficina/internal/infrastructure/storage/postgres"
)

const (
	sessionsTable = "inventory_sessions"
	itemsTable    = "inventory_items"
)

var sessionColumns = []string{
	"id", "description", "status",
	"created_at", "started_at", "finalized_at",
}

var itemColumns = []string{
	"session_id", "product_id",
	"expected_quantity", "counted_quantity", "divergence", "counted_at",
}

// SessionRepo implements inventory.Repository.
type SessionRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewSessionRepo creates a new inventory session repository.
func NewSessionRepo(txManager *postgres.TxManager) *SessionRepo {
	return &SessionRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new session. A partial unique index over non-terminal
// statuses enforces "at most one open session"; a concurrent create loses
// with a unique violation which is surfaced as a conflict.
func (r *SessionRepo) Create(ctx context.Context, s *inventory.Session) error {
	q := r.builder.Insert(sessionsTable).
		Columns(sessionColumns...).
		Values(
			s.ID, s.Description, s.Status,
			s.CreatedAt, s.StartedAt, s.FinalizedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewConflict("an inventory session is already open")
		}
		return fmt.Errorf("insert session: %w", postgres.WrapStorageErr(err))
	}

	return nil
}

// GetByID retrieves a session header without items.
func (r *SessionRepo) GetByID(ctx context.Context, sessionID id.ID) (*inventory.Session, error) {
	q := r.builder.Select(sessionColumns...).
		From(sessionsTable).
		Where(squirrel.Eq{"id": sessionID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s inventory.Session
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("inventory session", sessionID.String())
		}
		return nil, fmt.Errorf("get session: %w", postgres.WrapStorageErr(err))
	}

	return &s, nil
}

// UpdateStatus transitions a session, guarded by the expected current
// status so two concurrent transitions cannot both win.
func (r *SessionRepo) UpdateStatus(ctx context.Context, s *inventory.Session, expected inventory.Status) error {
	q := r.builder.Update(sessionsTable).
		Set("status", s.Status).
		Set("started_at", s.StartedAt).
		Set("finalized_at", s.FinalizedAt).
		Where(squirrel.Eq{"id": s.ID}).
		Where(squirrel.Eq{"status": expected})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update session status: %w", postgres.WrapStorageErr(err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewInvalidState("inventory session", string(expected), "transition to "+string(s.Status))
	}

	return nil
}

// SaveItems batch inserts the snapshot taken at start.
func (r *SessionRepo) SaveItems(ctx context.Context, sessionID id.ID, items []inventory.Item) error {
	if len(items) == 0 {
		return nil
	}

	// Snapshot happens inside the start transaction, so COPY applies.
	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(items))
		for _, it := range items {
			rows = append(rows, []any{
				sessionID, it.ProductID,
				it.ExpectedQuantity, it.CountedQuantity, it.Divergence, it.CountedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, itemsTable, itemColumns, rows); err != nil {
			return fmt.Errorf("copy items: %w", postgres.WrapStorageErr(err))
		}
		return nil
	}

	q := r.builder.Insert(itemsTable).Columns(itemColumns...)
	for _, it := range items {
		q = q.Values(
			sessionID, it.ProductID,
			it.ExpectedQuantity, it.CountedQuantity, it.Divergence, it.CountedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", postgres.WrapStorageErr(err))
	}

	return nil
}

// GetItems returns all items of a session ordered by product.
func (r *SessionRepo) GetItems(ctx context.Context, sessionID id.ID) ([]inventory.Item, error) {
	q := r.builder.Select(itemColumns...).
		From(itemsTable).
		Where(squirrel.Eq{"session_id": sessionID}).
		OrderBy("product_id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []inventory.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select items: %w", postgres.WrapStorageErr(err))
	}

	return items, nil
}

// GetItem returns the item for one product.
func (r *SessionRepo) GetItem(ctx context.Context, sessionID, productID id.ID) (*inventory.Item, error) {
	q := r.builder.Select(itemColumns...).
		From(itemsTable).
		Where(squirrel.Eq{
			"session_id": sessionID,
			"product_id": productID,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var it inventory.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &it, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("inventory item", productID.String())
		}
		return nil, fmt.Errorf("get item: %w", postgres.WrapStorageErr(err))
	}

	return &it, nil
}

// RecordCount overwrites the counted quantity and divergence for one item.
// Last write wins, so recounting the same product is naturally idempotent.
func (r *SessionRepo) RecordCount(ctx context.Context, sessionID, productID id.ID, counted, divergence types.Quantity) error {
	q := r.builder.Update(itemsTable).
		Set("counted_quantity", counted).
		Set("divergence", divergence).
		Set("counted_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{
			"session_id": sessionID,
			"product_id": productID,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("record count: %w", postgres.WrapStorageErr(err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("inventory item", productID.String())
	}

	return nil
}

// DivergenceRows returns counted items with non-zero divergence, largest
// absolute divergence first.
func (r *SessionRepo) DivergenceRows(ctx context.Context, sessionID id.ID) ([]inventory.DivergenceRow, error) {
	q := r.builder.Select(
		"product_id", "expected_quantity", "counted_quantity", "divergence",
	).From(itemsTable).
		Where(squirrel.Eq{"session_id": sessionID}).
		Where(squirrel.NotEq{"counted_quantity": nil}).
		Where(squirrel.NotEq{"divergence": int64(0)}).
		OrderBy("ABS(divergence) DESC", "product_id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []inventory.DivergenceRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select divergences: %w", postgres.WrapStorageErr(err))
	}

	return rows, nil
}

// Ensure interface compliance.
var _ inventory.Repository = (*SessionRepo)(nil)
