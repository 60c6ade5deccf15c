// Package stockview_repo provides the PostgreSQL implementation for the
// materialized stock balance cache.
package stockview_repo

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
	"oficina/internal/domain/catalog/product"
	"oficina/internal/domain/stockview"
	"oficina/internal/infrastructure/storage/postgres"
)

const balancesTable = "stock_balances"

// BalanceRepo implements stockview.Repository.
type BalanceRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewBalanceRepo creates a new stock balance repository.
func NewBalanceRepo(txManager *postgres.TxManager) *BalanceRepo {
	return &BalanceRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ApplyDelta adds delta to the cached quantity. The increment is done in
// the store so concurrent appends for the same product cannot lose updates.
func (r *BalanceRepo) ApplyDelta(ctx context.Context, productID id.ID, delta types.Quantity, movementAt time.Time) error {
	sql := `
		INSERT INTO stock_balances (product_id, quantity, last_movement_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_id) DO UPDATE SET
			quantity = stock_balances.quantity + EXCLUDED.quantity,
			last_movement_at = GREATEST(stock_balances.last_movement_at, EXCLUDED.last_movement_at),
			updated_at = now()
	`

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, productID, delta, movementAt); err != nil {
		return fmt.Errorf("apply balance delta: %w", postgres.WrapStorageErr(err))
	}

	return nil
}

// GetQuantity returns the cached quantity, zero when no row exists yet.
func (r *BalanceRepo) GetQuantity(ctx context.Context, productID id.ID) (types.Quantity, error) {
	sql := `SELECT quantity FROM stock_balances WHERE product_id = $1`

	var qtyScaled int64
	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, productID).Scan(&qtyScaled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get balance: %w", postgres.WrapStorageErr(err))
	}

	return types.NewQuantityFromInt64Scaled(qtyScaled), nil
}

// Overwrite replaces the cached quantity. Used by rebuild.
func (r *BalanceRepo) Overwrite(ctx context.Context, productID id.ID, quantity types.Quantity) error {
	sql := `
		INSERT INTO stock_balances (product_id, quantity, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (product_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			updated_at = now()
	`

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, productID, quantity); err != nil {
		return fmt.Errorf("overwrite balance: %w", postgres.WrapStorageErr(err))
	}

	return nil
}

func (r *BalanceRepo) selectProductsWithBalance() squirrel.SelectBuilder {
	return r.builder.Select(
		"p.id", "p.name", "p.sku", "p.category", "p.supplier",
		"p.unit_cost", "p.minimum_threshold", "p.active",
		"p.created_at", "p.updated_at",
		"COALESCE(b.quantity, 0) AS current_quantity",
	).From("products p").
		LeftJoin(balancesTable + " b ON b.product_id = p.id").
		Where(squirrel.Eq{"p.active": true})
}

// BelowThreshold returns active products with cached quantity below their
// minimum threshold.
func (r *BalanceRepo) BelowThreshold(ctx context.Context) ([]*product.Product, error) {
	q := r.selectProductsWithBalance().
		Where(squirrel.Expr("COALESCE(b.quantity, 0) < p.minimum_threshold")).
		OrderBy("p.name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*product.Product
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select below threshold: %w", postgres.WrapStorageErr(err))
	}

	return items, nil
}

// AtZero returns active products with cached quantity exactly zero.
func (r *BalanceRepo) AtZero(ctx context.Context) ([]*product.Product, error) {
	q := r.selectProductsWithBalance().
		Where(squirrel.Expr("COALESCE(b.quantity, 0) = 0")).
		OrderBy("p.name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*product.Product
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select at zero: %w", postgres.WrapStorageErr(err))
	}

	return items, nil
}

// Ensure interface compliance.
var _ stockview.Repository = (*BalanceRepo)(nil)
