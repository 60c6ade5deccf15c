// Package report_repo provides the PostgreSQL implementation for
// valuation reports.
package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"oficina/internal/core/apperror"
	"oficina/internal/domain/reports"
	"oficina/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// groupExpr maps a valuation scope to its SQL grouping expression.
func groupExpr(scope reports.ValuationScope) (string, error) {
	switch scope {
	case reports.ScopeTotal:
		return "''", nil
	case reports.ScopeByCategory:
		return "p.category", nil
	case reports.ScopeBySupplier:
		return "p.supplier", nil
	}
	return "", apperror.NewValidation(fmt.Sprintf("unknown valuation scope: %s", scope))
}

// GetValuation aggregates quantity * unit cost over active products.
// Quantities are stored as scaled integers, so the amount divides by the
// scale before multiplying by the cost.
func (r *ReportRepo) GetValuation(ctx context.Context, scope reports.ValuationScope) ([]reports.ValuationRow, error) {
	expr, err := groupExpr(scope)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT
			%s AS grp,
			COUNT(*) AS products,
			COALESCE(SUM(b.quantity), 0) AS quantity,
			COALESCE(SUM((b.quantity::numeric / 10000) * p.unit_cost), 0) AS amount
		FROM products p
		LEFT JOIN stock_balances b ON b.product_id = p.id
		WHERE p.active = true
		GROUP BY 1
		ORDER BY amount DESC, grp ASC
	`, expr)

	var rows []reports.ValuationRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, query); err != nil {
		return nil, fmt.Errorf("select valuation: %w", postgres.WrapStorageErr(err))
	}

	return rows, nil
}

// Ensure interface compliance.
var _ reports.Repository = (*ReportRepo)(nil)
