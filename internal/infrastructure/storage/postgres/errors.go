package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"oficina/internal/core/apperror"
)

// IsUniqueViolation reports whether err is a unique constraint violation (23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// WrapStorageErr maps low-level pgx failures to apperror.CodeStorage so
// callers can retry on transient errors. AppErrors pass through unmodified.
func WrapStorageErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperror.NewStorage(err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return apperror.NewStorage(err).WithDetail("pg_code", pgErr.Code)
	}
	return apperror.NewStorage(err)
}
