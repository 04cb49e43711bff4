// Package postgres implements the catalog stores on database/sql with the
// lib/pq driver. Stores join a caller-started transaction through
// pkg/platform/tx and translate driver facts into sentinel errors.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"sdgcatalog/pkg/platform/sentinel"
	txcontext "sdgcatalog/pkg/platform/tx"
)

const uniqueViolation = "23505"

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// execer returns the context transaction when present, the pool otherwise.
func execer(ctx context.Context, db *sql.DB) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}

// requireRow turns a zero-row update into sentinel.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// translateErr maps driver errors onto the sentinel contract.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return sentinel.ErrConflict
	}
	return err
}
