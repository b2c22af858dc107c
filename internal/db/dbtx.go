package db

import (
	"context"
	"database/sql"
)

// DBTX is what repositories need from a handle: plain queries and execs.
// Both the pool and an open transaction satisfy it, so the same repository
// code runs inside and outside a UnitOfWork.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
