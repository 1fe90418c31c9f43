package postgres

import (
	"context"
	"database/sql"
)

// SQLQuerier is the subset of database/sql shared by *sql.DB and *sql.Tx,
// so repositories can run inside or outside a transaction.
type SQLQuerier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
