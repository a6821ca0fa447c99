package aiodb

import (
	"context"
	"database/sql"
)

// Querier is implemented by *sql.DB, *sql.Tx, *sql.Conn, and any wrapper
// that can execute a query returning rows.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Execer is implemented by *sql.DB, *sql.Tx, *sql.Conn, and any wrapper
// that can execute a statement that does not return rows.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Conner is implemented by *sql.DB. It pins one connection of the pool, which
// the concurrent write mode needs to keep BEGIN, the statement and COMMIT on
// the same connection.
type Conner interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

