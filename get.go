package aiodb

import (
	"context"
	"database/sql"
)

// queryOne executes query and decodes the first row into T.
//
// It returns ErrNotFound if the query yields no rows and does not enforce
// "exactly one row" beyond the first; the statements built by QueryBuilder
// already carry LIMIT 1.
func queryOne[T any](ctx context.Context, q Querier, query string) (out T, err error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return out, err
	}
	// Ensure Close error is propagated if no earlier error occurred.
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if !rows.Next() {
		if ne := rows.Err(); ne != nil {
			return out, ne
		}
		return out, ErrNotFound
	}

	m := getMapper() // lazy, thread-safe
	v, scanErr := scanRow[T](m, rows)
	if scanErr != nil {
		return out, scanErr
	}
	return v, nil
}

// queryMany executes query and decodes every row into T.
//
// A query that runs but matches nothing returns an empty, non-nil slice; a
// nil slice is only returned together with an error.
func queryMany[T any](ctx context.Context, q Querier, query string) (out []T, err error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	// Propagate rows.Close() error if nothing else failed.
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			out, err = nil, cerr
		}
	}()

	m := getMapper() // lazy, thread-safe
	out = []T{}
	for rows.Next() {
		v, scanErr := scanRow[T](m, rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, v)
	}
	if ne := rows.Err(); ne != nil {
		return nil, ne
	}
	return out, nil
}

// queryCount reads the count_total column of a COUNT statement.
func queryCount(ctx context.Context, q Querier, query string) (n uint64, err error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if !rows.Next() {
		if ne := rows.Err(); ne != nil {
			return 0, ne
		}
		return 0, sql.ErrNoRows
	}
	var total int64
	if err := rows.Scan(&total); err != nil {
		return 0, err
	}
	return uint64(total), nil
}
