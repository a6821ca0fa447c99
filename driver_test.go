package aiodb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"testing"
)

// --- In-test driver ----------------------------------------------------------
//
// fakeDB answers queries and statements through handler funcs and records
// every SQL text it receives, in order.

type queryHandler func(query string, args []driver.NamedValue) (cols []string, rows [][]driver.Value, err error)

type execHandler func(query string, args []driver.NamedValue) (driver.Result, error)

type fakeDB struct {
	query queryHandler
	exec  execHandler

	mu    sync.Mutex
	stmts []string
}

func (f *fakeDB) record(q string) {
	f.mu.Lock()
	f.stmts = append(f.stmts, q)
	f.mu.Unlock()
}

func (f *fakeDB) statements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stmts...)
}

type testConnector struct{ f *fakeDB }

func (c *testConnector) Connect(context.Context) (driver.Conn, error) { return &testConn{f: c.f}, nil }
func (c *testConnector) Driver() driver.Driver                        { return testDriver{} }

type testDriver struct{}

func (testDriver) Open(name string) (driver.Conn, error) {
	return nil, errors.New("testDriver.Open should not be called; use sql.OpenDB with connector")
}

type testConn struct{ f *fakeDB }

func (c *testConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (c *testConn) Close() error                        { return nil }
func (c *testConn) Begin() (driver.Tx, error)           { return nil, driver.ErrSkip }

func (c *testConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.f.record(query)
	if c.f.query == nil {
		return &testRows{}, nil
	}
	cols, data, err := c.f.query(query, args)
	if err != nil {
		return nil, err
	}
	return &testRows{cols: cols, data: data}, nil
}

func (c *testConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.f.record(query)
	if c.f.exec == nil {
		return testResult{}, nil
	}
	return c.f.exec(query, args)
}

type testRows struct {
	cols []string
	data [][]driver.Value
	i    int
}

func (r *testRows) Columns() []string { return append([]string(nil), r.cols...) }
func (r *testRows) Close() error      { return nil }
func (r *testRows) Next(dest []driver.Value) error {
	if r.i >= len(r.data) {
		return io.EOF
	}
	row := r.data[r.i]
	for i := range dest {
		if i < len(row) {
			dest[i] = row[i]
		} else {
			dest[i] = nil
		}
	}
	r.i++
	return nil
}

// Result implementation for tests.
type testResult struct {
	rows int64
}

func (r testResult) LastInsertId() (int64, error) { return 0, nil }
func (r testResult) RowsAffected() (int64, error) { return r.rows, nil }

// newTestDB creates a *sql.DB backed by the in-test driver.
func newTestDB(t *testing.T, f *fakeDB) *sql.DB {
	t.Helper()
	db := sql.OpenDB(&testConnector{f: f})
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// rowsOf answers every query with the same result set.
func rowsOf(cols []string, rows ...[]driver.Value) queryHandler {
	return func(string, []driver.NamedValue) ([]string, [][]driver.Value, error) {
		return cols, rows, nil
	}
}

func sqlOpenErrNext(t *testing.T) *sql.DB {
	t.Helper()
	db := sql.OpenDB(&errNextConnector{})
	t.Cleanup(func() { _ = db.Close() })
	return db
}
