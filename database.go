package aiodb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/go-mizu/aiodb/sqlite"
)

// DB is a handle on one table whose columns mirror the fields of T. It is
// safe for concurrent use; every statement borrows a pooled connection for
// its own duration.
type DB[T any] struct {
	name   string
	schema Schema
	pool   *sql.DB
	owned  bool

	retries atomic.Int64
	mode    atomic.Int32
	delay   time.Duration
	log     *zap.SugaredLogger
}

// Open opens (creating if needed) the database file <dir>/<table>.db and
// synchronizes table with the fields of T.
func Open[T any](ctx context.Context, dir, table string, opts ...Option) (*DB[T], error) {
	cfg, s, err := prepare[T](table, opts)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("aiodb: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, table+".db")
	pool, err := sqlite.Open(sqlite.FileDSN(path))
	if err != nil {
		return nil, fmt.Errorf("aiodb: open %s: %w", path, err)
	}
	if cfg.maxOpen > 0 {
		pool.SetMaxOpenConns(cfg.maxOpen)
	}
	cfg.logger.Debugw("Opened database file", "path", path, "driver", sqlite.DriverName())
	return attach[T](ctx, pool, true, table, s, cfg)
}

// OpenInMemory opens a fresh in-memory database holding table. The data is
// discarded by Close.
func OpenInMemory[T any](ctx context.Context, table string, opts ...Option) (*DB[T], error) {
	cfg, s, err := prepare[T](table, opts)
	if err != nil {
		return nil, err
	}
	dsn := sqlite.MemoryDSN()
	pool, err := sqlite.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("aiodb: open in-memory database: %w", err)
	}
	// The database lives as long as its last connection.
	pool.SetMaxOpenConns(1)
	pool.SetConnMaxIdleTime(0)
	pool.SetConnMaxLifetime(0)
	cfg.logger.Debugw("Opened in-memory database", "dsn", dsn, "driver", sqlite.DriverName())
	return attach[T](ctx, pool, true, table, s, cfg)
}

// New synchronizes table in a caller-owned pool. Close does not close pool.
func New[T any](ctx context.Context, pool *sql.DB, table string, opts ...Option) (*DB[T], error) {
	cfg, s, err := prepare[T](table, opts)
	if err != nil {
		return nil, err
	}
	return attach[T](ctx, pool, false, table, s, cfg)
}

// MustOpen is like Open but panics on error.
func MustOpen[T any](ctx context.Context, dir, table string, opts ...Option) *DB[T] {
	db, err := Open[T](ctx, dir, table, opts...)
	if err != nil {
		panic(err)
	}
	return db
}

// MustOpenInMemory is like OpenInMemory but panics on error.
func MustOpenInMemory[T any](ctx context.Context, table string, opts ...Option) *DB[T] {
	db, err := OpenInMemory[T](ctx, table, opts...)
	if err != nil {
		panic(err)
	}
	return db
}

func prepare[T any](table string, opts []Option) (*config, Schema, error) {
	if err := validateName("table", table); err != nil {
		return nil, nil, err
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	s, err := SchemaOf[T]()
	if err != nil {
		return nil, nil, err
	}
	return cfg, s, nil
}

func attach[T any](ctx context.Context, pool *sql.DB, owned bool, table string, s Schema, cfg *config) (*DB[T], error) {
	if err := synchronize(ctx, pool, table, s, cfg); err != nil {
		if owned {
			_ = pool.Close()
		}
		return nil, err
	}
	db := &DB[T]{
		name:   table,
		schema: s,
		pool:   pool,
		owned:  owned,
		delay:  cfg.delay,
		log:    cfg.logger.With("table", table),
	}
	db.SetRetries(cfg.retries)
	db.SetWriteMode(cfg.mode)
	return db, nil
}

// Name returns the table name.
func (db *DB[T]) Name() string { return db.name }

// Schema returns a copy of the schema derived from T.
func (db *DB[T]) Schema() Schema { return db.schema.clone() }

// Retries returns how many attempts each write makes.
func (db *DB[T]) Retries() int { return int(db.retries.Load()) }

// SetRetries changes how many attempts each write makes. Values below 1 are
// treated as 1.
func (db *DB[T]) SetRetries(n int) {
	if n < 1 {
		n = 1
	}
	db.retries.Store(int64(n))
}

// SetWriteMode changes how subsequent writes are executed.
func (db *DB[T]) SetWriteMode(m WriteMode) { db.mode.Store(int32(m)) }

func (db *DB[T]) writeMode() WriteMode { return WriteMode(db.mode.Load()) }

// Insert appends v as a new row.
func (db *DB[T]) Insert(ctx context.Context, v T) error {
	q, err := insertSQL(db.name, db.values(v))
	if err != nil {
		return err
	}
	_, err = db.write(ctx, "insert", q)
	return err
}

// Query starts a builder with no filter terms.
func (db *DB[T]) Query() QueryBuilder[T] {
	return QueryBuilder[T]{db: db}
}

// CreateIndex creates a non-unique index named name over columns. It is a
// no-op if an index of that name exists.
func (db *DB[T]) CreateIndex(ctx context.Context, name string, columns ...string) error {
	return db.createIndex(ctx, name, false, columns)
}

// CreateUniqueIndex is like CreateIndex but the index enforces uniqueness;
// later writes that would duplicate a key fail.
func (db *DB[T]) CreateUniqueIndex(ctx context.Context, name string, columns ...string) error {
	return db.createIndex(ctx, name, true, columns)
}

func (db *DB[T]) createIndex(ctx context.Context, name string, unique bool, columns []string) error {
	q, err := createIndexSQL(db.name, name, unique, columns, db.schema)
	if err != nil {
		return err
	}
	_, err = db.write(ctx, "create index", q)
	return err
}

// DropIndex removes the named index if it exists.
func (db *DB[T]) DropIndex(ctx context.Context, name string) error {
	q, err := dropIndexSQL(name)
	if err != nil {
		return err
	}
	_, err = db.write(ctx, "drop index", q)
	return err
}

// Close releases the pool if DB opened it. For in-memory databases this
// discards the data.
func (db *DB[T]) Close() error {
	if !db.owned {
		return nil
	}
	return db.pool.Close()
}

func (db *DB[T]) logged(q string) string {
	db.log.Debugw("Executing statement", "sql", q)
	return q
}

func (db *DB[T]) values(v T) []GenericValue {
	return valuesOf(db.schema, reflect.ValueOf(&v).Elem())
}

// write executes q under the retry policy and returns the affected row
// count of the successful attempt.
func (db *DB[T]) write(ctx context.Context, op, q string) (int64, error) {
	db.logged(q)
	mode := db.writeMode()
	var res sql.Result
	err := retry(ctx, db.log, op, db.Retries(), db.delay, func(ctx context.Context) error {
		var err error
		if mode == WriteConcurrent {
			res, err = execConcurrent(ctx, db.pool, q)
		} else {
			res, err = execDirect(ctx, db.pool, q)
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	// Both drivers always report affected rows.
	n, _ := res.RowsAffected()
	return n, nil
}
