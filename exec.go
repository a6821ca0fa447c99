package aiodb

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// WriteMode selects how a write statement is sent to the engine.
type WriteMode int32

const (
	// WriteDirect executes the statement on any pooled connection.
	WriteDirect WriteMode = iota
	// WriteConcurrent pins a connection and brackets the statement in
	// BEGIN IMMEDIATE ... COMMIT. The write lock is taken before the
	// statement runs.
	WriteConcurrent
)

func (m WriteMode) String() string {
	if m == WriteConcurrent {
		return "concurrent"
	}
	return "direct"
}

// retry runs fn until it succeeds, at most attempts times, sleeping delay
// between attempts. When every attempt failed it returns a *RetryError
// carrying the last failure. A cancelled ctx stops the loop and its error is
// returned instead.
func retry(ctx context.Context, log *zap.SugaredLogger, op string, attempts int, delay time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var (
		attempt int
		last    error
	)
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(attempts-1)),
		ctx,
	)
	err := backoff.RetryNotify(func() error {
		attempt++
		last = fn(ctx)
		return last
	}, b, func(err error, wait time.Duration) {
		log.Warnw("Write failed, retrying",
			"op", op, "attempt", attempt, "attempts", attempts, "wait", wait, "error", err)
	})
	if err == nil {
		return nil
	}
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	log.Errorw("Write failed, retries exhausted", "op", op, "attempts", attempts, "error", last)
	return &RetryError{Op: op, Attempts: attempts, Err: last}
}

// execDirect executes a statement that does not return rows on e.
func execDirect(ctx context.Context, e Execer, query string) (sql.Result, error) {
	return e.ExecContext(ctx, query)
}

// execConcurrent executes query inside BEGIN IMMEDIATE ... COMMIT on one
// pinned connection. The transaction holds exactly this one statement.
func execConcurrent(ctx context.Context, c Conner, query string) (res sql.Result, err error) {
	cn, err := c.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cn.Close() }()

	if _, err := cn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return nil, err
	}
	res, err = cn.ExecContext(ctx, query)
	if err == nil {
		_, err = cn.ExecContext(ctx, "COMMIT")
	}
	if err != nil {
		_, _ = cn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
		return nil, err
	}
	return res, nil
}
