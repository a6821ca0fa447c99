package aiodb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// JournalMode is a value for PRAGMA journal_mode.
type JournalMode string

const (
	JournalWAL      JournalMode = "WAL"
	JournalDelete   JournalMode = "DELETE"
	JournalTruncate JournalMode = "TRUNCATE"
	JournalPersist  JournalMode = "PERSIST"
	JournalMemory   JournalMode = "MEMORY"
	JournalOff      JournalMode = "OFF"
)

func (m JournalMode) valid() bool {
	switch m.upper() {
	case JournalWAL, JournalDelete, JournalTruncate, JournalPersist, JournalMemory, JournalOff:
		return true
	}
	return false
}

func (m JournalMode) upper() JournalMode { return JournalMode(strings.ToUpper(string(m))) }

// ReadJournalMode returns the journal mode the engine reports on q.
func ReadJournalMode(ctx context.Context, q Querier) (JournalMode, error) {
	mode, err := pragmaText(ctx, q, "PRAGMA journal_mode")
	if err != nil {
		return "", fmt.Errorf("aiodb: read journal mode: %w", err)
	}
	return JournalMode(mode).upper(), nil
}

// ApplyJournalMode switches the database behind q to mode. The engine may
// refuse a switch (an in-memory database only supports MEMORY and OFF); that
// is reported as an error naming the mode the engine kept.
func ApplyJournalMode(ctx context.Context, q Querier, mode JournalMode) error {
	if !mode.valid() {
		return configErrorf(ErrInvalidName, "journal mode %q", mode)
	}
	want := mode.upper()
	got, err := pragmaText(ctx, q, "PRAGMA journal_mode = "+string(want))
	if err != nil {
		return fmt.Errorf("aiodb: set journal mode %s: %w", want, err)
	}
	if JournalMode(got).upper() != want {
		return fmt.Errorf("aiodb: set journal mode %s: engine kept %s", want, JournalMode(got).upper())
	}
	return nil
}

func pragmaText(ctx context.Context, q Querier, query string) (s string, err error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if !rows.Next() {
		if ne := rows.Err(); ne != nil {
			return "", ne
		}
		return "", sql.ErrNoRows
	}
	if err := rows.Scan(&s); err != nil {
		return "", err
	}
	return s, nil
}

// JournalMode returns the journal mode of the database holding the table.
func (db *DB[T]) JournalMode(ctx context.Context) (JournalMode, error) {
	db.logged("PRAGMA journal_mode")
	return ReadJournalMode(ctx, db.pool)
}

// SetJournalMode switches the database holding the table to mode. See
// ApplyJournalMode.
func (db *DB[T]) SetJournalMode(ctx context.Context, mode JournalMode) error {
	db.logged("PRAGMA journal_mode = " + string(mode.upper()))
	if err := ApplyJournalMode(ctx, db.pool, mode); err != nil {
		return err
	}
	db.log.Infow("Journal mode changed", "mode", mode.upper())
	return nil
}
