package aiodb

import (
	"errors"
	"fmt"
)

// ErrUnsupportedType is returned when a mapped struct declares a field whose
// kind has no logical type. Store such values as []byte (see EncodeBytes).
var ErrUnsupportedType = errors.New("aiodb: unsupported field type")

// ErrUnknownField is returned when a filter, partial update or index names a
// column that is not part of the mapped type's schema.
var ErrUnknownField = errors.New("aiodb: unknown field")

// ErrInvalidOperator is returned for an Operator not built by one of the
// operator constructors.
var ErrInvalidOperator = errors.New("aiodb: invalid operator")

// ErrInvalidName is returned for table or index names that are not plain
// identifiers ([A-Za-z_][A-Za-z0-9_]*).
var ErrInvalidName = errors.New("aiodb: invalid name")

// ErrNoColumns is returned when a mapped type yields an empty schema or an
// index is requested without columns.
var ErrNoColumns = errors.New("aiodb: no columns")

// ErrNotFound is returned by GetOne when the query matched no rows.
var ErrNotFound = errors.New("aiodb: no matching row")

// ErrRetriesExhausted matches every *RetryError via errors.Is.
var ErrRetriesExhausted = errors.New("aiodb: retries exhausted")

// ConfigError reports a mistake in how a type, filter or index is declared.
// Configuration errors are never retried.
type ConfigError struct {
	Kind   error  // one of the Err* sentinels above
	Detail string // offending type, field or name
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Detail)
}

func (e *ConfigError) Unwrap() error { return e.Kind }

func configErrorf(kind error, format string, args ...any) error {
	return &ConfigError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// RetryError is returned by write operations once every attempt failed.
type RetryError struct {
	Op       string // insert, update, partial update, delete, create index, ...
	Attempts int
	Err      error // last failure reported by the engine
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("aiodb: %s failed after %d attempts (raise the retry count or reduce concurrent writers): %v",
		e.Op, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrRetriesExhausted) match.
func (e *RetryError) Is(target error) bool { return target == ErrRetriesExhausted }
