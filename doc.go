/*
Package aiodb stores Go structs in SQLite tables without hand-written SQL or
migrations. A DB[T] owns one table whose columns mirror the fields of T; you
insert values of T and read them back through a small filter builder.

# Overview

	type Person struct {
		Name    string
		Age     int
		Married bool
	}

	db, err := aiodb.Open[Person](ctx, "data", "people")
	...
	err = db.Insert(ctx, Person{Name: "Ada", Age: 36})
	adults, err := db.Query().Field("age").WhereIs(aiodb.Ge(18)).GetMany(ctx)

Open derives the schema of T once, creates the table if it is missing and
otherwise reconciles it: columns T gained are added, columns T lost are
dropped. A column whose type changed under the same name is left as is.

# Mapping rules

  - Columns are named by `db:"name"` first, otherwise by the Go field name.
  - `db:"-"` omits a field; unexported fields are ignored.
  - Embedded structs and `db:",inline"` fields are flattened.
  - bool, integers, float32, float64, string, Char and []byte are supported.
    Anything else is rejected at open time with ErrUnsupportedType; encode it
    into a []byte field with EncodeBytes.
  - Rows decode by column name, falling back to position. A cell that cannot
    be converted leaves the field at its zero value.

# Filters

Builders are values. Field(...).WhereIs(op) returns a new builder with one
more term; terms are joined with And unless Or is passed. Rows come back in
insertion order. Eq, Ne, Gt, Lt, Ge and Le compare; Contains, StartsWith and
EndsWith match literal text (% and _ in the operand are not wildcards).

# Writes

Writes are retried with a constant delay (WithRetries, WithRetryDelay). When
every attempt fails the error is a *RetryError, which matches
ErrRetriesExhausted. WithWriteMode(WriteConcurrent) wraps each write in
BEGIN IMMEDIATE ... COMMIT on a pinned connection.

# Engine

The default driver is the pure Go modernc.org/sqlite. Build with
-tags cgo_sqlite to link github.com/mattn/go-sqlite3 instead; see package
sqlite.

# Error handling

  - GetOne returns ErrNotFound when nothing matches; GetMany returns an empty
    slice.
  - Declaration mistakes (unknown field, bad name, unsupported type) are
    *ConfigError values and are never retried.
  - Reads run once and return driver errors as is.
*/
package aiodb
