package aiodb

import (
	"context"
	"strings"
)

// OpKind names a filter operator, inspired by OData filter queries.
type OpKind uint8

const (
	OpEq         OpKind = iota + 1 // equal
	OpNe                           // not equal
	OpGt                           // greater than
	OpLt                           // less than
	OpGe                           // greater or equal
	OpLe                           // less or equal
	OpContains                     // substring anywhere
	OpStartsWith                   // literal prefix
	OpEndsWith                     // literal suffix
)

var opSQL = [...]string{
	OpEq: "==",
	OpNe: "<>",
	OpGt: ">",
	OpLt: "<",
	OpGe: ">=",
	OpLe: "<=",
}

// Operator is one comparison with its operand in string form. Build it with
// Eq, Ne, Gt, Lt, Ge, Le, Contains, StartsWith or EndsWith.
type Operator struct {
	Kind    OpKind
	Operand string
}

func Eq(v any) Operator         { return Operator{OpEq, operandString(v)} }
func Ne(v any) Operator         { return Operator{OpNe, operandString(v)} }
func Gt(v any) Operator         { return Operator{OpGt, operandString(v)} }
func Lt(v any) Operator         { return Operator{OpLt, operandString(v)} }
func Ge(v any) Operator         { return Operator{OpGe, operandString(v)} }
func Le(v any) Operator         { return Operator{OpLe, operandString(v)} }
func Contains(v any) Operator   { return Operator{OpContains, operandString(v)} }
func StartsWith(v any) Operator { return Operator{OpStartsWith, operandString(v)} }
func EndsWith(v any) Operator   { return Operator{OpEndsWith, operandString(v)} }

// Next joins a predicate to the one that follows it.
type Next uint8

const (
	And Next = iota
	Or
)

func (n Next) String() string {
	if n == Or {
		return "OR"
	}
	return "AND"
}

// QueryOption is one filter term.
type QueryOption struct {
	Field string
	Op    Operator
	Next  Next
}

// QueryBuilder accumulates filter terms for the table of a DB. Builders are
// values: every WhereIs returns a new builder and leaves the receiver as it
// was, so a partially built filter can be reused.
//
//	adults := db.Query().Field("age").WhereIs(aiodb.Ge(18))
//	married, err := adults.Field("married").WhereIs(aiodb.Eq(true)).GetMany(ctx)
//	total, err := adults.Count(ctx)
type QueryBuilder[T any] struct {
	db      *DB[T]
	options []QueryOption
}

// FieldFilter is the attachment point returned by Field.
type FieldFilter[T any] struct {
	b    QueryBuilder[T]
	name string
}

// Field starts a filter term on the named column.
func (b QueryBuilder[T]) Field(name string) FieldFilter[T] {
	return FieldFilter[T]{b: b, name: name}
}

// WhereIs completes the term with op. next joins it to the following term
// and defaults to And; it is ignored on the last term.
func (f FieldFilter[T]) WhereIs(op Operator, next ...Next) QueryBuilder[T] {
	n := And
	if len(next) > 0 {
		n = next[0]
	}
	opts := make([]QueryOption, len(f.b.options), len(f.b.options)+1)
	copy(opts, f.b.options)
	opts = append(opts, QueryOption{Field: f.name, Op: op, Next: n})
	return QueryBuilder[T]{db: f.b.db, options: opts}
}

// Clear drops every filter term.
func (b *QueryBuilder[T]) Clear() { b.options = nil }

// Options returns a copy of the accumulated terms.
func (b QueryBuilder[T]) Options() []QueryOption {
	return append([]QueryOption(nil), b.options...)
}

// whereClause renders the terms against s: every term but the last is
// followed by its AND/OR continuation. It returns "" for no terms.
func whereClause(s Schema, opts []QueryOption) (string, error) {
	var b strings.Builder
	for i, o := range opts {
		f, ok := s.Lookup(o.Field)
		if !ok {
			return "", configErrorf(ErrUnknownField, "%q in filter", o.Field)
		}
		b.WriteString(quoteIdent(f.Name))
		b.WriteByte(' ')
		switch o.Op.Kind {
		case OpEq, OpNe, OpGt, OpLt, OpGe, OpLe:
			b.WriteString(opSQL[o.Op.Kind])
			b.WriteByte(' ')
			b.WriteString(operandLiteral(f.Type, o.Op.Operand))
		case OpContains:
			b.WriteString("LIKE ")
			b.WriteString(likePattern(o.Op.Operand, true, true))
		case OpStartsWith:
			b.WriteString("LIKE ")
			b.WriteString(likePattern(o.Op.Operand, false, true))
		case OpEndsWith:
			b.WriteString("LIKE ")
			b.WriteString(likePattern(o.Op.Operand, true, false))
		default:
			return "", configErrorf(ErrInvalidOperator, "kind %d on %q", o.Op.Kind, o.Field)
		}
		if i < len(opts)-1 {
			b.WriteByte(' ')
			b.WriteString(o.Next.String())
			b.WriteByte(' ')
		}
	}
	return b.String(), nil
}

func (b QueryBuilder[T]) where() (string, error) {
	return whereClause(b.db.schema, b.options)
}

// GetOne returns the first matching row in insertion order, or ErrNotFound
// when nothing matches. The read runs once; failures are returned as is.
func (b QueryBuilder[T]) GetOne(ctx context.Context) (T, error) {
	var zero T
	w, err := b.where()
	if err != nil {
		return zero, err
	}
	return queryOne[T](ctx, b.db.pool, b.db.logged(selectSQL(b.db.name, w, 1)))
}

// GetMany returns every matching row in insertion order. No match yields an
// empty, non-nil slice; a nil slice always comes with an error.
func (b QueryBuilder[T]) GetMany(ctx context.Context) ([]T, error) {
	w, err := b.where()
	if err != nil {
		return nil, err
	}
	return queryMany[T](ctx, b.db.pool, b.db.logged(selectSQL(b.db.name, w, 0)))
}

// Update overwrites every column of the matching rows with v and returns the
// number of rows affected. Without terms every row is updated.
func (b QueryBuilder[T]) Update(ctx context.Context, v T) (int64, error) {
	w, err := b.where()
	if err != nil {
		return 0, err
	}
	q, err := updateSQL(b.db.name, b.db.values(v), w)
	if err != nil {
		return 0, err
	}
	return b.db.write(ctx, "update", q)
}

// PartialUpdate sets one column of the matching rows. A string value is
// interpreted in string form for the column's type ("5" for an integer
// column); other values are encoded natively.
func (b QueryBuilder[T]) PartialUpdate(ctx context.Context, field string, value any) (int64, error) {
	f, ok := b.db.schema.Lookup(field)
	if !ok {
		return 0, configErrorf(ErrUnknownField, "%q in partial update", field)
	}
	lit, err := literalFor(f, value)
	if err != nil {
		return 0, err
	}
	w, err := b.where()
	if err != nil {
		return 0, err
	}
	return b.db.write(ctx, "partial update", partialUpdateSQL(b.db.name, f.Name, lit, w))
}

// Delete removes the matching rows and returns how many were removed.
func (b QueryBuilder[T]) Delete(ctx context.Context) (int64, error) {
	w, err := b.where()
	if err != nil {
		return 0, err
	}
	return b.db.write(ctx, "delete", deleteSQL(b.db.name, w))
}

// Count returns the number of matching rows.
func (b QueryBuilder[T]) Count(ctx context.Context) (uint64, error) {
	w, err := b.where()
	if err != nil {
		return 0, err
	}
	return queryCount(ctx, b.db.pool, b.db.logged(countSQL(b.db.name, w)))
}

// Any reports whether at least one row matches.
func (b QueryBuilder[T]) Any(ctx context.Context) (bool, error) {
	n, err := b.Count(ctx)
	return n > 0, err
}

// All reports whether every row of the table matches. It compares the
// filtered count with the table's total count using two independent reads,
// so a concurrent writer between them can make the answer stale. An empty
// table reports true.
func (b QueryBuilder[T]) All(ctx context.Context) (bool, error) {
	matched, err := b.Count(ctx)
	if err != nil {
		return false, err
	}
	total, err := queryCount(ctx, b.db.pool, b.db.logged(countSQL(b.db.name, "")))
	if err != nil {
		return false, err
	}
	return matched == total, nil
}
