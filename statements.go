package aiodb

import (
	"strconv"
	"strings"
)

func withWhere(b *strings.Builder, where string) {
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
}

// selectSQL builds SELECT * for table. Rows come back in rowid (insertion)
// order; limit 0 means no limit.
func selectSQL(table, where string, limit int) string {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(quoteIdent(table))
	withWhere(&b, where)
	b.WriteString(" ORDER BY rowid")
	if limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(limit))
	}
	return b.String()
}

func countSQL(table, where string) string {
	var b strings.Builder
	b.WriteString("SELECT COUNT(*) AS count_total FROM ")
	b.WriteString(quoteIdent(table))
	withWhere(&b, where)
	return b.String()
}

func insertSQL(table string, vals []GenericValue) (string, error) {
	if len(vals) == 0 {
		return "", configErrorf(ErrNoColumns, "insert into %s", table)
	}
	var cols, lits strings.Builder
	for i, v := range vals {
		lit, err := encodeValue(v.Type, v.Value)
		if err != nil {
			return "", err
		}
		if i > 0 {
			cols.WriteString(", ")
			lits.WriteString(", ")
		}
		cols.WriteString(quoteIdent(v.Name))
		lits.WriteString(lit)
	}
	return "INSERT INTO " + quoteIdent(table) + " (" + cols.String() + ") VALUES (" + lits.String() + ")", nil
}

func updateSQL(table string, vals []GenericValue, where string) (string, error) {
	if len(vals) == 0 {
		return "", configErrorf(ErrNoColumns, "update %s", table)
	}
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(quoteIdent(table))
	b.WriteString(" SET ")
	for i, v := range vals {
		lit, err := encodeValue(v.Type, v.Value)
		if err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(v.Name))
		b.WriteString(" = ")
		b.WriteString(lit)
	}
	withWhere(&b, where)
	return b.String(), nil
}

func partialUpdateSQL(table, column, literal, where string) string {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(quoteIdent(table))
	b.WriteString(" SET ")
	b.WriteString(quoteIdent(column))
	b.WriteString(" = ")
	b.WriteString(literal)
	withWhere(&b, where)
	return b.String()
}

func deleteSQL(table, where string) string {
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(quoteIdent(table))
	withWhere(&b, where)
	return b.String()
}

// createIndexSQL validates the index name and every column against s.
func createIndexSQL(table, name string, unique bool, columns []string, s Schema) (string, error) {
	if err := validateName("index", name); err != nil {
		return "", err
	}
	if len(columns) == 0 {
		return "", configErrorf(ErrNoColumns, "index %s", name)
	}
	var b strings.Builder
	b.WriteString("CREATE ")
	if unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX IF NOT EXISTS ")
	b.WriteString(quoteIdent(name))
	b.WriteString(" ON ")
	b.WriteString(quoteIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		f, ok := s.Lookup(c)
		if !ok {
			return "", configErrorf(ErrUnknownField, "%q in index %s", c, name)
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(f.Name))
	}
	b.WriteByte(')')
	return b.String(), nil
}

func dropIndexSQL(name string) (string, error) {
	if err := validateName("index", name); err != nil {
		return "", err
	}
	return "DROP INDEX IF EXISTS " + quoteIdent(name), nil
}
