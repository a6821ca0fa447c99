package aiodb

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
)

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateName(kind, name string) error {
	if !namePattern.MatchString(name) {
		return configErrorf(ErrInvalidName, "%s name %q must match %s", kind, name, namePattern)
	}
	return nil
}

// Column is one column of a live table as declared in its stored DDL.
type Column struct {
	Name     string `json:"name"`
	Declared string `json:"declared"` // declared type keyword, e.g. INTEGER; "" when untyped
}

// TableColumns reads the stored CREATE TABLE text of table from sqlite_master
// and parses its column list. ok is false when the table does not exist.
func TableColumns(ctx context.Context, q Querier, table string) (cols []Column, ok bool, err error) {
	ddl, ok, err := tableDDL(ctx, q, table)
	if err != nil || !ok {
		return nil, ok, err
	}
	return parseTableColumns(ddl), true, nil
}

func tableDDL(ctx context.Context, q Querier, table string) (ddl string, ok bool, err error) {
	rows, err := q.QueryContext(ctx,
		`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE`, table)
	if err != nil {
		return "", false, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if !rows.Next() {
		return "", false, rows.Err()
	}
	var s sql.NullString
	if err := rows.Scan(&s); err != nil {
		return "", false, err
	}
	if !s.Valid {
		return "", false, errors.New("aiodb: table " + table + " has no stored DDL")
	}
	return s.String, true, nil
}

// parseTableColumns extracts the column list of a single CREATE TABLE
// statement as SQLite stores it: the text between the first '(' and its
// matching ')', split on top-level commas. Each entry's first token is the
// column name and the second its declared type. Table constraints are
// skipped. This is not a general DDL parser.
func parseTableColumns(ddl string) []Column {
	body, ok := parenBody(ddl)
	if !ok {
		return nil
	}
	var out []Column
	for _, entry := range splitTopLevel(body) {
		toks := fieldsQuoted(entry)
		if len(toks) == 0 {
			continue
		}
		if isTableConstraint(toks[0]) {
			continue
		}
		c := Column{Name: unquoteIdent(toks[0])}
		if len(toks) > 1 {
			c.Declared = strings.ToUpper(toks[1])
		}
		out = append(out, c)
	}
	return out
}

func parenBody(s string) (string, bool) {
	start := strings.IndexByte(s, '(')
	if start < 0 {
		return "", false
	}
	depth := 0
	var quote byte
	for i := start; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '`', '\'':
			quote = c
		case '[':
			quote = ']'
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[start+1 : i], true
			}
		}
	}
	return "", false
}

func splitTopLevel(s string) []string {
	var (
		out   []string
		depth int
		quote byte
		last  int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '`', '\'':
			quote = c
		case '[':
			quote = ']'
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[last:i]))
				last = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[last:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

// fieldsQuoted splits on whitespace, keeping quoted identifiers whole.
func fieldsQuoted(s string) []string {
	var (
		out   []string
		quote byte
		start = -1
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case c == '"' || c == '`' || c == '[':
			if start < 0 {
				start = i
			}
			quote = c
			if c == '[' {
				quote = ']'
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
		default:
			if start >= 0 {
				continue
			}
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

func isTableConstraint(tok string) bool {
	switch strings.ToUpper(tok) {
	case "CONSTRAINT", "PRIMARY", "UNIQUE", "CHECK", "FOREIGN":
		return true
	}
	return false
}

// ---------------- DDL text ----------------

func createTableSQL(table string, s Schema) (string, error) {
	if len(s) == 0 {
		return "", configErrorf(ErrNoColumns, "table %s", table)
	}
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(quoteIdent(table))
	b.WriteString(" (")
	for i, f := range s {
		typ := f.Type.SQLType()
		if typ == "" {
			return "", configErrorf(ErrUnsupportedType, "column %s has no SQL type", f.Name)
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(f.Name))
		b.WriteByte(' ')
		b.WriteString(typ)
	}
	b.WriteByte(')')
	return b.String(), nil
}

func addColumnSQL(table string, f SchemaField) (string, error) {
	typ := f.Type.SQLType()
	if typ == "" {
		return "", configErrorf(ErrUnsupportedType, "column %s has no SQL type", f.Name)
	}
	return "ALTER TABLE " + quoteIdent(table) + " ADD COLUMN " + quoteIdent(f.Name) + " " + typ, nil
}

func dropColumnSQL(table, column string) string {
	return "ALTER TABLE " + quoteIdent(table) + " DROP COLUMN " + quoteIdent(column)
}
