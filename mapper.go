package aiodb

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

// rowMapper owns the schema and plan caches.
type rowMapper struct {
	planCache   sync.Map // key: planKey -> *plan   (per (T, column-set))
	schemaCache sync.Map // key: reflect.Type -> Schema (per T)
}

func newRowMapper() *rowMapper { return &rowMapper{} }

// --- package-level lazy global mapper ---

var (
	defaultMapper *rowMapper
	mapperOnce    sync.Once
)

func getMapper() *rowMapper {
	mapperOnce.Do(func() { defaultMapper = newRowMapper() })
	return defaultMapper
}

// scanRow decodes the *current row* into T. Cells are read as raw driver
// values and coerced per logical type; a cell that is missing or cannot be
// converted leaves the field at its zero value.
func scanRow[T any](m *rowMapper, rows *sql.Rows) (T, error) {
	var zero T

	cols, err := rows.Columns()
	if err != nil {
		return zero, err
	}
	if len(cols) == 0 {
		return zero, fmt.Errorf("aiodb: query returned zero columns")
	}

	// Normalize & hash columns
	h := fnv.New64a()
	for i := range cols {
		cols[i] = normalizeColAscii(cols[i])
		_, _ = h.Write([]byte(cols[i]))
		_, _ = h.Write([]byte{0})
	}
	colHash := h.Sum64()

	rt := reflect.TypeOf((*T)(nil)).Elem()
	pl, err := m.getPlan(rt, cols, colHash)
	if err != nil {
		return zero, err
	}

	cells := make([]any, len(cols))
	dests := make([]any, len(cols))
	for i := range cells {
		dests[i] = &cells[i]
	}
	if err := rows.Scan(dests...); err != nil {
		return zero, err
	}

	rv := reflect.New(rt).Elem()
	for _, st := range pl.steps {
		if st.col < 0 {
			continue
		}
		decodeCell(st.field.Type, rv.FieldByIndex(st.field.index), cells[st.col])
	}
	return rv.Interface().(T), nil
}

// ---------------- Planning & caches ----------------

type planKey struct {
	rt    reflect.Type
	hash  uint64 // FNV-1a of normalized columns
	ncols int
}

type plan struct {
	rt    reflect.Type
	steps []step // one per schema field
}

type step struct {
	field SchemaField
	col   int // result column index, -1 when absent
}

func (m *rowMapper) getPlan(rt reflect.Type, cols []string, colHash uint64) (*plan, error) {
	key := planKey{rt: rt, hash: colHash, ncols: len(cols)}
	if v, ok := m.planCache.Load(key); ok {
		return v.(*plan), nil
	}

	s, err := m.schema(rt)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, ok := byName[c]; !ok {
			byName[c] = i
		}
	}

	p := &plan{rt: rt, steps: make([]step, len(s))}
	for i, f := range s {
		col, ok := byName[toLowerAscii(f.Name)]
		if !ok {
			// Positional fallback: the table mirrors declaration order.
			col = -1
			if i < len(cols) {
				col = i
			}
		}
		p.steps[i] = step{field: f, col: col}
	}

	m.planCache.Store(key, p)
	return p, nil
}

// ---------------- Cell decoding ----------------

// decodeCell assigns src to dst according to lt. It never fails: values that
// cannot be converted leave dst untouched (zero).
func decodeCell(lt LogicalType, dst reflect.Value, src any) {
	if src == nil {
		return
	}
	switch lt {
	case TypeBool:
		if b, ok := asBool(src); ok {
			dst.SetBool(b)
		}
	case TypeInt:
		if n, ok := asInt(src); ok {
			dst.SetInt(n)
		}
	case TypeUint:
		if n, ok := asInt(src); ok {
			dst.SetUint(uint64(n))
		} else if u, ok := asUint(src); ok {
			dst.SetUint(u)
		}
	case TypeFloat32, TypeFloat64:
		if f, ok := asFloat(src); ok {
			dst.SetFloat(f)
		}
	case TypeChar:
		if s, ok := asString(src); ok && s != "" {
			r, _ := utf8.DecodeRuneInString(s)
			dst.SetInt(int64(r))
		}
	case TypeString:
		if s, ok := asString(src); ok {
			dst.SetString(s)
		}
	case TypeBytes:
		if p, ok := asBytes(src); ok {
			dst.Set(reflect.ValueOf(p).Convert(dst.Type()))
		}
	}
}

func asBool(src any) (bool, bool) {
	switch v := src.(type) {
	case bool:
		return v, true
	case int64:
		return v != 0, true
	case float64:
		return v != 0, true
	case string:
		return parseBoolText(v)
	case []byte:
		return parseBoolText(string(v))
	}
	return false, false
}

func parseBoolText(s string) (bool, bool) {
	s = strings.TrimSpace(s)
	if b, err := strconv.ParseBool(s); err == nil {
		return b, true
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n != 0, true
	}
	return false, false
}

func asInt(src any) (int64, bool) {
	switch v := src.(type) {
	case int64:
		return v, true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		return parseIntText(v)
	case []byte:
		return parseIntText(string(v))
	}
	return 0, false
}

func parseIntText(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int64(f), true
	}
	return 0, false
}

func asUint(src any) (uint64, bool) {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return 0, false
	}
	u, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	return u, err == nil
}

func asFloat(src any) (float64, bool) {
	switch v := src.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		return f, err == nil
	}
	return 0, false
}

func asString(src any) (string, bool) {
	switch v := src.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

// asBytes accepts BLOB cells directly. TEXT cells holding hex (as written by
// older tools) are decoded; other text is taken verbatim.
func asBytes(src any) ([]byte, bool) {
	switch v := src.(type) {
	case []byte:
		return append([]byte{}, v...), true
	case string:
		if p, err := hex.DecodeString(v); err == nil {
			return p, true
		}
		return []byte(v), true
	}
	return nil, false
}

// ---------------- Column normalization (ASCII fast-path) ----------------

func normalizeColAscii(s string) string {
	return toLowerAscii(unquoteIdent(s))
}

// unquoteIdent strips one layer of "..", `..` or [..] identifier quoting.
func unquoteIdent(s string) string {
	if l := len(s); l >= 2 {
		switch s[0] {
		case '"':
			if s[l-1] == '"' {
				s = strings.ReplaceAll(s[1:l-1], `""`, `"`)
			}
		case '`':
			if s[l-1] == '`' {
				s = s[1 : l-1]
			}
		case '[':
			if s[l-1] == ']' {
				s = s[1 : l-1]
			}
		case '\'':
			if s[l-1] == '\'' {
				s = s[1 : l-1]
			}
		}
	}
	return s
}

func toLowerAscii(s string) string {
	var need bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			need = true
			break
		}
	}
	if !need {
		return s
	}
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c = c + ('a' - 'A')
		}
		b[i] = c
	}
	return string(b)
}
