package aiodb

import (
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// quoteString renders s as a SQL string literal. Every TEXT literal the
// package emits goes through here. The tokenizer ends a statement at a NUL
// byte, so text containing one is spelled as a blob cast to TEXT.
func quoteString(s string) string {
	if strings.IndexByte(s, 0) >= 0 {
		return "CAST(" + hexBlob([]byte(s)) + " AS TEXT)"
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			b.WriteByte('\'')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('\'')
	return b.String()
}

// hexBlob renders p as a SQLite blob literal x'..'. Every BLOB literal the
// package emits goes through here.
func hexBlob(p []byte) string {
	buf := make([]byte, 3+hex.EncodedLen(len(p)))
	buf[0], buf[1] = 'x', '\''
	hex.Encode(buf[2:], p)
	buf[len(buf)-1] = '\''
	return string(buf)
}

// quoteIdent renders a column or table name as a quoted identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func boolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// intLiteral renders n as an integer literal. SQLite parses -N as the
// negation of N, and 9223372036854775808 is out of range, so the minimum is
// written as an expression.
func intLiteral(n int64) string {
	if n == math.MinInt64 {
		return "(-9223372036854775807 - 1)"
	}
	return strconv.FormatInt(n, 10)
}

// uintLiteral stores u as the int64 with the same bits; SQLite integers are
// signed 64-bit, and decodeCell reverses the cast.
func uintLiteral(u uint64) string {
	return intLiteral(int64(u))
}

func floatLiteral(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "NULL"
	case math.IsInf(f, 1):
		return "9e999"
	case math.IsInf(f, -1):
		return "-9e999"
	}
	return strconv.FormatFloat(f, 'g', -1, bitSize)
}

// encodeValue renders one field value as a SQL literal, dispatching on the
// logical type.
func encodeValue(lt LogicalType, v reflect.Value) (string, error) {
	switch lt {
	case TypeBool:
		return boolLiteral(v.Bool()), nil
	case TypeInt:
		return intLiteral(v.Int()), nil
	case TypeUint:
		return uintLiteral(v.Uint()), nil
	case TypeFloat32:
		return floatLiteral(v.Float(), 32), nil
	case TypeFloat64:
		return floatLiteral(v.Float(), 64), nil
	case TypeChar:
		if v.Int() == 0 {
			return "''", nil
		}
		return quoteString(string(rune(v.Int()))), nil
	case TypeString:
		return quoteString(v.String()), nil
	case TypeBytes:
		return hexBlob(v.Bytes()), nil
	}
	return "", configErrorf(ErrUnsupportedType, "cannot encode %s", v.Type())
}

// operandString renders a filter operand in string form. Strings and byte
// slices are used as is.
func operandString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case Char:
		return string(rune(x))
	case bool:
		return strconv.FormatBool(x)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	case reflect.String:
		return rv.String()
	}
	if st, ok := v.(fmt.Stringer); ok {
		return st.String()
	}
	return fmt.Sprint(v)
}

// operandLiteral formats a string-form operand for a column of type lt.
// Numeric and boolean columns get a bare number only when s parses as one;
// anything else becomes a quoted string literal.
func operandLiteral(lt LogicalType, s string) string {
	switch lt {
	case TypeBool:
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return boolLiteral(b)
		}
	case TypeInt:
		t := strings.TrimSpace(s)
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return intLiteral(n)
		}
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return floatLiteral(f, 64)
		}
	case TypeUint:
		t := strings.TrimSpace(s)
		if u, err := strconv.ParseUint(t, 10, 64); err == nil {
			return uintLiteral(u)
		}
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return intLiteral(n)
		}
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return floatLiteral(f, 64)
		}
	case TypeFloat32, TypeFloat64:
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return floatLiteral(f, 64)
		}
	case TypeBytes:
		return hexBlob([]byte(s))
	}
	return quoteString(s)
}

// likePattern builds the LIKE operand for Contains/StartsWith/EndsWith.
// Wildcards inside s are escaped so s matches literally.
func likePattern(s string, prefix, suffix bool) string {
	escaped := false
	if strings.ContainsAny(s, `%_\`) {
		r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
		s = r.Replace(s)
		escaped = true
	}
	if prefix {
		s = "%" + s
	}
	if suffix {
		s += "%"
	}
	lit := quoteString(s)
	if escaped {
		lit += ` ESCAPE '\'`
	}
	return lit
}

// literalFor encodes an arbitrary Go value for a column, used by
// PartialUpdate. Strings follow operand rules, other values are encoded
// natively when their kind matches the column.
func literalFor(f SchemaField, value any) (string, error) {
	switch x := value.(type) {
	case nil:
		return "NULL", nil
	case string:
		return operandLiteral(f.Type, x), nil
	}
	rv := reflect.ValueOf(value)
	vt := classify(rv.Type())
	switch {
	case vt == TypeInvalid:
		return "", configErrorf(ErrUnsupportedType, "cannot store %T in column %s", value, f.Name)
	case vt == f.Type:
		return encodeValue(vt, rv)
	case vt == TypeBool && f.Type.numeric():
		return boolLiteral(rv.Bool()), nil
	case vt == TypeBytes:
		return operandLiteral(f.Type, string(rv.Bytes())), nil
	}
	return operandLiteral(f.Type, operandString(value)), nil
}
