package aiodb

import "reflect"

// LogicalType classifies a mapped field. It drives DDL, literal encoding and
// row decoding.
type LogicalType uint8

const (
	TypeInvalid LogicalType = iota
	TypeBool
	TypeUint // uint, uint8, uint16, uint32, uint64
	TypeInt  // int, int8, int16, int32, int64
	TypeFloat32
	TypeFloat64
	TypeChar // Char
	TypeString
	TypeBytes // []byte and named byte slices
)

var logicalTypeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeUint:    "uint",
	TypeInt:     "int",
	TypeFloat32: "float32",
	TypeFloat64: "float64",
	TypeChar:    "char",
	TypeString:  "string",
	TypeBytes:   "bytes",
}

func (t LogicalType) String() string {
	if int(t) < len(logicalTypeNames) {
		return logicalTypeNames[t]
	}
	return "invalid"
}

// SQLType returns the column type keyword used in CREATE TABLE and
// ALTER TABLE ADD COLUMN. It returns "" for TypeInvalid.
func (t LogicalType) SQLType() string {
	switch t {
	case TypeBool, TypeUint, TypeInt:
		return "INTEGER"
	case TypeFloat32, TypeFloat64:
		return "REAL"
	case TypeChar, TypeString:
		return "TEXT"
	case TypeBytes:
		return "BLOB"
	}
	return ""
}

func (t LogicalType) numeric() bool {
	switch t {
	case TypeUint, TypeInt, TypeFloat32, TypeFloat64:
		return true
	}
	return false
}

// Char is a single character column. Go has no distinct char kind (rune is
// int32), so fields that should be stored as one-character TEXT use Char.
type Char rune

var (
	charType  = reflect.TypeOf(Char(0))
	bytesType = reflect.TypeOf([]byte(nil))
)

// SchemaField describes one column of a mapped table.
type SchemaField struct {
	Name string
	Type LogicalType

	index []int // struct field path, nil for parsed schemas
}

// Schema is the ordered column list of a mapped type, in declaration order.
type Schema []SchemaField

// Lookup finds a field by column name. SQLite identifiers are
// case-insensitive, so the match is too.
func (s Schema) Lookup(name string) (SchemaField, bool) {
	lc := toLowerAscii(name)
	for _, f := range s {
		if toLowerAscii(f.Name) == lc {
			return f, true
		}
	}
	return SchemaField{}, false
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Name
	}
	return out
}

func (s Schema) clone() Schema {
	out := make(Schema, len(s))
	copy(out, s)
	return out
}

// GenericValue is one (name, value, type) triple of a concrete instance,
// produced for INSERT and UPDATE statements.
type GenericValue struct {
	Name  string
	Type  LogicalType
	Value reflect.Value
}

// classify maps a Go type to its logical type.
func classify(t reflect.Type) LogicalType {
	if t == charType {
		return TypeChar
	}
	switch t.Kind() {
	case reflect.Bool:
		return TypeBool
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeUint
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return TypeInt
	case reflect.Float32:
		return TypeFloat32
	case reflect.Float64:
		return TypeFloat64
	case reflect.String:
		return TypeString
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return TypeBytes
		}
	}
	return TypeInvalid
}
