package aiodb

import (
	"reflect"
)

// SchemaOf derives the schema of struct type T.
//
// Column names come from the `db:"name"` tag, otherwise the Go field name is
// used as declared. Tag rules match database/sql mappers:
//
//   - `db:"-"` omits the field.
//   - Unexported fields are ignored.
//   - Anonymous struct fields, and fields tagged `db:",inline"`, are flattened
//     in place.
//
// Supported field kinds are bool, signed and unsigned integers, float32,
// float64, string, Char and []byte (including named types over these). Any
// other kind returns a *ConfigError wrapping ErrUnsupportedType; store nested
// values as []byte via EncodeBytes instead.
func SchemaOf[T any]() (Schema, error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	s, err := getMapper().schema(rt)
	if err != nil {
		return nil, err
	}
	return s.clone(), nil
}

func (m *rowMapper) schema(rt reflect.Type) (Schema, error) {
	if v, ok := m.schemaCache.Load(rt); ok {
		return v.(Schema), nil
	}
	s, err := buildSchema(rt)
	if err != nil {
		return nil, err
	}
	m.schemaCache.Store(rt, s)
	return s, nil
}

func buildSchema(rt reflect.Type) (Schema, error) {
	if rt.Kind() != reflect.Struct {
		return nil, configErrorf(ErrUnsupportedType, "%s is not a struct", rt)
	}

	var (
		out  Schema
		seen = make(map[string]struct{})
	)

	var walk func(t reflect.Type, base []int) error
	walk = func(t reflect.Type, base []int) error {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if sf.PkgPath != "" && !sf.Anonymous { // unexported, non-anonymous
				continue
			}
			tag := sf.Tag.Get("db")
			name, inline, omit := parseTag(tag)
			if omit {
				continue
			}
			ft := sf.Type
			path := append(append([]int(nil), base...), i)

			if (inline || (sf.Anonymous && tag == "")) && ft.Kind() == reflect.Struct {
				if err := walk(ft, path); err != nil {
					return err
				}
				continue
			}
			if sf.PkgPath != "" { // unexported embedded non-struct
				continue
			}

			lt := classify(ft)
			if lt == TypeInvalid {
				return configErrorf(ErrUnsupportedType, "%s.%s has type %s", rt, sf.Name, ft)
			}
			if name == "" {
				name = sf.Name
			}
			lc := toLowerAscii(name)
			if _, dup := seen[lc]; dup {
				return configErrorf(ErrInvalidName, "%s: duplicate column %q", rt, name)
			}
			seen[lc] = struct{}{}
			out = append(out, SchemaField{Name: name, Type: lt, index: path})
		}
		return nil
	}
	if err := walk(rt, nil); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, configErrorf(ErrNoColumns, "%s has no mapped fields", rt)
	}
	return out, nil
}

// parseTag supports: "-", "col", ",inline", "col,inline", "inline,col".
func parseTag(tag string) (name string, inline bool, omit bool) {
	if tag == "-" {
		return "", false, true
	}
	if tag == "" {
		return "", false, false
	}
	start := 0
	for i := 0; i <= len(tag); i++ {
		if i == len(tag) || tag[i] == ',' {
			part := tag[start:i]
			if part == "inline" {
				inline = true
			} else if part != "" && name == "" {
				name = part
			}
			start = i + 1
		}
	}
	return name, inline, false
}

// valuesOf returns one GenericValue per schema field of v.
func valuesOf(s Schema, v reflect.Value) []GenericValue {
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	out := make([]GenericValue, len(s))
	for i, f := range s {
		out[i] = GenericValue{Name: f.Name, Type: f.Type, Value: v.FieldByIndex(f.index)}
	}
	return out
}
