package molecule

import "fmt"

// Record is the value type of struct and table codecs: field name to field
// value. Encoding ignores keys that are not part of the schema; a key that is
// missing (or holds nil) is only accepted for Option fields.
type Record map[string]any

// FieldDef names one field of a struct, table or union variant.
type FieldDef struct {
	Name  string
	codec anyCodec
}

// Field declares a named field backed by c.
func Field[E, D any](name string, c Codec[E, D]) FieldDef {
	return FieldDef{Name: name, codec: c}
}

// Get extracts field name from a decoded record as T.
func Get[T any](r Record, name string) (T, error) {
	var zero T
	v, ok := r[name]
	if !ok {
		return zero, fmt.Errorf("molecule: record has no field %q", name)
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("molecule: field %q is %T, not %s", name, v, typeName[T]())
	}
	return t, nil
}
