package molecule

import (
	"errors"
	"fmt"
)

// Array builds a codec for exactly n items of a fixed-size codec, laid out
// back to back with no header. A dynamic-size item codec is a schema error.
func Array[E, D any](item Codec[E, D], n int) (Codec[[]E, []D], error) {
	itemSize, ok := item.ByteLength()
	if !ok {
		return Codec[[]E, []D]{}, schemaViolation("array: item codec must be fixed-size")
	}
	if n < 0 {
		return Codec[[]E, []D]{}, schemaViolation("array: negative length %d", n)
	}

	encode := func(items []E) ([]byte, error) {
		if len(items) != n {
			return nil, schemaViolation("array: expected %d items, got %d", n, len(items))
		}
		out := make([]byte, 0, n*itemSize)
		for i, it := range items {
			b, err := item.Encode(it)
			if err != nil {
				return nil, withPath(fmt.Sprintf("array[%d]", i), err)
			}
			out = append(out, b...)
		}
		return out, nil
	}

	decode := func(b []byte) ([]D, error) {
		out := make([]D, n)
		var errs []error
		for i := 0; i < n; i++ {
			v, err := item.Decode(b[i*itemSize : (i+1)*itemSize])
			if err != nil {
				errs = append(errs, withPath(fmt.Sprintf("array[%d]", i), err))
				continue
			}
			out[i] = v
		}
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return out, nil
	}

	return Fixed(n*itemSize, encode, decode), nil
}

// Struct builds a codec for a fixed sequence of named fixed-size fields,
// concatenated in declaration order with no header.
func Struct(fields ...FieldDef) (Codec[Record, Record], error) {
	total := 0
	for _, f := range fields {
		size, ok := f.codec.ByteLength()
		if !ok {
			return Codec[Record, Record]{}, schemaViolation("struct: field %q must be fixed-size", f.Name)
		}
		total += size
	}

	encode := func(r Record) ([]byte, error) {
		out := make([]byte, 0, total)
		for _, f := range fields {
			b, err := f.codec.encodeAny(r[f.Name])
			if err != nil {
				return nil, withPath("struct."+f.Name, err)
			}
			out = append(out, b...)
		}
		return out, nil
	}

	decode := func(b []byte) (Record, error) {
		out := make(Record, len(fields))
		var errs []error
		offset := 0
		for _, f := range fields {
			size, _ := f.codec.ByteLength()
			v, err := f.codec.decodeAny(b[offset : offset+size])
			offset += size
			if err != nil {
				errs = append(errs, withPath("struct."+f.Name, err))
				continue
			}
			out[f.Name] = v
		}
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return out, nil
	}

	return Fixed(total, encode, decode), nil
}
