// Package molecule implements the Molecule binary layout: a schema-driven
// serialization format in which every value is built from a small set of
// composable primitives.
//
// Layout summary (all integers are little-endian, all header fields are
// 4-byte unsigned integers):
//
//	array(T, n)      n * T.size bytes, fixed size
//	struct{...}      concatenated fixed-size fields, fixed size
//	fixvec<T>        item_count || items                        (T fixed size)
//	dynvec<T>        total_size || offset[0..n) || items        (T any size)
//	table{...}       total_size || offset[0..fields) || fields
//	option<T>        empty when absent, otherwise T verbatim
//	byteVec(T)       payload_size || payload
//	union{...}       item_id || item
//
// Offsets are absolute, counted from the first byte of the container
// (including its own header). A codec is a pure pair of encode/decode
// functions optionally annotated with a fixed byte length; codecs hold no
// mutable state and may be shared freely between goroutines.
//
// References:
//   - Molecule encoding spec: https://github.com/nervosnetwork/molecule/blob/master/docs/encoding_spec.md
//   - CKB RFC 0008: https://github.com/nervosnetwork/rfcs/blob/master/rfcs/0008-serialization/0008-serialization.md
package molecule

import (
	"encoding/binary"
	"reflect"
)

// headerFieldSize is the width of every length, count and offset field.
const headerFieldSize = 4

// Codec pairs an encoder for values of type E with a decoder producing values
// of type D. The zero Codec is not usable; build codecs with Fixed, Dynamic or
// one of the layout primitives.
type Codec[E, D any] struct {
	encode func(E) ([]byte, error)
	decode func([]byte) (D, error)

	size     int  // byte length, meaningful only when fixed
	fixed    bool // true when every encoding is exactly size bytes
	optional bool // true when the zero E encodes "absent"
}

// Dynamic builds a dynamic-size codec from raw encode/decode functions.
func Dynamic[E, D any](encode func(E) ([]byte, error), decode func([]byte) (D, error)) Codec[E, D] {
	return Codec[E, D]{encode: encode, decode: decode}
}

// Fixed builds a codec whose encodings are always exactly byteLength bytes.
// Encoding output of any other length is a schema violation; decoding input of
// any other length is a malformed encoding.
func Fixed[E, D any](byteLength int, encode func(E) ([]byte, error), decode func([]byte) (D, error)) Codec[E, D] {
	return Codec[E, D]{
		encode: func(v E) ([]byte, error) {
			out, err := encode(v)
			if err != nil {
				return nil, err
			}
			if len(out) != byteLength {
				return nil, schemaViolation("codec: expected byte length %d, got %d", byteLength, len(out))
			}
			return out, nil
		},
		decode: func(b []byte) (D, error) {
			if len(b) != byteLength {
				var zero D
				return zero, malformed("codec: expected byte length %d, got %d", byteLength, len(b))
			}
			return decode(b)
		},
		size:  byteLength,
		fixed: true,
	}
}

// Encode serializes v.
func (c Codec[E, D]) Encode(v E) ([]byte, error) {
	if c.encode == nil {
		return nil, schemaViolation("codec: uninitialised codec")
	}
	return c.encode(v)
}

// Decode parses b. The buffer must hold exactly one encoding; trailing bytes
// are rejected.
func (c Codec[E, D]) Decode(b []byte) (D, error) {
	if c.decode == nil {
		var zero D
		return zero, schemaViolation("codec: uninitialised codec")
	}
	return c.decode(b)
}

// ByteLength returns the fixed encoding size and true, or 0 and false for a
// dynamic-size codec.
func (c Codec[E, D]) ByteLength() (int, bool) {
	return c.size, c.fixed
}

// IsFixed reports whether the codec has a fixed byte length.
func (c Codec[E, D]) IsFixed() bool {
	return c.fixed
}

// Map adapts both directions of c. The byte length is preserved and errors
// from c or from the mapping functions propagate unchanged.
func Map[E, D, NE, ND any](c Codec[E, D], in func(NE) (E, error), out func(D) (ND, error)) Codec[NE, ND] {
	return Codec[NE, ND]{
		encode: func(v NE) ([]byte, error) {
			e, err := in(v)
			if err != nil {
				return nil, err
			}
			return c.Encode(e)
		},
		decode: func(b []byte) (ND, error) {
			d, err := c.Decode(b)
			if err != nil {
				var zero ND
				return zero, err
			}
			return out(d)
		},
		size:     c.size,
		fixed:    c.fixed,
		optional: c.optional,
	}
}

// MapIn restricts the input side of c.
func MapIn[E, D, NE any](c Codec[E, D], in func(NE) (E, error)) Codec[NE, D] {
	return Map(c, in, func(d D) (D, error) { return d, nil })
}

// MapOut restricts the output side of c.
func MapOut[E, D, ND any](c Codec[E, D], out func(D) (ND, error)) Codec[E, ND] {
	return Map(c, func(e E) (E, error) { return e, nil }, out)
}

// Must panics if err is non-nil. It is meant for package-level schema
// definitions whose validity is known at compile time.
func Must[E, D any](c Codec[E, D], err error) Codec[E, D] {
	if err != nil {
		panic(err)
	}
	return c
}

// anyCodec is the type-erased view of a codec used by records and unions,
// whose fields carry heterogeneous Go types.
type anyCodec interface {
	encodeAny(v any) ([]byte, error)
	decodeAny(b []byte) (any, error)
	ByteLength() (int, bool)
}

func (c Codec[E, D]) encodeAny(v any) ([]byte, error) {
	if v == nil {
		if c.optional {
			var zero E
			return c.Encode(zero)
		}
		return nil, schemaViolation("missing value of type %s", typeName[E]())
	}
	e, ok := v.(E)
	if !ok {
		return nil, schemaViolation("expected %s, got %T", typeName[E](), v)
	}
	return c.Encode(e)
}

func (c Codec[E, D]) decodeAny(b []byte) (any, error) {
	return c.Decode(b)
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

func putUint32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

func readUint32(b []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(b[offset : offset+headerFieldSize])
}
