package molecule

import (
	"github.com/suffix-labs/ckb-molecule/pkg/bytesutil"
)

// Entity binds a typed value to its codec so that the value's serialized
// form becomes its identity: two values are equal exactly when their
// encodings are byte-equal, and cloning is a serialize/parse round trip.
//
// An optional normalize hook runs before every encode. It lets a type accept
// loosely-specified inputs (for example a zero capacity that should be
// derived) while keeping the wire form canonical.
type Entity[T any] struct {
	codec     Codec[T, T]
	normalize func(T) (T, error)
}

// Bind creates an Entity for codec. normalize may be nil.
func Bind[T any](codec Codec[T, T], normalize func(T) (T, error)) Entity[T] {
	return Entity[T]{codec: codec, normalize: normalize}
}

// Codec returns the underlying codec, for embedding the entity in larger
// layouts.
func (e Entity[T]) Codec() Codec[T, T] {
	if e.normalize == nil {
		return e.codec
	}
	return MapIn(e.codec, e.normalize)
}

// Encode normalizes and serializes v.
func (e Entity[T]) Encode(v T) ([]byte, error) {
	if e.normalize != nil {
		var err error
		if v, err = e.normalize(v); err != nil {
			return nil, err
		}
	}
	return e.codec.Encode(v)
}

// Decode parses b.
func (e Entity[T]) Decode(b []byte) (T, error) {
	return e.codec.Decode(b)
}

// FromBytes parses b and runs the normalize hook on the result.
func (e Entity[T]) FromBytes(b []byte) (T, error) {
	v, err := e.codec.Decode(b)
	if err != nil || e.normalize == nil {
		return v, err
	}
	return e.normalize(v)
}

// FromHex parses a 0x-prefixed hex encoding.
func (e Entity[T]) FromHex(s string) (T, error) {
	b, err := bytesutil.FromHex(s)
	if err != nil {
		var zero T
		return zero, malformed("%v", err)
	}
	return e.FromBytes(b)
}

// Clone returns an independent copy of v by round-tripping it through the
// codec.
func (e Entity[T]) Clone(v T) (T, error) {
	b, err := e.Encode(v)
	if err != nil {
		var zero T
		return zero, err
	}
	return e.FromBytes(b)
}

// Equal reports whether a and b have identical encodings. Values that fail
// to encode are never equal.
func (e Entity[T]) Equal(a, b T) bool {
	ab, err := e.Encode(a)
	if err != nil {
		return false
	}
	bb, err := e.Encode(b)
	if err != nil {
		return false
	}
	return bytesutil.Equal(ab, bb)
}

// ByteLength reports the fixed encoding size, if any.
func (e Entity[T]) ByteLength() (int, bool) {
	return e.codec.ByteLength()
}
