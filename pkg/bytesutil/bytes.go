// Package bytesutil provides the byte-sequence helpers shared by the codec
// and the data model.
//
// Byte slices handled here are treated as read-only views: every helper that
// produces a sequence from other sequences allocates a fresh buffer, so the
// result never aliases its inputs. Callers may hand out the returned slices
// without worrying that a later append on an input will show through.
package bytesutil

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// Concat returns a new buffer holding every part in order.
func Concat(parts ...[]byte) []byte {
	return ConcatTo(nil, parts...)
}

// ConcatTo returns a new buffer holding dst followed by every part.
// dst itself is never modified.
func ConcatTo(dst []byte, parts ...[]byte) []byte {
	total := len(dst)
	for _, p := range parts {
		total += len(p)
	}

	out := make([]byte, total)
	offset := copy(out, dst)
	for _, p := range parts {
		offset += copy(out[offset:], p)
	}
	return out
}

// Equal reports whether a and b have the same length and the same bytes.
// A nil slice equals an empty one.
func Equal(a, b []byte) bool {
	return bytes.Equal(a, b)
}

// From is the pass-through constructor: the returned slice is b itself.
func From(b []byte) []byte {
	return b
}

// Clone returns an independent copy of b. Clone(nil) is nil.
func Clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Zeros returns n zero bytes.
func Zeros(n int) []byte {
	return make([]byte, n)
}

// FromHex decodes a hex string with an optional 0x prefix.
func FromHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	out, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return out, nil
}

// ToHex encodes b as a 0x-prefixed lowercase hex string.
func ToHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// Hex is a byte slice whose text form is 0x-prefixed hex. It is used by the
// plain-data projections so JSON documents carry "0x..." strings instead of
// base64.
type Hex []byte

// MarshalText implements encoding.TextMarshaler.
func (h Hex) MarshalText() ([]byte, error) {
	return []byte(ToHex(h)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hex) UnmarshalText(text []byte) error {
	b, err := FromHex(string(text))
	if err != nil {
		return err
	}
	*h = b
	return nil
}

// String returns the 0x-hex form.
func (h Hex) String() string {
	return ToHex(h)
}
