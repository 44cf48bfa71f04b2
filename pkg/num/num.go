// Package num converts unsigned integers to and from fixed-width
// little-endian byte sequences.
//
// Widths up to 8 bytes use native uint64 values. Wider amounts (16, 32 and 64
// byte fields) use *big.Int; the representation is chosen by the width, not by
// the magnitude of the value.
package num

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// ToBytes encodes v as a little-endian integer of the given width.
// Supported widths are 1, 2, 4 and 8 bytes.
func ToBytes(v uint64, width int) ([]byte, error) {
	out := make([]byte, width)
	switch width {
	case 1:
		if v > 0xff {
			return nil, overflow(v, width)
		}
		out[0] = byte(v)
	case 2:
		if v > 0xffff {
			return nil, overflow(v, width)
		}
		binary.LittleEndian.PutUint16(out, uint16(v))
	case 4:
		if v > 0xffffffff {
			return nil, overflow(v, width)
		}
		binary.LittleEndian.PutUint32(out, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(out, v)
	default:
		return nil, fmt.Errorf("num: unsupported width %d", width)
	}
	return out, nil
}

// FromBytes decodes a little-endian integer of 1, 2, 4 or 8 bytes.
func FromBytes(b []byte) (uint64, error) {
	switch len(b) {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	case 8:
		return binary.LittleEndian.Uint64(b), nil
	default:
		return 0, fmt.Errorf("num: unsupported width %d", len(b))
	}
}

// Uint32LE returns the 4-byte little-endian encoding of v.
func Uint32LE(v uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return out
}

// Uint64LE returns the 8-byte little-endian encoding of v.
func Uint64LE(v uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, v)
	return out
}

// BigToBytes encodes v as a little-endian integer of width bytes. The width
// must be a positive multiple of 8. Negative values and values that need more
// than width bytes are rejected.
func BigToBytes(v *big.Int, width int) ([]byte, error) {
	if width <= 0 || width%8 != 0 {
		return nil, fmt.Errorf("num: unsupported width %d", width)
	}
	if v == nil {
		return nil, fmt.Errorf("num: nil integer")
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("num: negative value %s", v)
	}
	if (v.BitLen()+7)/8 > width {
		return nil, fmt.Errorf("num: value %s does not fit in %d bytes", v, width)
	}

	// FillBytes writes big-endian; reverse into little-endian.
	be := v.FillBytes(make([]byte, width))
	out := make([]byte, width)
	for i := range be {
		out[i] = be[width-1-i]
	}
	return out, nil
}

// BigFromBytes decodes a little-endian integer whose length is a positive
// multiple of 8 bytes.
func BigFromBytes(b []byte) (*big.Int, error) {
	if len(b) == 0 || len(b)%8 != 0 {
		return nil, fmt.Errorf("num: unsupported width %d", len(b))
	}
	be := make([]byte, len(b))
	for i := range b {
		be[i] = b[len(b)-1-i]
	}
	return new(big.Int).SetBytes(be), nil
}

func overflow(v uint64, width int) error {
	return fmt.Errorf("num: value %d does not fit in %d bytes", v, width)
}
