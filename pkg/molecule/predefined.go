package molecule

import (
	"math/big"
	"unicode/utf8"

	"github.com/suffix-labs/ckb-molecule/pkg/bytesutil"
	"github.com/suffix-labs/ckb-molecule/pkg/num"
)

// Uint builds a little-endian unsigned integer codec of 1, 2, 4 or 8 bytes.
func Uint(width int) (Codec[uint64, uint64], error) {
	switch width {
	case 1, 2, 4, 8:
	default:
		return Codec[uint64, uint64]{}, schemaViolation("uint: unsupported width %d", width)
	}
	return Fixed(width,
		func(v uint64) ([]byte, error) {
			b, err := num.ToBytes(v, width)
			if err != nil {
				return nil, schemaViolation("uint%d: %v", width*8, err)
			}
			return b, nil
		},
		func(b []byte) (uint64, error) {
			v, err := num.FromBytes(b)
			if err != nil {
				return 0, malformed("uint%d: %v", width*8, err)
			}
			return v, nil
		},
	), nil
}

// BigUint builds a little-endian unsigned integer codec whose width is a
// positive multiple of 8 bytes, using *big.Int values.
func BigUint(width int) (Codec[*big.Int, *big.Int], error) {
	if width <= 0 || width%8 != 0 {
		return Codec[*big.Int, *big.Int]{}, schemaViolation("uint: unsupported width %d", width)
	}
	return Fixed(width,
		func(v *big.Int) ([]byte, error) {
			b, err := num.BigToBytes(v, width)
			if err != nil {
				return nil, schemaViolation("uint%d: %v", width*8, err)
			}
			return b, nil
		},
		func(b []byte) (*big.Int, error) {
			v, err := num.BigFromBytes(b)
			if err != nil {
				return nil, malformed("uint%d: %v", width*8, err)
			}
			return v, nil
		},
	), nil
}

func narrow[T uint8 | uint16 | uint32](width int) Codec[T, T] {
	return Map(Must(Uint(width)),
		func(v T) (uint64, error) { return uint64(v), nil },
		func(v uint64) (T, error) { return T(v), nil },
	)
}

// Fixed-width integers. Widths above 8 bytes use *big.Int.
var (
	Uint8   = narrow[uint8](1)
	Uint16  = narrow[uint16](2)
	Uint32  = narrow[uint32](4)
	Uint64  = Must(Uint(8))
	Uint128 = Must(BigUint(16))
	Uint256 = Must(BigUint(32))
	Uint512 = Must(BigUint(64))
)

// Bool encodes false as 0x00 and true as 0x01. Any other byte is rejected on
// decode.
var Bool = Fixed(1,
	func(v bool) ([]byte, error) {
		if v {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	},
	func(b []byte) (bool, error) {
		switch b[0] {
		case 0:
			return false, nil
		case 1:
			return true, nil
		default:
			return false, malformed("bool: invalid byte 0x%02x", b[0])
		}
	},
)

// ByteN builds a codec for exactly n raw bytes.
func ByteN(n int) Codec[[]byte, []byte] {
	return Fixed(n, rawEncode, rawDecode)
}

// Raw passes bytes through unchanged; it is the payload codec of Bytes.
var Raw = Dynamic(rawEncode, rawDecode)

// Fixed-length byte blocks and length-prefixed byte strings.
var (
	Byte4  = ByteN(4)
	Byte8  = ByteN(8)
	Byte16 = ByteN(16)
	Byte32 = ByteN(32)
	Bytes  = ByteVec(Raw)
)

// String is a length-prefixed UTF-8 string.
var String = ByteVec(Dynamic(
	func(s string) ([]byte, error) {
		if !utf8.ValidString(s) {
			return nil, schemaViolation("string: invalid UTF-8")
		}
		return []byte(s), nil
	},
	func(b []byte) (string, error) {
		if !utf8.Valid(b) {
			return "", malformed("string: invalid UTF-8")
		}
		return string(b), nil
	},
))

// Optional and vector forms of the predefined codecs.
var (
	Uint8Opt   = Option(Uint8)
	Uint16Opt  = Option(Uint16)
	Uint32Opt  = Option(Uint32)
	Uint64Opt  = Option(Uint64)
	Uint128Opt = Option(Uint128)
	Uint256Opt = Option(Uint256)
	BoolOpt    = Option(Bool)
	Byte32Opt  = Option(Byte32)
	StringOpt  = Option(String)

	// BytesOpt uses nil for absent, so an empty but present value decodes
	// to a non-nil empty slice.
	BytesOpt = nilAbsent(Bytes)

	Uint8Vec    = Vector(Uint8)
	Uint32Vec   = Vector(Uint32)
	Uint64Vec   = Vector(Uint64)
	Uint128Vec  = Vector(Uint128)
	Byte32Vec   = Vector(Byte32)
	BytesVec    = Vector(Bytes)
	StringVec   = Vector(String)
	BytesOptVec = Vector(BytesOpt)
)

// nilAbsent is Option over a byte codec, keyed on nil instead of a pointer.
func nilAbsent(c Codec[[]byte, []byte]) Codec[[]byte, []byte] {
	return Map(Option(c),
		func(v []byte) (*[]byte, error) {
			if v == nil {
				return nil, nil
			}
			return &v, nil
		},
		func(p *[]byte) ([]byte, error) {
			if p == nil {
				return nil, nil
			}
			return *p, nil
		},
	)
}

func rawEncode(b []byte) ([]byte, error) {
	return bytesutil.Clone(nonNil(b)), nil
}

func rawDecode(b []byte) ([]byte, error) {
	return bytesutil.Clone(nonNil(b)), nil
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
