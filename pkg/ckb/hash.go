package ckb

import (
	"github.com/suffix-labs/ckb-molecule/pkg/bytesutil"
	"github.com/suffix-labs/ckb-molecule/pkg/hasher"
	"github.com/suffix-labs/ckb-molecule/pkg/molecule"
)

// HashSize is the length of every hash carried by the data model.
const HashSize = 32

// Hash is a 32-byte digest. Its text form is 0x-prefixed hex.
type Hash [HashSize]byte

// HashFromBytes copies b into a Hash. b must be exactly 32 bytes.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, invalid("hash", "expected %d bytes, got %d", HashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// ParseHash parses a 0x-prefixed hex hash.
func ParseHash(s string) (Hash, error) {
	b, err := bytesutil.FromHex(s)
	if err != nil {
		return Hash{}, invalid("hash", "%v", err)
	}
	return HashFromBytes(b)
}

// Bytes returns a copy of the hash as a slice.
func (h Hash) Bytes() []byte {
	return bytesutil.Clone(h[:])
}

// IsZero reports whether every byte is zero.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) String() string {
	return bytesutil.ToHex(h[:])
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func hashOf(f hasher.Factory, data []byte) Hash {
	if f == nil {
		f = hasher.NewCkb
	}
	return Hash(hasher.Sum(f, data))
}

var (
	hashCodec = molecule.Map(molecule.Byte32,
		func(h Hash) ([]byte, error) { return h[:], nil },
		func(b []byte) (Hash, error) { return Hash(b), nil },
	)
	hashVecCodec = molecule.Vector(hashCodec)
)
