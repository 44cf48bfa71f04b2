// Package hasher provides the 32-byte hash accumulators used for transaction
// hashes and signing digests.
//
// A Hasher is single-use: feed it with Update, read the digest once with
// Finalize. Calling either method after Finalize panics, which catches
// accidental reuse of an accumulator across two digests.
//
// Two accumulators are provided:
//   - CKB: BLAKE2b-256 personalised with "ckb-default-hash"
//   - Keccak-256: the legacy (pre-NIST) Keccak padding used by Ethereum
package hasher

import (
	"fmt"
	"hash"

	blake2b "github.com/minio/blake2b-simd"
	"golang.org/x/crypto/sha3"
)

// Size is the digest length of every accumulator in this package.
const Size = 32

// CkbPersonalization is the BLAKE2b personalisation of the CKB hash.
const CkbPersonalization = "ckb-default-hash"

// Hasher accumulates bytes and produces a 32-byte digest.
type Hasher interface {
	Update(data []byte)
	Finalize() [Size]byte
}

// Factory creates a fresh Hasher. Hashing routines take a Factory so tests
// can inject deterministic stubs.
type Factory func() Hasher

type accumulator struct {
	name string
	h    hash.Hash
	done bool
}

func (a *accumulator) Update(data []byte) {
	if a.done {
		panic(fmt.Sprintf("hasher: %s: Update after Finalize", a.name))
	}
	a.h.Write(data)
}

func (a *accumulator) Finalize() [Size]byte {
	if a.done {
		panic(fmt.Sprintf("hasher: %s: Finalize called twice", a.name))
	}
	a.done = true
	var out [Size]byte
	copy(out[:], a.h.Sum(nil))
	return out
}

// NewCkb returns a BLAKE2b-256 accumulator with the CKB personalisation.
func NewCkb() Hasher {
	h, err := blake2b.New(&blake2b.Config{
		Size:   Size,
		Person: []byte(CkbPersonalization),
	})
	if err != nil {
		// Only reachable with an invalid static config.
		panic(fmt.Sprintf("hasher: blake2b config: %v", err))
	}
	return &accumulator{name: "ckb", h: h}
}

// NewKeccak256 returns a legacy Keccak-256 accumulator.
func NewKeccak256() Hasher {
	return &accumulator{name: "keccak256", h: sha3.NewLegacyKeccak256()}
}

// HashCkb returns the CKB hash of the concatenation of parts.
func HashCkb(parts ...[]byte) [Size]byte {
	return Sum(NewCkb, parts...)
}

// HashKeccak256 returns the Keccak-256 hash of the concatenation of parts.
func HashKeccak256(parts ...[]byte) [Size]byte {
	return Sum(NewKeccak256, parts...)
}

// Sum hashes the concatenation of parts with a fresh accumulator from f.
func Sum(f Factory, parts ...[]byte) [Size]byte {
	h := f()
	for _, p := range parts {
		h.Update(p)
	}
	return h.Finalize()
}

// ByName resolves a configured accumulator name ("ckb" or "keccak256").
func ByName(name string) (Factory, error) {
	switch name {
	case "", "ckb":
		return NewCkb, nil
	case "keccak256":
		return NewKeccak256, nil
	default:
		return nil, fmt.Errorf("hasher: unknown hasher %q", name)
	}
}
