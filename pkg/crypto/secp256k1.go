// Package crypto implements the secp256k1 signatures used by the default
// CKB lock (secp256k1-blake160-sighash-all).
//
// Key formats:
//   - Private keys: raw 32 bytes, hex, or WIF (Wallet Import Format)
//   - Public keys: compressed 33-byte format (0x02/0x03 prefix + x-coordinate)
//   - Signatures: 65-byte recoverable form r (32) || s (32) || recovery id (1)
//
// A lock's args carry the blake160 of the signer's public key: the first 20
// bytes of the CKB hash of the compressed key. Verification recovers the
// public key from the signature and compares its blake160 with the args.
package crypto

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/suffix-labs/ckb-molecule/pkg/bytesutil"
	"github.com/suffix-labs/ckb-molecule/pkg/hasher"
)

const (
	// SignatureSize is the length of a recoverable signature.
	SignatureSize = 65

	// Blake160Size is the length of a public key hash.
	Blake160Size = 20

	// compactMagic is the header offset ecdsa.SignCompact adds to the
	// recovery id for compressed keys (27 + 4).
	compactMagic = 27 + 4
)

// ErrInvalidSignature is returned for signatures that cannot be parsed or
// recovered.
var ErrInvalidSignature = errors.New("invalid signature")

// PrivateKey wraps secp256k1 private key
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// PublicKey wraps secp256k1 public key
type PublicKey struct {
	key *secp256k1.PublicKey
}

// GeneratePrivateKey creates a random private key.
func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a private key from raw bytes
func PrivateKeyFromBytes(keyBytes []byte) (*PrivateKey, error) {
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(keyBytes))
	}

	key := secp256k1.PrivKeyFromBytes(keyBytes)
	if key.Key.IsZero() {
		return nil, errors.New("private key must not be zero")
	}
	return &PrivateKey{key: key}, nil
}

// ParsePrivateKey accepts a 0x-hex private key or a WIF string.
func ParsePrivateKey(s string) (*PrivateKey, error) {
	if b, err := bytesutil.FromHex(s); err == nil && len(b) == 32 {
		return PrivateKeyFromBytes(b)
	}
	return ParsePrivateKeyWIF(s)
}

// SignRecoverable signs a 32-byte digest and returns r || s || recid.
func (pk *PrivateKey) SignRecoverable(hash [32]byte) []byte {
	compact := ecdsa.SignCompact(pk.key, hash[:], true)

	// SignCompact yields header || r || s; move the recovery id to the end.
	sig := make([]byte, SignatureSize)
	copy(sig, compact[1:])
	sig[64] = compact[0] - compactMagic
	return sig
}

// PublicKey derives the public key
func (pk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: pk.key.PubKey()}
}

// Bytes returns the raw 32-byte private key
func (pk *PrivateKey) Bytes() []byte {
	return pk.key.Serialize()
}

// Bytes returns the compressed public key bytes
func (pub *PublicKey) Bytes() []byte {
	return pub.key.SerializeCompressed()
}

// Blake160 returns the lock args identifying this key.
func (pub *PublicKey) Blake160() []byte {
	return Blake160(pub.Bytes())
}

// Equal reports whether both keys are the same point.
func (pub *PublicKey) Equal(other *PublicKey) bool {
	return other != nil && pub.key.IsEqual(other.key)
}

// ParsePublicKey parses a compressed public key
func ParsePublicKey(pubKeyBytes []byte) (*PublicKey, error) {
	if len(pubKeyBytes) != 33 {
		return nil, fmt.Errorf("compressed public key must be 33 bytes, got %d", len(pubKeyBytes))
	}

	pubKey, err := secp256k1.ParsePubKey(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	return &PublicKey{key: pubKey}, nil
}

// RecoverPublicKey recovers the signer of hash from a 65-byte recoverable
// signature.
func RecoverPublicKey(hash [32]byte, signature []byte) (*PublicKey, error) {
	if len(signature) != SignatureSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, SignatureSize, len(signature))
	}
	if signature[64] > 3 {
		return nil, fmt.Errorf("%w: recovery id %d out of range", ErrInvalidSignature, signature[64])
	}

	compact := make([]byte, SignatureSize)
	compact[0] = signature[64] + compactMagic
	copy(compact[1:], signature[:64])

	pubKey, _, err := ecdsa.RecoverCompact(compact, hash[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return &PublicKey{key: pubKey}, nil
}

// VerifySignature reports whether signature over hash was made by the key
// whose blake160 is args.
func VerifySignature(args []byte, hash [32]byte, signature []byte) bool {
	pub, err := RecoverPublicKey(hash, signature)
	if err != nil {
		return false
	}
	return bytesutil.Equal(pub.Blake160(), args)
}

// Blake160 is the first 20 bytes of the CKB hash of data.
func Blake160(data []byte) []byte {
	h := hasher.HashCkb(data)
	return bytesutil.Clone(h[:Blake160Size])
}
