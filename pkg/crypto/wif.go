package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

// WIF version bytes.
const (
	wifMainnet = 0x80
	wifTestnet = 0xef
)

// ParsePrivateKeyWIF parses a WIF-encoded private key
func ParsePrivateKeyWIF(wif string) (*PrivateKey, error) {
	decoded, err := decodeWIF(wif)
	if err != nil {
		return nil, err
	}
	return PrivateKeyFromBytes(decoded)
}

// EncodeWIF encodes the key in compressed WIF form.
func (pk *PrivateKey) EncodeWIF(testnet bool) string {
	version := byte(wifMainnet)
	if testnet {
		version = wifTestnet
	}

	// version || key || compression flag || checksum
	payload := make([]byte, 0, 38)
	payload = append(payload, version)
	payload = append(payload, pk.Bytes()...)
	payload = append(payload, 0x01)
	payload = append(payload, wifChecksum(payload)...)
	return base58.Encode(payload)
}

// decodeWIF decodes a WIF-encoded private key
// WIF format: version_byte || private_key (32 bytes) || [compression_flag] || checksum (4 bytes)
func decodeWIF(wif string) ([]byte, error) {
	decoded := base58.Decode(wif)
	if len(decoded) != 37 && len(decoded) != 38 {
		return nil, errors.New("invalid WIF length")
	}

	if version := decoded[0]; version != wifMainnet && version != wifTestnet {
		return nil, fmt.Errorf("invalid WIF version byte: 0x%02x", version)
	}

	checksumOffset := len(decoded) - 4
	payload := decoded[:checksumOffset]
	if subtle.ConstantTimeCompare(decoded[checksumOffset:], wifChecksum(payload)) != 1 {
		return nil, errors.New("WIF checksum mismatch")
	}

	return payload[1:33], nil
}

func wifChecksum(payload []byte) []byte {
	hash1 := sha256.Sum256(payload)
	hash2 := sha256.Sum256(hash1[:])
	return hash2[:4]
}
