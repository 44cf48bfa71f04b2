package ckb

import (
	"math/big"

	"github.com/suffix-labs/ckb-molecule/pkg/bytesutil"
	"github.com/suffix-labs/ckb-molecule/pkg/hasher"
	"github.com/suffix-labs/ckb-molecule/pkg/molecule"
)

// RawHeader is the header without its proof-of-work nonce.
type RawHeader struct {
	Version          uint32
	CompactTarget    uint32
	Timestamp        uint64
	Number           uint64
	Epoch            uint64
	ParentHash       Hash
	TransactionsRoot Hash
	ProposalsHash    Hash
	ExtraHash        Hash
	Dao              [32]byte
}

// Header is a block header: the raw header plus a 128-bit nonce.
type Header struct {
	Raw   RawHeader
	Nonce *big.Int
}

// RawHeaderLike is anything convertible into a RawHeader.
type RawHeaderLike interface {
	ToRawHeader() (RawHeader, error)
}

// HeaderLike is anything convertible into a Header.
type HeaderLike interface {
	ToHeader() (Header, error)
}

// HeaderData is the plain-data projection of a Header.
type HeaderData struct {
	Version          uint32        `json:"version"`
	CompactTarget    uint32        `json:"compactTarget"`
	Timestamp        uint64        `json:"timestamp"`
	Number           uint64        `json:"number"`
	Epoch            uint64        `json:"epoch"`
	ParentHash       bytesutil.Hex `json:"parentHash"`
	TransactionsRoot bytesutil.Hex `json:"transactionsRoot"`
	ProposalsHash    bytesutil.Hex `json:"proposalsHash"`
	ExtraHash        bytesutil.Hex `json:"extraHash"`
	Dao              bytesutil.Hex `json:"dao"`
	Nonce            string        `json:"nonce"`
}

var rawHeaderCodec = molecule.Map(
	molecule.Must(molecule.Struct(
		molecule.Field("version", molecule.Uint32),
		molecule.Field("compactTarget", molecule.Uint32),
		molecule.Field("timestamp", molecule.Uint64),
		molecule.Field("number", molecule.Uint64),
		molecule.Field("epoch", molecule.Uint64),
		molecule.Field("parentHash", hashCodec),
		molecule.Field("transactionsRoot", hashCodec),
		molecule.Field("proposalsHash", hashCodec),
		molecule.Field("extraHash", hashCodec),
		molecule.Field("dao", hashCodec),
	)),
	func(h RawHeader) (molecule.Record, error) {
		return molecule.Record{
			"version":          h.Version,
			"compactTarget":    h.CompactTarget,
			"timestamp":        h.Timestamp,
			"number":           h.Number,
			"epoch":            h.Epoch,
			"parentHash":       h.ParentHash,
			"transactionsRoot": h.TransactionsRoot,
			"proposalsHash":    h.ProposalsHash,
			"extraHash":        h.ExtraHash,
			"dao":              Hash(h.Dao),
		}, nil
	},
	func(r molecule.Record) (RawHeader, error) {
		var h RawHeader
		var err error
		if h.Version, err = molecule.Get[uint32](r, "version"); err != nil {
			return RawHeader{}, err
		}
		if h.CompactTarget, err = molecule.Get[uint32](r, "compactTarget"); err != nil {
			return RawHeader{}, err
		}
		if h.Timestamp, err = molecule.Get[uint64](r, "timestamp"); err != nil {
			return RawHeader{}, err
		}
		if h.Number, err = molecule.Get[uint64](r, "number"); err != nil {
			return RawHeader{}, err
		}
		if h.Epoch, err = molecule.Get[uint64](r, "epoch"); err != nil {
			return RawHeader{}, err
		}
		if h.ParentHash, err = molecule.Get[Hash](r, "parentHash"); err != nil {
			return RawHeader{}, err
		}
		if h.TransactionsRoot, err = molecule.Get[Hash](r, "transactionsRoot"); err != nil {
			return RawHeader{}, err
		}
		if h.ProposalsHash, err = molecule.Get[Hash](r, "proposalsHash"); err != nil {
			return RawHeader{}, err
		}
		if h.ExtraHash, err = molecule.Get[Hash](r, "extraHash"); err != nil {
			return RawHeader{}, err
		}
		dao, err := molecule.Get[Hash](r, "dao")
		if err != nil {
			return RawHeader{}, err
		}
		h.Dao = dao
		return h, nil
	},
)

var headerCodec = molecule.Map(
	molecule.Must(molecule.Struct(
		molecule.Field("raw", rawHeaderCodec),
		molecule.Field("nonce", molecule.Uint128),
	)),
	func(h Header) (molecule.Record, error) {
		return molecule.Record{"raw": h.Raw, "nonce": h.Nonce}, nil
	},
	func(r molecule.Record) (Header, error) {
		raw, err := molecule.Get[RawHeader](r, "raw")
		if err != nil {
			return Header{}, err
		}
		nonce, err := molecule.Get[*big.Int](r, "nonce")
		if err != nil {
			return Header{}, err
		}
		return Header{Raw: raw, Nonce: nonce}, nil
	},
)

var (
	rawHeaderEntity = molecule.Bind(rawHeaderCodec, nil)
	headerEntity    = molecule.Bind(headerCodec, func(h Header) (Header, error) {
		if h.Nonce == nil {
			h.Nonce = new(big.Int)
		}
		return h, nil
	})
)

// RawHeaderFromBytes decodes a RawHeader.
func RawHeaderFromBytes(b []byte) (RawHeader, error) { return rawHeaderEntity.FromBytes(b) }

// RawHeaderFrom converts h into a RawHeader.
func RawHeaderFrom(h RawHeaderLike) (RawHeader, error) { return h.ToRawHeader() }

func (h RawHeader) ToRawHeader() (RawHeader, error) { return h, nil }

// ToBytes encodes h.
func (h RawHeader) ToBytes() ([]byte, error) { return rawHeaderEntity.Encode(h) }

func (h RawHeader) Clone() (RawHeader, error) { return rawHeaderEntity.Clone(h) }

// Eq reports whether h and other encode to the same bytes.
func (h RawHeader) Eq(other RawHeaderLike) bool {
	v, err := other.ToRawHeader()
	if err != nil {
		return false
	}
	return rawHeaderEntity.Equal(h, v)
}

// Hash returns the hash of the raw header, the proof-of-work message.
func (h RawHeader) Hash(f hasher.Factory) (Hash, error) {
	b, err := h.ToBytes()
	if err != nil {
		return Hash{}, err
	}
	return hashOf(f, b), nil
}

// HeaderFrom converts h into a Header.
func HeaderFrom(h HeaderLike) (Header, error) { return h.ToHeader() }

// HeaderFromBytes decodes a Header.
func HeaderFromBytes(b []byte) (Header, error) { return headerEntity.FromBytes(b) }

func (h Header) ToHeader() (Header, error) { return h, nil }

// ToRawHeader returns the raw part of h.
func (h Header) ToRawHeader() (RawHeader, error) { return h.Raw, nil }

// ToBytes encodes h. A nil nonce encodes as zero.
func (h Header) ToBytes() ([]byte, error) { return headerEntity.Encode(h) }

func (h Header) Clone() (Header, error) { return headerEntity.Clone(h) }

// Eq reports whether h and other encode to the same bytes.
func (h Header) Eq(other HeaderLike) bool {
	v, err := other.ToHeader()
	if err != nil {
		return false
	}
	return headerEntity.Equal(h, v)
}

// Hash returns the block hash: the hash of the full header encoding.
func (h Header) Hash(f hasher.Factory) (Hash, error) {
	b, err := h.ToBytes()
	if err != nil {
		return Hash{}, err
	}
	return hashOf(f, b), nil
}

// Data returns the plain-data projection of h.
func (h Header) Data() HeaderData {
	nonce := "0x0"
	if h.Nonce != nil {
		nonce = "0x" + h.Nonce.Text(16)
	}
	r := h.Raw
	return HeaderData{
		Version:          r.Version,
		CompactTarget:    r.CompactTarget,
		Timestamp:        r.Timestamp,
		Number:           r.Number,
		Epoch:            r.Epoch,
		ParentHash:       r.ParentHash.Bytes(),
		TransactionsRoot: r.TransactionsRoot.Bytes(),
		ProposalsHash:    r.ProposalsHash.Bytes(),
		ExtraHash:        r.ExtraHash.Bytes(),
		Dao:              bytesutil.Clone(r.Dao[:]),
		Nonce:            nonce,
	}
}

// ToHeader validates d and converts it into a Header.
func (d HeaderData) ToHeader() (Header, error) {
	raw := RawHeader{
		Version:       d.Version,
		CompactTarget: d.CompactTarget,
		Timestamp:     d.Timestamp,
		Number:        d.Number,
		Epoch:         d.Epoch,
	}
	hashes := []struct {
		name string
		src  []byte
		dst  *Hash
	}{
		{"parentHash", d.ParentHash, &raw.ParentHash},
		{"transactionsRoot", d.TransactionsRoot, &raw.TransactionsRoot},
		{"proposalsHash", d.ProposalsHash, &raw.ProposalsHash},
		{"extraHash", d.ExtraHash, &raw.ExtraHash},
	}
	for _, h := range hashes {
		v, err := HashFromBytes(h.src)
		if err != nil {
			return Header{}, invalid(h.name, "expected %d bytes, got %d", HashSize, len(h.src))
		}
		*h.dst = v
	}
	dao, err := HashFromBytes(d.Dao)
	if err != nil {
		return Header{}, invalid("dao", "expected %d bytes, got %d", HashSize, len(d.Dao))
	}
	raw.Dao = dao

	nonce := new(big.Int)
	if d.Nonce != "" {
		if _, ok := nonce.SetString(d.Nonce, 0); !ok || nonce.Sign() < 0 || nonce.BitLen() > 128 {
			return Header{}, invalid("nonce", "not a 128-bit unsigned integer: %q", d.Nonce)
		}
	}
	return Header{Raw: raw, Nonce: nonce}, nil
}
