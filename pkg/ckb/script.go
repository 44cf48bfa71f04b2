package ckb

import (
	"github.com/suffix-labs/ckb-molecule/pkg/bytesutil"
	"github.com/suffix-labs/ckb-molecule/pkg/hasher"
	"github.com/suffix-labs/ckb-molecule/pkg/molecule"
)

// HashType selects how a script's code hash is matched against cells.
type HashType uint8

const (
	HashTypeData  HashType = 0x00
	HashTypeType  HashType = 0x01
	HashTypeData1 HashType = 0x02
	HashTypeData2 HashType = 0x04
)

var hashTypeNames = map[HashType]string{
	HashTypeData:  "data",
	HashTypeType:  "type",
	HashTypeData1: "data1",
	HashTypeData2: "data2",
}

// HashTypeFrom validates a raw hash type byte.
func HashTypeFrom(v uint8) (HashType, error) {
	if _, ok := hashTypeNames[HashType(v)]; !ok {
		return 0, invalid("hashType", "unknown hash type 0x%02x", v)
	}
	return HashType(v), nil
}

// ParseHashType accepts a hash type name ("data", "type", "data1", "data2").
func ParseHashType(name string) (HashType, error) {
	for ht, n := range hashTypeNames {
		if n == name {
			return ht, nil
		}
	}
	return 0, invalid("hashType", "unknown hash type %q", name)
}

func (t HashType) String() string {
	if n, ok := hashTypeNames[t]; ok {
		return n
	}
	return "unknown"
}

var hashTypeCodec = molecule.Map(molecule.Uint8,
	func(t HashType) (uint8, error) {
		if _, err := HashTypeFrom(uint8(t)); err != nil {
			return 0, err
		}
		return uint8(t), nil
	},
	func(v uint8) (HashType, error) {
		if _, ok := hashTypeNames[HashType(v)]; !ok {
			return 0, malformed("hashType: unknown hash type 0x%02x", v)
		}
		return HashType(v), nil
	},
)

// Script identifies code to run (by hash) and the arguments it runs with.
// Scripts guard cells as lock scripts and optionally as type scripts.
type Script struct {
	CodeHash Hash
	HashType HashType
	Args     []byte
}

// ScriptLike is anything convertible into a Script.
type ScriptLike interface {
	ToScript() (Script, error)
}

// ScriptData is the plain-data projection of a Script.
type ScriptData struct {
	CodeHash bytesutil.Hex `json:"codeHash"`
	HashType string        `json:"hashType"`
	Args     bytesutil.Hex `json:"args"`
}

var scriptCodec = molecule.Map(
	molecule.Table(
		molecule.Field("codeHash", hashCodec),
		molecule.Field("hashType", hashTypeCodec),
		molecule.Field("args", molecule.Bytes),
	),
	func(s Script) (molecule.Record, error) {
		return molecule.Record{
			"codeHash": s.CodeHash,
			"hashType": s.HashType,
			"args":     s.Args,
		}, nil
	},
	func(r molecule.Record) (Script, error) {
		codeHash, err := molecule.Get[Hash](r, "codeHash")
		if err != nil {
			return Script{}, err
		}
		hashType, err := molecule.Get[HashType](r, "hashType")
		if err != nil {
			return Script{}, err
		}
		args, err := molecule.Get[[]byte](r, "args")
		if err != nil {
			return Script{}, err
		}
		return Script{CodeHash: codeHash, HashType: hashType, Args: args}, nil
	},
)

var (
	scriptEntity   = molecule.Bind(scriptCodec, nil)
	scriptOptCodec = molecule.Option(scriptCodec)
)

// ScriptFrom converts s into a Script. A Script passes through unchanged.
func ScriptFrom(s ScriptLike) (Script, error) {
	return s.ToScript()
}

// ScriptFromBytes decodes a Script.
func ScriptFromBytes(b []byte) (Script, error) {
	return scriptEntity.FromBytes(b)
}

// ToScript returns s itself.
func (s Script) ToScript() (Script, error) {
	return s, nil
}

// ToBytes encodes s.
func (s Script) ToBytes() ([]byte, error) {
	return scriptEntity.Encode(s)
}

// Clone returns a copy of s that shares no storage with it.
func (s Script) Clone() (Script, error) {
	return scriptEntity.Clone(s)
}

// Eq reports whether s and other encode to the same bytes.
func (s Script) Eq(other ScriptLike) bool {
	o, err := other.ToScript()
	if err != nil {
		return false
	}
	return scriptEntity.Equal(s, o)
}

// OccupiedSize is the number of bytes s occupies in a cell: 32 for the code
// hash, 1 for the hash type and the args.
func (s Script) OccupiedSize() int {
	return 33 + len(s.Args)
}

// Hash returns the CKB hash of the encoded script.
func (s Script) Hash() (Hash, error) {
	b, err := s.ToBytes()
	if err != nil {
		return Hash{}, err
	}
	return Hash(hasher.HashCkb(b)), nil
}

// Data returns the plain-data projection of s.
func (s Script) Data() ScriptData {
	return ScriptData{
		CodeHash: s.CodeHash.Bytes(),
		HashType: s.HashType.String(),
		Args:     bytesutil.Clone(nonNilBytes(s.Args)),
	}
}

// ToScript validates d and converts it into a Script.
func (d ScriptData) ToScript() (Script, error) {
	codeHash, err := HashFromBytes(d.CodeHash)
	if err != nil {
		return Script{}, invalid("codeHash", "expected %d bytes, got %d", HashSize, len(d.CodeHash))
	}
	hashType, err := ParseHashType(d.HashType)
	if err != nil {
		return Script{}, err
	}
	return Script{
		CodeHash: codeHash,
		HashType: hashType,
		Args:     bytesutil.Clone(nonNilBytes(d.Args)),
	}, nil
}

func nonNilBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
