package ckb

import (
	"github.com/suffix-labs/ckb-molecule/pkg/bytesutil"
	"github.com/suffix-labs/ckb-molecule/pkg/molecule"
)

// WitnessArgs is the conventional witness layout. A nil field is absent on
// the wire; a non-nil empty field is present with zero length.
type WitnessArgs struct {
	Lock       []byte
	InputType  []byte
	OutputType []byte
}

// WitnessArgsLike is anything convertible into WitnessArgs.
type WitnessArgsLike interface {
	ToWitnessArgs() (WitnessArgs, error)
}

// WitnessArgsData is the plain-data projection of WitnessArgs. A nil field
// is absent; "0x" is present and empty.
type WitnessArgsData struct {
	Lock       *bytesutil.Hex `json:"lock,omitempty"`
	InputType  *bytesutil.Hex `json:"inputType,omitempty"`
	OutputType *bytesutil.Hex `json:"outputType,omitempty"`
}

var witnessArgsCodec = molecule.Map(
	molecule.Table(
		molecule.Field("lock", molecule.BytesOpt),
		molecule.Field("inputType", molecule.BytesOpt),
		molecule.Field("outputType", molecule.BytesOpt),
	),
	func(w WitnessArgs) (molecule.Record, error) {
		return molecule.Record{"lock": w.Lock, "inputType": w.InputType, "outputType": w.OutputType}, nil
	},
	func(r molecule.Record) (WitnessArgs, error) {
		var w WitnessArgs
		var err error
		if w.Lock, err = molecule.Get[[]byte](r, "lock"); err != nil {
			return WitnessArgs{}, err
		}
		if w.InputType, err = molecule.Get[[]byte](r, "inputType"); err != nil {
			return WitnessArgs{}, err
		}
		if w.OutputType, err = molecule.Get[[]byte](r, "outputType"); err != nil {
			return WitnessArgs{}, err
		}
		return w, nil
	},
)

var witnessArgsEntity = molecule.Bind(witnessArgsCodec, nil)

// WitnessArgsFrom converts w into WitnessArgs.
func WitnessArgsFrom(w WitnessArgsLike) (WitnessArgs, error) { return w.ToWitnessArgs() }

// WitnessArgsFromBytes decodes WitnessArgs.
func WitnessArgsFromBytes(b []byte) (WitnessArgs, error) { return witnessArgsEntity.FromBytes(b) }

func (w WitnessArgs) ToWitnessArgs() (WitnessArgs, error) { return w, nil }

func (w WitnessArgs) ToBytes() ([]byte, error) { return witnessArgsEntity.Encode(w) }

func (w WitnessArgs) Clone() (WitnessArgs, error) { return witnessArgsEntity.Clone(w) }

// Eq reports whether w and other encode to the same bytes.
func (w WitnessArgs) Eq(other WitnessArgsLike) bool {
	v, err := other.ToWitnessArgs()
	if err != nil {
		return false
	}
	return witnessArgsEntity.Equal(w, v)
}

// Data returns the plain-data projection of w.
func (w WitnessArgs) Data() WitnessArgsData {
	return WitnessArgsData{
		Lock:       optionalHex(w.Lock),
		InputType:  optionalHex(w.InputType),
		OutputType: optionalHex(w.OutputType),
	}
}

// ToWitnessArgs converts d into WitnessArgs.
func (d WitnessArgsData) ToWitnessArgs() (WitnessArgs, error) {
	return WitnessArgs{
		Lock:       optionalBytes(d.Lock),
		InputType:  optionalBytes(d.InputType),
		OutputType: optionalBytes(d.OutputType),
	}, nil
}

func optionalHex(b []byte) *bytesutil.Hex {
	if b == nil {
		return nil
	}
	h := bytesutil.Hex(bytesutil.Clone(b))
	return &h
}

func optionalBytes(h *bytesutil.Hex) []byte {
	if h == nil {
		return nil
	}
	return append([]byte{}, *h...)
}
