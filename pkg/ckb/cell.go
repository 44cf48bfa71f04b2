package ckb

import (
	"github.com/suffix-labs/ckb-molecule/pkg/bytesutil"
	"github.com/suffix-labs/ckb-molecule/pkg/molecule"
)

// ShannonsPerByte is the capacity, in shannons, needed to store one byte on
// chain (1 CKByte = 10^8 shannons).
const ShannonsPerByte = 100_000_000

// OutPoint references a cell by the hash of the transaction that created it
// and the output index within that transaction.
type OutPoint struct {
	TxHash Hash
	Index  uint32
}

// OutPointLike is anything convertible into an OutPoint.
type OutPointLike interface {
	ToOutPoint() (OutPoint, error)
}

// OutPointData is the plain-data projection of an OutPoint.
type OutPointData struct {
	TxHash bytesutil.Hex `json:"txHash"`
	Index  uint32        `json:"index"`
}

var outPointCodec = molecule.Map(
	molecule.Must(molecule.Struct(
		molecule.Field("txHash", hashCodec),
		molecule.Field("index", molecule.Uint32),
	)),
	func(o OutPoint) (molecule.Record, error) {
		return molecule.Record{"txHash": o.TxHash, "index": o.Index}, nil
	},
	func(r molecule.Record) (OutPoint, error) {
		txHash, err := molecule.Get[Hash](r, "txHash")
		if err != nil {
			return OutPoint{}, err
		}
		index, err := molecule.Get[uint32](r, "index")
		if err != nil {
			return OutPoint{}, err
		}
		return OutPoint{TxHash: txHash, Index: index}, nil
	},
)

var outPointEntity = molecule.Bind(outPointCodec, nil)

// OutPointFrom converts o into an OutPoint.
func OutPointFrom(o OutPointLike) (OutPoint, error) { return o.ToOutPoint() }

// OutPointFromBytes decodes an OutPoint.
func OutPointFromBytes(b []byte) (OutPoint, error) { return outPointEntity.FromBytes(b) }

func (o OutPoint) ToOutPoint() (OutPoint, error) { return o, nil }

func (o OutPoint) ToBytes() ([]byte, error) { return outPointEntity.Encode(o) }

func (o OutPoint) Clone() (OutPoint, error) { return outPointEntity.Clone(o) }

// Eq reports whether o and other encode to the same bytes.
func (o OutPoint) Eq(other OutPointLike) bool {
	v, err := other.ToOutPoint()
	if err != nil {
		return false
	}
	return outPointEntity.Equal(o, v)
}

// Data returns the plain-data projection of o.
func (o OutPoint) Data() OutPointData {
	return OutPointData{TxHash: o.TxHash.Bytes(), Index: o.Index}
}

// ToOutPoint validates d and converts it into an OutPoint.
func (d OutPointData) ToOutPoint() (OutPoint, error) {
	txHash, err := HashFromBytes(d.TxHash)
	if err != nil {
		return OutPoint{}, invalid("txHash", "expected %d bytes, got %d", HashSize, len(d.TxHash))
	}
	return OutPoint{TxHash: txHash, Index: d.Index}, nil
}

// CellOutput describes a cell: its capacity in shannons, the lock that
// guards it and an optional type script.
type CellOutput struct {
	Capacity uint64
	Lock     Script
	Type     *Script
}

// CellOutputLike is anything convertible into a CellOutput.
type CellOutputLike interface {
	ToCellOutput() (CellOutput, error)
}

// CellOutputData is the plain-data projection of a CellOutput.
type CellOutputData struct {
	Capacity uint64      `json:"capacity"`
	Lock     ScriptData  `json:"lock"`
	Type     *ScriptData `json:"type,omitempty"`
}

var cellOutputCodec = molecule.Map(
	molecule.Table(
		molecule.Field("capacity", molecule.Uint64),
		molecule.Field("lock", scriptCodec),
		molecule.Field("type", scriptOptCodec),
	),
	func(o CellOutput) (molecule.Record, error) {
		return molecule.Record{"capacity": o.Capacity, "lock": o.Lock, "type": o.Type}, nil
	},
	func(r molecule.Record) (CellOutput, error) {
		capacity, err := molecule.Get[uint64](r, "capacity")
		if err != nil {
			return CellOutput{}, err
		}
		lock, err := molecule.Get[Script](r, "lock")
		if err != nil {
			return CellOutput{}, err
		}
		typ, err := molecule.Get[*Script](r, "type")
		if err != nil {
			return CellOutput{}, err
		}
		return CellOutput{Capacity: capacity, Lock: lock, Type: typ}, nil
	},
)

var (
	cellOutputEntity   = molecule.Bind(cellOutputCodec, nil)
	cellOutputVecCodec = molecule.Vector(cellOutputCodec)
)

// CellOutputFrom converts o into a CellOutput.
func CellOutputFrom(o CellOutputLike) (CellOutput, error) { return o.ToCellOutput() }

// CellOutputFromBytes decodes a CellOutput.
func CellOutputFromBytes(b []byte) (CellOutput, error) { return cellOutputEntity.FromBytes(b) }

func (o CellOutput) ToCellOutput() (CellOutput, error) { return o, nil }

func (o CellOutput) ToBytes() ([]byte, error) { return cellOutputEntity.Encode(o) }

func (o CellOutput) Clone() (CellOutput, error) { return cellOutputEntity.Clone(o) }

// Eq reports whether o and other encode to the same bytes.
func (o CellOutput) Eq(other CellOutputLike) bool {
	v, err := other.ToCellOutput()
	if err != nil {
		return false
	}
	return cellOutputEntity.Equal(o, v)
}

// OccupiedSize is the number of bytes the output itself occupies: 8 for the
// capacity field plus the lock and type scripts. Cell data is not included.
func (o CellOutput) OccupiedSize() int {
	size := 8 + o.Lock.OccupiedSize()
	if o.Type != nil {
		size += o.Type.OccupiedSize()
	}
	return size
}

// OccupiedCapacity is the number of bytes a cell holding o and dataLen bytes
// of data occupies. It is the capacity Normalized gives outputs without one.
func (o CellOutput) OccupiedCapacity(dataLen int) uint64 {
	return uint64(o.OccupiedSize() + dataLen)
}

// MinimumCapacity is the capacity, in shannons, a cell holding o and dataLen
// bytes of data needs on chain.
func (o CellOutput) MinimumCapacity(dataLen int) uint64 {
	return o.OccupiedCapacity(dataLen) * ShannonsPerByte
}

// Data returns the plain-data projection of o.
func (o CellOutput) Data() CellOutputData {
	d := CellOutputData{Capacity: o.Capacity, Lock: o.Lock.Data()}
	if o.Type != nil {
		t := o.Type.Data()
		d.Type = &t
	}
	return d
}

// ToCellOutput validates d and converts it into a CellOutput.
func (d CellOutputData) ToCellOutput() (CellOutput, error) {
	lock, err := d.Lock.ToScript()
	if err != nil {
		return CellOutput{}, err
	}
	o := CellOutput{Capacity: d.Capacity, Lock: lock}
	if d.Type != nil {
		typ, err := d.Type.ToScript()
		if err != nil {
			return CellOutput{}, err
		}
		o.Type = &typ
	}
	return o, nil
}

// CellInput spends a previous output. CellOutput and OutputData carry the
// resolved cell; they are filled in by resolution and never encoded.
type CellInput struct {
	PreviousOutput OutPoint
	Since          uint64
	CellOutput     *CellOutput
	OutputData     []byte
}

// CellInputLike is anything convertible into a CellInput.
type CellInputLike interface {
	ToCellInput() (CellInput, error)
}

// CellInputData is the plain-data projection of a CellInput.
type CellInputData struct {
	PreviousOutput OutPointData    `json:"previousOutput"`
	Since          uint64          `json:"since"`
	CellOutput     *CellOutputData `json:"cellOutput,omitempty"`
	OutputData     bytesutil.Hex   `json:"outputData,omitempty"`
}

// The wire layout puts since first.
var cellInputCodec = molecule.Map(
	molecule.Must(molecule.Struct(
		molecule.Field("since", molecule.Uint64),
		molecule.Field("previousOutput", outPointCodec),
	)),
	func(in CellInput) (molecule.Record, error) {
		return molecule.Record{"since": in.Since, "previousOutput": in.PreviousOutput}, nil
	},
	func(r molecule.Record) (CellInput, error) {
		since, err := molecule.Get[uint64](r, "since")
		if err != nil {
			return CellInput{}, err
		}
		prev, err := molecule.Get[OutPoint](r, "previousOutput")
		if err != nil {
			return CellInput{}, err
		}
		return CellInput{PreviousOutput: prev, Since: since}, nil
	},
)

var (
	cellInputEntity   = molecule.Bind(cellInputCodec, nil)
	cellInputVecCodec = molecule.Vector(cellInputCodec)
)

// CellInputFrom converts in into a CellInput.
func CellInputFrom(in CellInputLike) (CellInput, error) { return in.ToCellInput() }

// CellInputFromBytes decodes a CellInput. The result is unresolved.
func CellInputFromBytes(b []byte) (CellInput, error) { return cellInputEntity.FromBytes(b) }

func (in CellInput) ToCellInput() (CellInput, error) { return in, nil }

func (in CellInput) ToBytes() ([]byte, error) { return cellInputEntity.Encode(in) }

// Clone returns an independent copy of in, including its resolved cell.
func (in CellInput) Clone() (CellInput, error) {
	c, err := cellInputEntity.Clone(in)
	if err != nil {
		return CellInput{}, err
	}
	if in.CellOutput != nil {
		out, err := in.CellOutput.Clone()
		if err != nil {
			return CellInput{}, err
		}
		c.CellOutput = &out
	}
	c.OutputData = bytesutil.Clone(in.OutputData)
	return c, nil
}

// Eq reports whether in and other encode to the same bytes. Resolved data
// is not compared.
func (in CellInput) Eq(other CellInputLike) bool {
	v, err := other.ToCellInput()
	if err != nil {
		return false
	}
	return cellInputEntity.Equal(in, v)
}

// Data returns the plain-data projection of in.
func (in CellInput) Data() CellInputData {
	d := CellInputData{
		PreviousOutput: in.PreviousOutput.Data(),
		Since:          in.Since,
		OutputData:     bytesutil.Clone(in.OutputData),
	}
	if in.CellOutput != nil {
		o := in.CellOutput.Data()
		d.CellOutput = &o
	}
	return d
}

// ToCellInput validates d and converts it into a CellInput.
func (d CellInputData) ToCellInput() (CellInput, error) {
	prev, err := d.PreviousOutput.ToOutPoint()
	if err != nil {
		return CellInput{}, err
	}
	in := CellInput{PreviousOutput: prev, Since: d.Since, OutputData: bytesutil.Clone(d.OutputData)}
	if d.CellOutput != nil {
		out, err := d.CellOutput.ToCellOutput()
		if err != nil {
			return CellInput{}, err
		}
		in.CellOutput = &out
	}
	return in, nil
}

// DepType says whether a cell dep points at code or at a group of deps.
type DepType uint8

const (
	DepTypeCode     DepType = 0x00
	DepTypeDepGroup DepType = 0x01
)

func (t DepType) String() string {
	switch t {
	case DepTypeCode:
		return "code"
	case DepTypeDepGroup:
		return "depGroup"
	default:
		return "unknown"
	}
}

// ParseDepType accepts "code" or "depGroup".
func ParseDepType(name string) (DepType, error) {
	switch name {
	case "code":
		return DepTypeCode, nil
	case "depGroup", "dep_group":
		return DepTypeDepGroup, nil
	default:
		return 0, invalid("depType", "unknown dep type %q", name)
	}
}

var depTypeCodec = molecule.Map(molecule.Uint8,
	func(t DepType) (uint8, error) {
		if t > DepTypeDepGroup {
			return 0, invalid("depType", "unknown dep type 0x%02x", uint8(t))
		}
		return uint8(t), nil
	},
	func(v uint8) (DepType, error) {
		if DepType(v) > DepTypeDepGroup {
			return 0, malformed("depType: unknown dep type 0x%02x", v)
		}
		return DepType(v), nil
	},
)

// CellDep makes a cell available to scripts as a dependency.
type CellDep struct {
	OutPoint OutPoint
	DepType  DepType
}

// CellDepLike is anything convertible into a CellDep.
type CellDepLike interface {
	ToCellDep() (CellDep, error)
}

// CellDepData is the plain-data projection of a CellDep.
type CellDepData struct {
	OutPoint OutPointData `json:"outPoint"`
	DepType  string       `json:"depType"`
}

var cellDepCodec = molecule.Map(
	molecule.Must(molecule.Struct(
		molecule.Field("outPoint", outPointCodec),
		molecule.Field("depType", depTypeCodec),
	)),
	func(d CellDep) (molecule.Record, error) {
		return molecule.Record{"outPoint": d.OutPoint, "depType": d.DepType}, nil
	},
	func(r molecule.Record) (CellDep, error) {
		op, err := molecule.Get[OutPoint](r, "outPoint")
		if err != nil {
			return CellDep{}, err
		}
		dt, err := molecule.Get[DepType](r, "depType")
		if err != nil {
			return CellDep{}, err
		}
		return CellDep{OutPoint: op, DepType: dt}, nil
	},
)

var (
	cellDepEntity   = molecule.Bind(cellDepCodec, nil)
	cellDepVecCodec = molecule.Vector(cellDepCodec)
)

// CellDepFrom converts d into a CellDep.
func CellDepFrom(d CellDepLike) (CellDep, error) { return d.ToCellDep() }

// CellDepFromBytes decodes a CellDep.
func CellDepFromBytes(b []byte) (CellDep, error) { return cellDepEntity.FromBytes(b) }

func (d CellDep) ToCellDep() (CellDep, error) { return d, nil }

func (d CellDep) ToBytes() ([]byte, error) { return cellDepEntity.Encode(d) }

func (d CellDep) Clone() (CellDep, error) { return cellDepEntity.Clone(d) }

// Eq reports whether d and other encode to the same bytes.
func (d CellDep) Eq(other CellDepLike) bool {
	v, err := other.ToCellDep()
	if err != nil {
		return false
	}
	return cellDepEntity.Equal(d, v)
}

// Data returns the plain-data projection of d.
func (d CellDep) Data() CellDepData {
	return CellDepData{OutPoint: d.OutPoint.Data(), DepType: d.DepType.String()}
}

// ToCellDep validates d and converts it into a CellDep.
func (d CellDepData) ToCellDep() (CellDep, error) {
	op, err := d.OutPoint.ToOutPoint()
	if err != nil {
		return CellDep{}, err
	}
	dt, err := ParseDepType(d.DepType)
	if err != nil {
		return CellDep{}, err
	}
	return CellDep{OutPoint: op, DepType: dt}, nil
}

// Cell is a live cell: where it lives, what guards it and what it stores.
type Cell struct {
	OutPoint   OutPoint
	CellOutput CellOutput
	OutputData []byte
}

// CellData is the plain-data projection of a Cell.
type CellData struct {
	OutPoint   OutPointData   `json:"outPoint"`
	CellOutput CellOutputData `json:"cellOutput"`
	OutputData bytesutil.Hex  `json:"outputData"`
}

// CellLike is anything convertible into a Cell.
type CellLike interface {
	ToCell() (Cell, error)
}

// cellCodec is the storage layout of a resolved cell; it is not part of
// the chain wire format.
var cellCodec = molecule.Map(
	molecule.Table(
		molecule.Field("outPoint", outPointCodec),
		molecule.Field("cellOutput", cellOutputCodec),
		molecule.Field("outputData", molecule.Bytes),
	),
	func(c Cell) (molecule.Record, error) {
		return molecule.Record{"outPoint": c.OutPoint, "cellOutput": c.CellOutput, "outputData": c.OutputData}, nil
	},
	func(r molecule.Record) (Cell, error) {
		op, err := molecule.Get[OutPoint](r, "outPoint")
		if err != nil {
			return Cell{}, err
		}
		out, err := molecule.Get[CellOutput](r, "cellOutput")
		if err != nil {
			return Cell{}, err
		}
		data, err := molecule.Get[[]byte](r, "outputData")
		if err != nil {
			return Cell{}, err
		}
		return Cell{OutPoint: op, CellOutput: out, OutputData: data}, nil
	},
)

var cellEntity = molecule.Bind(cellCodec, nil)

// CellFrom converts c into a Cell.
func CellFrom(c CellLike) (Cell, error) { return c.ToCell() }

// CellFromBytes decodes a Cell from its storage layout.
func CellFromBytes(b []byte) (Cell, error) { return cellEntity.FromBytes(b) }

func (c Cell) ToCell() (Cell, error) { return c, nil }

func (c Cell) ToBytes() ([]byte, error) { return cellEntity.Encode(c) }

func (c Cell) Clone() (Cell, error) { return cellEntity.Clone(c) }

// Eq reports whether c and other encode to the same bytes.
func (c Cell) Eq(other CellLike) bool {
	v, err := other.ToCell()
	if err != nil {
		return false
	}
	return cellEntity.Equal(c, v)
}

// Input returns a resolved input spending c.
func (c Cell) Input(since uint64) CellInput {
	out := c.CellOutput
	return CellInput{
		PreviousOutput: c.OutPoint,
		Since:          since,
		CellOutput:     &out,
		OutputData:     c.OutputData,
	}
}

// Data returns the plain-data projection of c.
func (c Cell) Data() CellData {
	return CellData{
		OutPoint:   c.OutPoint.Data(),
		CellOutput: c.CellOutput.Data(),
		OutputData: bytesutil.Clone(nonNilBytes(c.OutputData)),
	}
}

// ToCell validates d and converts it into a Cell.
func (d CellData) ToCell() (Cell, error) {
	op, err := d.OutPoint.ToOutPoint()
	if err != nil {
		return Cell{}, err
	}
	out, err := d.CellOutput.ToCellOutput()
	if err != nil {
		return Cell{}, err
	}
	return Cell{OutPoint: op, CellOutput: out, OutputData: bytesutil.Clone(nonNilBytes(d.OutputData))}, nil
}
