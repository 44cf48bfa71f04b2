package ckb

import (
	"fmt"
	"math/bits"

	"github.com/suffix-labs/ckb-molecule/pkg/bytesutil"
	"github.com/suffix-labs/ckb-molecule/pkg/hasher"
	"github.com/suffix-labs/ckb-molecule/pkg/molecule"
)

// Transaction consumes inputs and creates outputs. Everything except the
// witnesses forms the raw transaction, whose hash identifies it.
//
// Transactions built through TransactionFrom on plain data are normalized:
// OutputsData is padded with empty entries to the length of Outputs and a
// zero output capacity is replaced with the output's occupied capacity.
// A *Transaction passed to TransactionFrom is returned unchanged.
type Transaction struct {
	Version     uint32
	CellDeps    []CellDep
	HeaderDeps  []Hash
	Inputs      []CellInput
	Outputs     []CellOutput
	OutputsData [][]byte
	Witnesses   [][]byte
}

// TransactionLike is anything convertible into a *Transaction.
type TransactionLike interface {
	ToTransaction() (*Transaction, error)
}

// TransactionData is the plain-data projection of a Transaction.
type TransactionData struct {
	Version     uint32           `json:"version"`
	CellDeps    []CellDepData    `json:"cellDeps"`
	HeaderDeps  []bytesutil.Hex  `json:"headerDeps"`
	Inputs      []CellInputData  `json:"inputs"`
	Outputs     []CellOutputData `json:"outputs"`
	OutputsData []bytesutil.Hex  `json:"outputsData"`
	Witnesses   []bytesutil.Hex  `json:"witnesses"`
}

var rawTransactionCodec = molecule.Map(
	molecule.Table(
		molecule.Field("version", molecule.Uint32),
		molecule.Field("cellDeps", cellDepVecCodec),
		molecule.Field("headerDeps", hashVecCodec),
		molecule.Field("inputs", cellInputVecCodec),
		molecule.Field("outputs", cellOutputVecCodec),
		molecule.Field("outputsData", molecule.BytesVec),
	),
	func(tx Transaction) (molecule.Record, error) {
		return molecule.Record{
			"version":     tx.Version,
			"cellDeps":    tx.CellDeps,
			"headerDeps":  tx.HeaderDeps,
			"inputs":      tx.Inputs,
			"outputs":     tx.Outputs,
			"outputsData": tx.OutputsData,
		}, nil
	},
	func(r molecule.Record) (Transaction, error) {
		var tx Transaction
		var err error
		if tx.Version, err = molecule.Get[uint32](r, "version"); err != nil {
			return Transaction{}, err
		}
		if tx.CellDeps, err = molecule.Get[[]CellDep](r, "cellDeps"); err != nil {
			return Transaction{}, err
		}
		if tx.HeaderDeps, err = molecule.Get[[]Hash](r, "headerDeps"); err != nil {
			return Transaction{}, err
		}
		if tx.Inputs, err = molecule.Get[[]CellInput](r, "inputs"); err != nil {
			return Transaction{}, err
		}
		if tx.Outputs, err = molecule.Get[[]CellOutput](r, "outputs"); err != nil {
			return Transaction{}, err
		}
		if tx.OutputsData, err = molecule.Get[[][]byte](r, "outputsData"); err != nil {
			return Transaction{}, err
		}
		return tx, nil
	},
)

var transactionCodec = molecule.Map(
	molecule.Table(
		molecule.Field("raw", rawTransactionCodec),
		molecule.Field("witnesses", molecule.BytesVec),
	),
	func(tx Transaction) (molecule.Record, error) {
		return molecule.Record{"raw": tx, "witnesses": tx.Witnesses}, nil
	},
	func(r molecule.Record) (Transaction, error) {
		tx, err := molecule.Get[Transaction](r, "raw")
		if err != nil {
			return Transaction{}, err
		}
		if tx.Witnesses, err = molecule.Get[[][]byte](r, "witnesses"); err != nil {
			return Transaction{}, err
		}
		return tx, nil
	},
)

var (
	rawTransactionEntity = molecule.Bind(rawTransactionCodec, nil)
	transactionEntity    = molecule.Bind(transactionCodec, nil)
)

// TransactionFrom converts tx into a *Transaction.
func TransactionFrom(tx TransactionLike) (*Transaction, error) {
	return tx.ToTransaction()
}

// TransactionFromBytes decodes a full transaction. Inputs are unresolved.
func TransactionFromBytes(b []byte) (*Transaction, error) {
	tx, err := transactionEntity.FromBytes(b)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// ToTransaction returns tx itself.
func (tx *Transaction) ToTransaction() (*Transaction, error) {
	return tx, nil
}

// ToBytes encodes the full transaction, witnesses included.
func (tx *Transaction) ToBytes() ([]byte, error) {
	return transactionEntity.Encode(*tx)
}

// RawBytes encodes the raw transaction, without witnesses.
func (tx *Transaction) RawBytes() ([]byte, error) {
	return rawTransactionEntity.Encode(*tx)
}

// Clone returns an independent copy of tx, resolved inputs included.
func (tx *Transaction) Clone() (*Transaction, error) {
	c, err := transactionEntity.Clone(*tx)
	if err != nil {
		return nil, err
	}
	for i, in := range tx.Inputs {
		if c.Inputs[i], err = in.Clone(); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// Eq reports whether tx and other encode to the same bytes.
func (tx *Transaction) Eq(other TransactionLike) bool {
	o, err := other.ToTransaction()
	if err != nil || o == nil {
		return false
	}
	return transactionEntity.Equal(*tx, *o)
}

// Hash returns the transaction hash: the hash of the raw transaction. A nil
// factory selects the CKB hasher.
func (tx *Transaction) Hash(f hasher.Factory) (Hash, error) {
	b, err := tx.RawBytes()
	if err != nil {
		return Hash{}, err
	}
	return hashOf(f, b), nil
}

// HashFull returns the hash of the full encoding, witnesses included.
func (tx *Transaction) HashFull(f hasher.Factory) (Hash, error) {
	b, err := tx.ToBytes()
	if err != nil {
		return Hash{}, err
	}
	return hashOf(f, b), nil
}

// Normalized returns a copy of tx with OutputsData padded to the number of
// outputs and every zero capacity replaced by the occupied capacity of the
// output and its data. Supplied output data is never truncated.
func (tx *Transaction) Normalized() (*Transaction, error) {
	c, err := tx.Clone()
	if err != nil {
		return nil, err
	}
	for len(c.OutputsData) < len(c.Outputs) {
		c.OutputsData = append(c.OutputsData, []byte{})
	}
	for i := range c.Outputs {
		if c.Outputs[i].Capacity == 0 {
			c.Outputs[i].Capacity = c.Outputs[i].OccupiedCapacity(len(c.OutputsData[i]))
		}
	}
	return c, nil
}

// OutputsCapacity sums the capacity of every output.
func (tx *Transaction) OutputsCapacity() (uint64, error) {
	var total uint64
	for i, out := range tx.Outputs {
		sum, carry := bits.Add64(total, out.Capacity, 0)
		if carry != 0 {
			return 0, fmt.Errorf("output %d: capacity sum overflows", i)
		}
		total = sum
	}
	return total, nil
}

// InputsCapacity sums the capacity of every resolved input.
func (tx *Transaction) InputsCapacity() (uint64, error) {
	var total uint64
	for i, in := range tx.Inputs {
		if in.CellOutput == nil {
			return 0, unresolved(i)
		}
		sum, carry := bits.Add64(total, in.CellOutput.Capacity, 0)
		if carry != 0 {
			return 0, fmt.Errorf("input %d: capacity sum overflows", i)
		}
		total = sum
	}
	return total, nil
}

// Fee is the inputs capacity minus the outputs capacity.
func (tx *Transaction) Fee() (uint64, error) {
	in, err := tx.InputsCapacity()
	if err != nil {
		return 0, err
	}
	out, err := tx.OutputsCapacity()
	if err != nil {
		return 0, err
	}
	if out > in {
		return 0, fmt.Errorf("outputs capacity %d exceeds inputs capacity %d", out, in)
	}
	return in - out, nil
}

// Data returns the plain-data projection of tx.
func (tx *Transaction) Data() TransactionData {
	d := TransactionData{
		Version:     tx.Version,
		CellDeps:    make([]CellDepData, len(tx.CellDeps)),
		HeaderDeps:  make([]bytesutil.Hex, len(tx.HeaderDeps)),
		Inputs:      make([]CellInputData, len(tx.Inputs)),
		Outputs:     make([]CellOutputData, len(tx.Outputs)),
		OutputsData: make([]bytesutil.Hex, len(tx.OutputsData)),
		Witnesses:   make([]bytesutil.Hex, len(tx.Witnesses)),
	}
	for i, dep := range tx.CellDeps {
		d.CellDeps[i] = dep.Data()
	}
	for i, h := range tx.HeaderDeps {
		d.HeaderDeps[i] = h.Bytes()
	}
	for i, in := range tx.Inputs {
		d.Inputs[i] = in.Data()
	}
	for i, out := range tx.Outputs {
		d.Outputs[i] = out.Data()
	}
	for i, data := range tx.OutputsData {
		d.OutputsData[i] = bytesutil.Clone(nonNilBytes(data))
	}
	for i, w := range tx.Witnesses {
		d.Witnesses[i] = bytesutil.Clone(nonNilBytes(w))
	}
	return d
}

// ToTransaction validates d, converts it and normalizes the result.
func (d TransactionData) ToTransaction() (*Transaction, error) {
	tx := &Transaction{
		Version:     d.Version,
		CellDeps:    make([]CellDep, len(d.CellDeps)),
		HeaderDeps:  make([]Hash, len(d.HeaderDeps)),
		Inputs:      make([]CellInput, len(d.Inputs)),
		Outputs:     make([]CellOutput, len(d.Outputs)),
		OutputsData: make([][]byte, len(d.OutputsData)),
		Witnesses:   make([][]byte, len(d.Witnesses)),
	}
	var err error
	for i, dep := range d.CellDeps {
		if tx.CellDeps[i], err = dep.ToCellDep(); err != nil {
			return nil, fmt.Errorf("cellDeps[%d]: %w", i, err)
		}
	}
	for i, h := range d.HeaderDeps {
		if tx.HeaderDeps[i], err = HashFromBytes(h); err != nil {
			return nil, fmt.Errorf("headerDeps[%d]: %w", i, err)
		}
	}
	for i, in := range d.Inputs {
		if tx.Inputs[i], err = in.ToCellInput(); err != nil {
			return nil, fmt.Errorf("inputs[%d]: %w", i, err)
		}
	}
	for i, out := range d.Outputs {
		if tx.Outputs[i], err = out.ToCellOutput(); err != nil {
			return nil, fmt.Errorf("outputs[%d]: %w", i, err)
		}
	}
	for i, data := range d.OutputsData {
		tx.OutputsData[i] = bytesutil.Clone(nonNilBytes(data))
	}
	for i, w := range d.Witnesses {
		tx.Witnesses[i] = bytesutil.Clone(nonNilBytes(w))
	}
	return tx.Normalized()
}
