// Package roles splits CKB transaction handling into separate steps that
// can run in different places or at different times:
//   - Builder: assembles cell deps, inputs, outputs and witnesses
//   - Signer: fills the witness lock of a secp256k1/blake160 lock group
//   - Combiner: merges witnesses produced by parallel signers
//   - Extractor: checks the transaction is complete and serializes it
//
// Lock groups and the signing digest follow the sighash-all scheme of the
// ckb package: every input whose resolved lock equals a script forms one
// group, and the group's first input carries the signature.
package roles

import (
	"fmt"
	"math/bits"

	"go.uber.org/zap"

	"github.com/suffix-labs/ckb-molecule/pkg/bytesutil"
	"github.com/suffix-labs/ckb-molecule/pkg/ckb"
)

// Builder assembles a transaction. It owns the transaction until Build is
// called; values passed in are copied.
type Builder struct {
	tx     *ckb.Transaction
	logger *zap.Logger
}

// NewBuilder starts an empty transaction with the given version.
func NewBuilder(version uint32, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		tx:     &ckb.Transaction{Version: version},
		logger: logger,
	}
}

// AddCellDep appends a cell dependency.
func (b *Builder) AddCellDep(dep ckb.CellDep) *Builder {
	b.tx.CellDeps = append(b.tx.CellDeps, dep)
	return b
}

// AddHeaderDep appends a header dependency.
func (b *Builder) AddHeaderDep(hash ckb.Hash) *Builder {
	b.tx.HeaderDeps = append(b.tx.HeaderDeps, hash)
	return b
}

// AddInput appends an input. A resolved input keeps its cell output and
// data, which signing and capacity checks need.
func (b *Builder) AddInput(in ckb.CellInput) error {
	cloned, err := in.Clone()
	if err != nil {
		return fmt.Errorf("add input %d: %w", len(b.tx.Inputs), err)
	}
	b.tx.Inputs = append(b.tx.Inputs, cloned)
	return nil
}

// AddCell spends a live cell as a resolved input.
func (b *Builder) AddCell(cell ckb.Cell, since uint64) error {
	return b.AddInput(cell.Input(since))
}

// AddOutput appends an output with its data. A zero capacity is replaced
// with the minimum capacity, in shannons, of the output and its data.
func (b *Builder) AddOutput(out ckb.CellOutput, data []byte) error {
	cloned, err := out.Clone()
	if err != nil {
		return fmt.Errorf("add output %d: %w", len(b.tx.Outputs), err)
	}
	if cloned.Capacity == 0 {
		cloned.Capacity = cloned.MinimumCapacity(len(data))
	}
	b.tx.Outputs = append(b.tx.Outputs, cloned)
	b.tx.OutputsData = append(b.tx.OutputsData, bytesutil.From(data))
	return nil
}

// SetWitness replaces the witness at index i, padding with empty witnesses.
func (b *Builder) SetWitness(i int, witness []byte) *Builder {
	for len(b.tx.Witnesses) <= i {
		b.tx.Witnesses = append(b.tx.Witnesses, []byte{})
	}
	b.tx.Witnesses[i] = bytesutil.From(witness)
	return b
}

// AddChangeOutput appends an output locked by lock that returns whatever
// the inputs hold beyond the current outputs and fee. Every input must be
// resolved. It fails when the remainder cannot cover the change cell's own
// occupied capacity.
func (b *Builder) AddChangeOutput(lock ckb.Script, fee uint64) error {
	tx, err := b.tx.Normalized()
	if err != nil {
		return err
	}
	in, err := tx.InputsCapacity()
	if err != nil {
		return err
	}
	out, err := tx.OutputsCapacity()
	if err != nil {
		return err
	}
	spent, carry := bits.Add64(out, fee, 0)
	if carry != 0 || spent > in {
		return &ProposalError{Message: fmt.Sprintf("inputs hold %d shannons, outputs and fee need more", in)}
	}

	change := ckb.CellOutput{Capacity: in - spent, Lock: lock}
	if need := change.MinimumCapacity(0); change.Capacity < need {
		return &ProposalError{Message: fmt.Sprintf("change of %d shannons is below the %d a change cell occupies", change.Capacity, need)}
	}
	b.logger.Debug("adding change output",
		zap.Uint64("inputs", in),
		zap.Uint64("outputs", out),
		zap.Uint64("fee", fee),
		zap.Uint64("change", change.Capacity))
	return b.AddOutput(change, nil)
}

// Build returns the normalized transaction. Each input also gets an empty
// witness slot if the witness list is shorter than the inputs.
func (b *Builder) Build() (*ckb.Transaction, error) {
	tx, err := b.tx.Normalized()
	if err != nil {
		return nil, err
	}
	for len(tx.Witnesses) < len(tx.Inputs) {
		tx.Witnesses = append(tx.Witnesses, []byte{})
	}
	b.logger.Debug("built transaction",
		zap.Int("inputs", len(tx.Inputs)),
		zap.Int("outputs", len(tx.Outputs)),
		zap.Int("cellDeps", len(tx.CellDeps)))
	return tx, nil
}
