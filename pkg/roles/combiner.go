package roles

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/suffix-labs/ckb-molecule/pkg/bytesutil"
	"github.com/suffix-labs/ckb-molecule/pkg/ckb"
	"github.com/suffix-labs/ckb-molecule/pkg/hasher"
)

// Combiner merges copies of one transaction that were signed by different
// parties.
//
// The copies must share the same transaction hash, i.e. the same raw
// transaction. Witnesses are merged index by index:
//   - identical witnesses are kept as they are
//   - an empty witness yields to a non-empty one
//   - two WitnessArgs merge when their type fields agree and their locks
//     agree or one of them is still a zero-filled placeholder
//
// Anything else is a conflict and fails the merge.
type Combiner struct {
	txs    []*ckb.Transaction
	hasher hasher.Factory
	logger *zap.Logger
}

// NewCombiner creates a Combiner over txs. A nil factory selects the CKB
// hasher.
func NewCombiner(txs []*ckb.Transaction, f hasher.Factory, logger *zap.Logger) *Combiner {
	if f == nil {
		f = hasher.NewCkb
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Combiner{txs: txs, hasher: f, logger: logger}
}

// Combine merges all transactions into a new one. The inputs are not
// modified.
func (c *Combiner) Combine() (*ckb.Transaction, error) {
	if len(c.txs) == 0 {
		return nil, &CombineError{Message: "no transactions to combine"}
	}

	result, err := c.txs[0].Clone()
	if err != nil {
		return nil, &CombineError{Message: "failed to copy transaction 0", Cause: err}
	}
	for i := 1; i < len(c.txs); i++ {
		if err := c.mergeInto(result, c.txs[i]); err != nil {
			return nil, &CombineError{Message: fmt.Sprintf("failed to merge transaction %d", i), Cause: err}
		}
	}

	c.logger.Debug("combined transactions", zap.Int("count", len(c.txs)), zap.Int("witnesses", len(result.Witnesses)))
	return result, nil
}

func (c *Combiner) mergeInto(dst, src *ckb.Transaction) error {
	if err := c.validateCompatible(dst, src); err != nil {
		return err
	}

	for len(dst.Witnesses) < len(src.Witnesses) {
		dst.Witnesses = append(dst.Witnesses, []byte{})
	}
	for i, w := range src.Witnesses {
		merged, err := mergeWitness(dst.Witnesses[i], w)
		if err != nil {
			return fmt.Errorf("witness %d: %w", i, err)
		}
		dst.Witnesses[i] = merged
	}

	// Keep resolution from whichever copy has it.
	for i := range dst.Inputs {
		if dst.Inputs[i].CellOutput == nil && src.Inputs[i].CellOutput != nil {
			in, err := src.Inputs[i].Clone()
			if err != nil {
				return err
			}
			dst.Inputs[i] = in
		}
	}
	return nil
}

// validateCompatible checks that both copies describe the same raw
// transaction.
func (c *Combiner) validateCompatible(a, b *ckb.Transaction) error {
	ha, err := a.Hash(c.hasher)
	if err != nil {
		return err
	}
	hb, err := b.Hash(c.hasher)
	if err != nil {
		return err
	}
	if ha != hb {
		return fmt.Errorf("incompatible transactions: hash %s != %s", ha, hb)
	}
	return nil
}

func mergeWitness(a, b []byte) ([]byte, error) {
	switch {
	case bytesutil.Equal(a, b):
		return a, nil
	case len(a) == 0:
		return bytesutil.Clone(b), nil
	case len(b) == 0:
		return a, nil
	}

	wa, err := ckb.WitnessArgsFromBytes(a)
	if err != nil {
		return nil, fmt.Errorf("conflicting witnesses: %w", err)
	}
	wb, err := ckb.WitnessArgsFromBytes(b)
	if err != nil {
		return nil, fmt.Errorf("conflicting witnesses: %w", err)
	}
	if !bytesutil.Equal(wa.InputType, wb.InputType) || (wa.InputType == nil) != (wb.InputType == nil) {
		return nil, fmt.Errorf("conflicting input type")
	}
	if !bytesutil.Equal(wa.OutputType, wb.OutputType) || (wa.OutputType == nil) != (wb.OutputType == nil) {
		return nil, fmt.Errorf("conflicting output type")
	}

	switch {
	case isPlaceholder(wb.Lock):
	case isPlaceholder(wa.Lock):
		wa.Lock = wb.Lock
	case !bytesutil.Equal(wa.Lock, wb.Lock):
		return nil, fmt.Errorf("conflicting locks")
	}
	return wa.ToBytes()
}

// isPlaceholder reports whether lock is absent or all zero bytes.
func isPlaceholder(lock []byte) bool {
	for _, b := range lock {
		if b != 0 {
			return false
		}
	}
	return true
}
