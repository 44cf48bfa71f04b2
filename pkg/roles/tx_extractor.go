package roles

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/suffix-labs/ckb-molecule/pkg/ckb"
	"github.com/suffix-labs/ckb-molecule/pkg/hasher"
)

// TxExtractor checks that a transaction is complete and produces its final
// serialized form.
//
// A transaction is complete when:
//   - it has at least one input and every input is resolved
//   - every output has an OutputsData entry
//   - the inputs hold at least the capacity of the outputs
//   - the first witness of every lock group is a WitnessArgs whose lock is
//     set and not a zero-filled placeholder
//
// Signatures are not verified here; use Signer.Verify or VerifyGroups.
type TxExtractor struct {
	tx     *ckb.Transaction
	hasher hasher.Factory
	logger *zap.Logger
}

// NewTxExtractor creates a TxExtractor over tx. A nil factory selects the
// CKB hasher.
func NewTxExtractor(tx *ckb.Transaction, f hasher.Factory, logger *zap.Logger) *TxExtractor {
	if f == nil {
		f = hasher.NewCkb
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TxExtractor{tx: tx, hasher: f, logger: logger}
}

// Extract validates the transaction and returns its serialized bytes and
// hash.
func (e *TxExtractor) Extract() ([]byte, ckb.Hash, error) {
	if err := e.validate(); err != nil {
		return nil, ckb.Hash{}, err
	}

	txBytes, err := e.tx.ToBytes()
	if err != nil {
		return nil, ckb.Hash{}, &FinalizationError{Code: ErrCodeEncoding, Message: "failed to serialize transaction", Cause: err}
	}
	txHash, err := e.tx.Hash(e.hasher)
	if err != nil {
		return nil, ckb.Hash{}, &FinalizationError{Code: ErrCodeEncoding, Message: "failed to hash transaction", Cause: err}
	}

	e.logger.Info("extracted transaction", zap.Stringer("hash", txHash), zap.Int("size", len(txBytes)))
	return txBytes, txHash, nil
}

func (e *TxExtractor) validate() error {
	tx := e.tx
	if len(tx.Inputs) == 0 {
		return &FinalizationError{Code: ErrCodeNoInputs, Message: "transaction has no inputs"}
	}
	for i, in := range tx.Inputs {
		if in.CellOutput == nil {
			return &FinalizationError{Code: ErrCodeUnresolvedInput, Message: fmt.Sprintf("input %d is not resolved", i)}
		}
	}
	if len(tx.OutputsData) != len(tx.Outputs) {
		return &FinalizationError{
			Code:    ErrCodeOutputsDataMismatch,
			Message: fmt.Sprintf("%d outputs but %d outputs data", len(tx.Outputs), len(tx.OutputsData)),
		}
	}

	if _, err := tx.Fee(); err != nil {
		return &FinalizationError{Code: ErrCodeInsufficientCapacity, Message: "outputs exceed inputs", Cause: err}
	}

	groups, err := LockGroups(tx)
	if err != nil {
		return &FinalizationError{Code: ErrCodeEncoding, Message: "failed to group inputs", Cause: err}
	}
	for _, g := range groups {
		wa, err := tx.GetWitnessArgsAt(g.Position)
		if err != nil {
			return &FinalizationError{
				Code:    ErrCodeUnsignedInput,
				Message: fmt.Sprintf("witness %d is not WitnessArgs", g.Position),
				Cause:   err,
			}
		}
		if wa == nil || isPlaceholder(wa.Lock) {
			return &FinalizationError{
				Code:    ErrCodeUnsignedInput,
				Message: fmt.Sprintf("input %d is not signed", g.Position),
			}
		}
	}
	return nil
}

// VerifyGroups checks the signature of every lock group that uses the
// default secp256k1/blake160 lock. Groups under other locks are skipped.
func (e *TxExtractor) VerifyGroups() error {
	groups, err := LockGroups(e.tx)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if g.Lock.CodeHash != Secp256k1Blake160CodeHash || g.Lock.HashType != ckb.HashTypeType {
			continue
		}
		if err := verifyGroup(e.tx, g.Lock, e.hasher); err != nil {
			return err
		}
	}
	return nil
}

// LockGroup is the set of inputs sharing a lock script.
type LockGroup struct {
	Lock     ckb.Script
	Position int
	Inputs   []int
}

// LockGroups partitions the resolved inputs of tx by lock, in order of each
// group's first input.
func LockGroups(tx *ckb.Transaction) ([]LockGroup, error) {
	var groups []LockGroup
	index := make(map[string]int)
	for i, in := range tx.Inputs {
		if in.CellOutput == nil {
			return nil, &ckb.ResolutionError{InputIndex: i, Message: "input is not resolved"}
		}
		key, err := in.CellOutput.Lock.ToBytes()
		if err != nil {
			return nil, err
		}
		if g, ok := index[string(key)]; ok {
			groups[g].Inputs = append(groups[g].Inputs, i)
			continue
		}
		index[string(key)] = len(groups)
		groups = append(groups, LockGroup{Lock: in.CellOutput.Lock, Position: i, Inputs: []int{i}})
	}
	return groups, nil
}
