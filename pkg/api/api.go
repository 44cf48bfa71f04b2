// Package api provides the high-level entry points for building, signing and
// finalizing CKB transactions.
//
// Transactions travel between steps in their Molecule encoding, so each step
// can run in a different process. The encoding does not carry the cells an
// input spends; a Session resolves them from its cell store whenever a step
// needs them.
//
//  1. ProposeTransaction - builds a transaction from a proposal
//  2. GetSignHash - prepares a lock group and returns the digest to sign
//  3. AppendSignature - stores an externally made signature
//  4. SignTransaction - signs a lock group with a private key
//  5. Combine - merges copies signed by different parties
//  6. FinalizeAndExtract - checks signatures and returns the final bytes
//  7. Commit - applies a transaction to the cell store
//  8. ParseTransaction / SerializeTransaction - Molecule encoding
package api

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/suffix-labs/ckb-molecule/pkg/cellstore"
	"github.com/suffix-labs/ckb-molecule/pkg/ckb"
	"github.com/suffix-labs/ckb-molecule/pkg/crypto"
	"github.com/suffix-labs/ckb-molecule/pkg/hasher"
	"github.com/suffix-labs/ckb-molecule/pkg/roles"
)

// InputProposal names a live cell to spend.
type InputProposal struct {
	OutPoint ckb.OutPoint
	Since    uint64
}

// OutputProposal is a cell to create. A zero capacity becomes the cell's
// occupied capacity.
type OutputProposal struct {
	Output ckb.CellOutput
	Data   []byte
}

// TransactionProposal contains all inputs and outputs for a transaction.
type TransactionProposal struct {
	Version    uint32
	CellDeps   []ckb.CellDep
	HeaderDeps []ckb.Hash
	Inputs     []InputProposal
	Outputs    []OutputProposal

	// ChangeLock, when set, receives the inputs' capacity left after the
	// outputs and Fee.
	ChangeLock *ckb.Script
	Fee        uint64
}

// Session runs the API steps against a cell store.
type Session struct {
	store  cellstore.Store
	hasher hasher.Factory
	logger *zap.Logger
}

// NewSession creates a Session. A nil factory selects the CKB hasher.
func NewSession(store cellstore.Store, f hasher.Factory, logger *zap.Logger) *Session {
	if f == nil {
		f = hasher.NewCkb
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{store: store, hasher: f, logger: logger}
}

// ============================================================================
// API Function 1: ProposeTransaction
// ============================================================================

// ProposeTransaction builds a transaction from a proposal. Every input is
// looked up in the cell store; the result has one empty witness per input.
func (s *Session) ProposeTransaction(ctx context.Context, proposal *TransactionProposal) ([]byte, error) {
	b := roles.NewBuilder(proposal.Version, s.logger)
	for _, dep := range proposal.CellDeps {
		b.AddCellDep(dep)
	}
	for _, h := range proposal.HeaderDeps {
		b.AddHeaderDep(h)
	}

	for i, in := range proposal.Inputs {
		cell, err := s.store.GetCell(ctx, in.OutPoint)
		if err != nil {
			return nil, &roles.ProposalError{Message: fmt.Sprintf("input %d: cell %s#%d", i, in.OutPoint.TxHash, in.OutPoint.Index), Cause: err}
		}
		if err := b.AddCell(cell, in.Since); err != nil {
			return nil, err
		}
	}
	for _, out := range proposal.Outputs {
		if err := b.AddOutput(out.Output, out.Data); err != nil {
			return nil, err
		}
	}
	if proposal.ChangeLock != nil {
		if err := b.AddChangeOutput(*proposal.ChangeLock, proposal.Fee); err != nil {
			return nil, err
		}
	}

	tx, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}
	return SerializeTransaction(tx)
}

// ============================================================================
// API Function 2: GetSignHash
// ============================================================================

// GetSignHash reserves a 65-byte witness lock for the group locked by lock
// and returns the prepared transaction with the digest its signer must sign.
func (s *Session) GetSignHash(ctx context.Context, txBytes []byte, lock ckb.Script) ([]byte, ckb.SignHashInfo, error) {
	tx, err := s.resolve(ctx, txBytes)
	if err != nil {
		return nil, ckb.SignHashInfo{}, err
	}
	position, ok, err := tx.FindInputIndexByLock(lock)
	if err != nil {
		return nil, ckb.SignHashInfo{}, err
	}
	if !ok {
		return nil, ckb.SignHashInfo{}, &roles.SignError{InputIndex: -1, Message: "no input is locked by the script"}
	}
	if err := tx.PrepareWitnessLockAt(position, crypto.SignatureSize); err != nil {
		return nil, ckb.SignHashInfo{}, err
	}
	info, _, err := tx.GetSignHashInfo(lock, s.hasher)
	if err != nil {
		return nil, ckb.SignHashInfo{}, err
	}
	prepared, err := SerializeTransaction(tx)
	if err != nil {
		return nil, ckb.SignHashInfo{}, err
	}
	return prepared, info, nil
}

// ============================================================================
// API Function 3: AppendSignature
// ============================================================================

// AppendSignature writes signature into the witness lock of the group locked
// by lock. txBytes must be the prepared transaction from GetSignHash; the
// signature is verified against the group's digest first.
func (s *Session) AppendSignature(ctx context.Context, txBytes []byte, lock ckb.Script, signature []byte) ([]byte, error) {
	tx, err := s.resolve(ctx, txBytes)
	if err != nil {
		return nil, err
	}
	info, ok, err := tx.GetSignHashInfo(lock, s.hasher)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &roles.SignError{InputIndex: -1, Message: "no input is locked by the script"}
	}
	if !crypto.VerifySignature(lock.Args, info.Message, signature) {
		return nil, &roles.SignError{InputIndex: info.Position, Message: "signature does not match the lock args"}
	}

	wa, err := tx.GetWitnessArgsAt(info.Position)
	if err != nil {
		return nil, &roles.SignError{InputIndex: info.Position, Message: "witness is not WitnessArgs", Cause: err}
	}
	if wa == nil {
		wa = &ckb.WitnessArgs{}
	}
	wa.Lock = signature
	if err := tx.SetWitnessArgsAt(info.Position, *wa); err != nil {
		return nil, err
	}
	return SerializeTransaction(tx)
}

// ============================================================================
// API Function 4: SignTransaction
// ============================================================================

// SignTransaction signs the group locked by the default lock of key.
func (s *Session) SignTransaction(ctx context.Context, txBytes []byte, key *crypto.PrivateKey) ([]byte, error) {
	tx, err := s.resolve(ctx, txBytes)
	if err != nil {
		return nil, err
	}
	signer := roles.NewSigner(tx, s.hasher, s.logger)
	if _, err := signer.Sign(key); err != nil {
		return nil, err
	}
	return SerializeTransaction(signer.Finish())
}

// ============================================================================
// API Function 5: Combine
// ============================================================================

// Combine merges copies of one transaction signed by different parties.
func (s *Session) Combine(txBytesList [][]byte) ([]byte, error) {
	if len(txBytesList) == 0 {
		return nil, &roles.CombineError{Message: "no transactions to combine"}
	}

	txs := make([]*ckb.Transaction, len(txBytesList))
	for i, b := range txBytesList {
		tx, err := ParseTransaction(b)
		if err != nil {
			return nil, fmt.Errorf("invalid transaction %d: %w", i, err)
		}
		txs[i] = tx
	}

	combined, err := roles.NewCombiner(txs, s.hasher, s.logger).Combine()
	if err != nil {
		return nil, err
	}
	return SerializeTransaction(combined)
}

// ============================================================================
// API Function 6: FinalizeAndExtract
// ============================================================================

// FinalizeAndExtract checks that every lock group is signed, then verifies
// the signatures of default-lock groups, and returns the final bytes and
// hash.
func (s *Session) FinalizeAndExtract(ctx context.Context, txBytes []byte) ([]byte, ckb.Hash, error) {
	tx, err := s.resolve(ctx, txBytes)
	if err != nil {
		return nil, ckb.Hash{}, err
	}

	extractor := roles.NewTxExtractor(tx, s.hasher, s.logger)
	final, txHash, err := extractor.Extract()
	if err != nil {
		return nil, ckb.Hash{}, err
	}
	if err := extractor.VerifyGroups(); err != nil {
		return nil, ckb.Hash{}, err
	}
	return final, txHash, nil
}

// ============================================================================
// API Function 7: Commit
// ============================================================================

// Commit removes the cells tx spends from the store and adds its outputs.
func (s *Session) Commit(ctx context.Context, txBytes []byte) (ckb.Hash, error) {
	tx, err := ParseTransaction(txBytes)
	if err != nil {
		return ckb.Hash{}, err
	}
	for i, in := range tx.Inputs {
		if err := s.store.DeleteCell(ctx, in.PreviousOutput); err != nil {
			return ckb.Hash{}, fmt.Errorf("input %d: %w", i, err)
		}
	}
	if err := cellstore.PutOutputs(ctx, s.store, tx); err != nil {
		return ckb.Hash{}, err
	}
	txHash, err := tx.Hash(nil)
	if err != nil {
		return ckb.Hash{}, err
	}
	s.logger.Info("committed transaction",
		zap.Stringer("hash", txHash),
		zap.Int("spent", len(tx.Inputs)),
		zap.Int("created", len(tx.Outputs)))
	return txHash, nil
}

// ============================================================================
// API Functions 8a & 8b: ParseTransaction / SerializeTransaction
// ============================================================================

// ParseTransaction decodes a Molecule-encoded transaction. Its inputs are
// unresolved.
func ParseTransaction(txBytes []byte) (*ckb.Transaction, error) {
	tx, err := ckb.TransactionFromBytes(txBytes)
	if err != nil {
		return nil, &ParseError{Message: "invalid transaction encoding", Cause: err}
	}
	return tx, nil
}

// SerializeTransaction encodes tx.
func SerializeTransaction(tx *ckb.Transaction) ([]byte, error) {
	b, err := tx.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return b, nil
}

func (s *Session) resolve(ctx context.Context, txBytes []byte) (*ckb.Transaction, error) {
	tx, err := ParseTransaction(txBytes)
	if err != nil {
		return nil, err
	}
	if err := cellstore.Resolve(ctx, s.store, tx, s.logger); err != nil {
		return nil, err
	}
	return tx, nil
}
