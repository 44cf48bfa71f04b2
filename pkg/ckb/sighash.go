package ckb

import (
	"github.com/suffix-labs/ckb-molecule/pkg/bytesutil"
	"github.com/suffix-labs/ckb-molecule/pkg/hasher"
	"github.com/suffix-labs/ckb-molecule/pkg/num"
)

// SignHashInfo is the digest a lock group signs and the index of the group's
// first input, whose witness carries the signature.
type SignHashInfo struct {
	Message  Hash
	Position int
}

// GetSignHashInfo computes the sighash-all digest for the inputs locked by
// lock. The digest is
//
//	H(tx_hash || for each group input i with a witness: u64le(len(w_i)) || w_i)
//
// where the group is every input whose resolved lock equals lock, in input
// order. Witnesses beyond the inputs are not folded in. The boolean result
// is false when no input belongs to the group.
//
// Every input must be resolved; otherwise a *ResolutionError is returned.
func (tx *Transaction) GetSignHashInfo(lock ScriptLike, f hasher.Factory) (SignHashInfo, bool, error) {
	script, err := lock.ToScript()
	if err != nil {
		return SignHashInfo{}, false, err
	}
	group, err := tx.lockGroup(script)
	if err != nil {
		return SignHashInfo{}, false, err
	}
	if len(group) == 0 {
		return SignHashInfo{}, false, nil
	}

	txHash, err := tx.Hash(f)
	if err != nil {
		return SignHashInfo{}, false, err
	}
	if f == nil {
		f = hasher.NewCkb
	}
	h := f()
	h.Update(txHash[:])
	for _, i := range group {
		if i >= len(tx.Witnesses) {
			continue
		}
		w := tx.Witnesses[i]
		h.Update(num.Uint64LE(uint64(len(w))))
		h.Update(w)
	}
	return SignHashInfo{Message: Hash(h.Finalize()), Position: group[0]}, true, nil
}

// FindInputIndexByLock returns the index of the first input locked by lock.
func (tx *Transaction) FindInputIndexByLock(lock ScriptLike) (int, bool, error) {
	script, err := lock.ToScript()
	if err != nil {
		return 0, false, err
	}
	group, err := tx.lockGroup(script)
	if err != nil || len(group) == 0 {
		return 0, false, err
	}
	return group[0], true, nil
}

// FindInputIndexByLockID returns the index of the first input whose lock
// runs the same script code as lock: code hash and hash type match, args
// are not compared.
func (tx *Transaction) FindInputIndexByLockID(lock ScriptLike) (int, bool, error) {
	script, err := lock.ToScript()
	if err != nil {
		return 0, false, err
	}
	for i, in := range tx.Inputs {
		if in.CellOutput == nil {
			return 0, false, unresolved(i)
		}
		if in.CellOutput.Lock.CodeHash == script.CodeHash && in.CellOutput.Lock.HashType == script.HashType {
			return i, true, nil
		}
	}
	return 0, false, nil
}

// PrepareSighashAllWitness reserves lockLen zero bytes in the witness lock
// of the first input whose lock matches the code hash and hash type of
// lock, so the signing digest is computed over a witness of the final size.
// It returns the position that was prepared.
func (tx *Transaction) PrepareSighashAllWitness(lock ScriptLike, lockLen int) (int, bool, error) {
	position, ok, err := tx.FindInputIndexByLockID(lock)
	if err != nil || !ok {
		return 0, ok, err
	}
	if err := tx.PrepareWitnessLockAt(position, lockLen); err != nil {
		return 0, false, err
	}
	return position, true, nil
}

// PrepareWitnessLockAt sets the lock of the WitnessArgs at index i to
// lockLen zero bytes, creating an empty WitnessArgs when the witness is
// missing or empty. Other witness fields are kept.
func (tx *Transaction) PrepareWitnessLockAt(i int, lockLen int) error {
	wa, err := tx.GetWitnessArgsAt(i)
	if err != nil {
		return err
	}
	if wa == nil {
		wa = &WitnessArgs{}
	}
	wa.Lock = bytesutil.Zeros(lockLen)
	return tx.SetWitnessArgsAt(i, *wa)
}

// GetWitnessArgsAt decodes the witness at index i as WitnessArgs. It returns
// nil when the witness is missing or empty.
func (tx *Transaction) GetWitnessArgsAt(i int) (*WitnessArgs, error) {
	if i < 0 || i >= len(tx.Witnesses) || len(tx.Witnesses[i]) == 0 {
		return nil, nil
	}
	wa, err := WitnessArgsFromBytes(tx.Witnesses[i])
	if err != nil {
		return nil, err
	}
	return &wa, nil
}

// SetWitnessArgsAt encodes wa into the witness at index i, padding the
// witness list with empty witnesses as needed.
func (tx *Transaction) SetWitnessArgsAt(i int, wa WitnessArgs) error {
	b, err := wa.ToBytes()
	if err != nil {
		return err
	}
	for len(tx.Witnesses) <= i {
		tx.Witnesses = append(tx.Witnesses, []byte{})
	}
	tx.Witnesses[i] = b
	return nil
}

func (tx *Transaction) lockGroup(lock Script) ([]int, error) {
	var group []int
	for i, in := range tx.Inputs {
		if in.CellOutput == nil {
			return nil, unresolved(i)
		}
		if in.CellOutput.Lock.Eq(lock) {
			group = append(group, i)
		}
	}
	return group, nil
}
