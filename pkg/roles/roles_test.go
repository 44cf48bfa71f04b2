package roles

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/ckb-molecule/pkg/ckb"
)

// singleOwnerTx spends two cells of key's lock into one output.
func singleOwnerTx(t *testing.T, lock ckb.Script) *ckb.Transaction {
	t.Helper()
	b := NewBuilder(0, nil)
	require.NoError(t, b.AddCell(liveCell(0, lock, 100*ckbytes), 0))
	require.NoError(t, b.AddCell(liveCell(1, lock, 100*ckbytes), 0))
	require.NoError(t, b.AddOutput(ckb.CellOutput{Capacity: 150 * ckbytes, Lock: lock}, []byte{1, 2}))
	tx, err := b.Build()
	require.NoError(t, err)
	return tx
}

func TestBuilderNormalizes(t *testing.T) {
	lock := Secp256k1Lock(testKey(t, 1).PublicKey())
	b := NewBuilder(0, nil)
	require.NoError(t, b.AddOutput(ckb.CellOutput{Lock: lock}, []byte{9, 9, 9}))
	b.SetWitness(2, []byte{7})

	tx, err := b.Build()
	require.NoError(t, err)
	// 8 capacity + 32 code hash + 1 hash type + 20 args + 3 data
	assert.Equal(t, uint64(64)*ckbytes, tx.Outputs[0].Capacity)
	assert.Equal(t, [][]byte{{}, {}, {7}}, tx.Witnesses)
}

func TestBuilderChangeTooSmall(t *testing.T) {
	lock := Secp256k1Lock(testKey(t, 1).PublicKey())
	b := NewBuilder(0, nil)
	require.NoError(t, b.AddCell(liveCell(0, lock, 100*ckbytes), 0))
	require.NoError(t, b.AddOutput(ckb.CellOutput{Capacity: 90 * ckbytes, Lock: lock}, nil))

	var pe *ProposalError
	require.ErrorAs(t, b.AddChangeOutput(lock, 0), &pe, "10 CKB cannot hold a 61 byte change cell")

	b = NewBuilder(0, nil)
	require.NoError(t, b.AddCell(liveCell(0, lock, 100*ckbytes), 0))
	require.ErrorAs(t, b.AddChangeOutput(lock, 101*ckbytes), &pe)

	b = NewBuilder(0, nil)
	require.NoError(t, b.AddInput(ckb.CellInput{}))
	var re *ckb.ResolutionError
	require.ErrorAs(t, b.AddChangeOutput(lock, 0), &re)
}

func TestSignerNoGroup(t *testing.T) {
	owner, stranger := testKey(t, 1), testKey(t, 2)
	tx := singleOwnerTx(t, Secp256k1Lock(owner.PublicKey()))

	_, err := NewSigner(tx, nil, nil).Sign(stranger)
	var se *SignError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, -1, se.InputIndex)
	assert.Equal(t, [][]byte{{}, {}}, tx.Witnesses, "a failed sign leaves witnesses alone")
}

func TestSignerVerify(t *testing.T) {
	key := testKey(t, 3)
	lock := Secp256k1Lock(key.PublicKey())
	tx := singleOwnerTx(t, lock)

	s := NewSigner(tx, nil, nil)
	pos, err := s.Sign(key)
	require.NoError(t, err)
	assert.Equal(t, 0, pos)
	require.NoError(t, s.Verify(lock))

	wa, err := tx.GetWitnessArgsAt(0)
	require.NoError(t, err)
	require.Len(t, wa.Lock, 65)

	// Changing a witness covered by the digest breaks the signature.
	tx.Witnesses[1] = []byte{0xff}
	var se *SignError
	require.ErrorAs(t, s.Verify(lock), &se)
	assert.Equal(t, 0, se.InputIndex)
}

// TestSignersSharingLockCode tests that a second signer whose lock has the
// same code hash leaves the first signer's witness alone
func TestSignersSharingLockCode(t *testing.T) {
	alice, bob := testKey(t, 11), testKey(t, 12)
	aliceLock := Secp256k1Lock(alice.PublicKey())
	bobLock := Secp256k1Lock(bob.PublicKey())

	b := NewBuilder(0, nil)
	require.NoError(t, b.AddCell(liveCell(0, aliceLock, 100*ckbytes), 0))
	require.NoError(t, b.AddCell(liveCell(1, bobLock, 100*ckbytes), 0))
	require.NoError(t, b.AddOutput(ckb.CellOutput{Capacity: 190 * ckbytes, Lock: bobLock}, nil))
	tx, err := b.Build()
	require.NoError(t, err)

	signer := NewSigner(tx, nil, nil)
	pos, err := signer.Sign(alice)
	require.NoError(t, err)
	assert.Equal(t, 0, pos)
	pos, err = signer.Sign(bob)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	require.NoError(t, signer.Verify(aliceLock))
	require.NoError(t, signer.Verify(bobLock))
}

func TestSignerRequiresResolvedInputs(t *testing.T) {
	key := testKey(t, 4)
	tx := &ckb.Transaction{Inputs: []ckb.CellInput{{}}}
	_, err := NewSigner(tx, nil, nil).Sign(key)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ckb.ErrResolution))
}

func TestCombinerConflicts(t *testing.T) {
	key := testKey(t, 5)
	lock := Secp256k1Lock(key.PublicKey())
	tx := singleOwnerTx(t, lock)

	t.Run("different transactions", func(t *testing.T) {
		other, _ := tx.Clone()
		other.Version = 1
		_, err := NewCombiner([]*ckb.Transaction{tx, other}, nil, nil).Combine()
		var ce *CombineError
		require.ErrorAs(t, err, &ce)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := NewCombiner(nil, nil, nil).Combine()
		assert.Error(t, err)
	})

	t.Run("conflicting locks", func(t *testing.T) {
		a, _ := tx.Clone()
		b, _ := tx.Clone()
		require.NoError(t, a.SetWitnessArgsAt(0, ckb.WitnessArgs{Lock: []byte{1}}))
		require.NoError(t, b.SetWitnessArgsAt(0, ckb.WitnessArgs{Lock: []byte{2}}))
		_, err := NewCombiner([]*ckb.Transaction{a, b}, nil, nil).Combine()
		assert.ErrorContains(t, err, "conflicting locks")
	})

	t.Run("conflicting input type", func(t *testing.T) {
		a, _ := tx.Clone()
		b, _ := tx.Clone()
		require.NoError(t, a.SetWitnessArgsAt(0, ckb.WitnessArgs{InputType: []byte{}}))
		require.NoError(t, b.SetWitnessArgsAt(0, ckb.WitnessArgs{}))
		_, err := NewCombiner([]*ckb.Transaction{a, b}, nil, nil).Combine()
		assert.ErrorContains(t, err, "conflicting input type")
	})
}

func TestCombinerPlaceholderYields(t *testing.T) {
	key := testKey(t, 6)
	lock := Secp256k1Lock(key.PublicKey())
	tx := singleOwnerTx(t, lock)

	prepared, _ := tx.Clone()
	_, _, err := prepared.PrepareSighashAllWitness(lock, 65)
	require.NoError(t, err)

	signed, _ := tx.Clone()
	_, err = NewSigner(signed, nil, nil).Sign(key)
	require.NoError(t, err)

	extra, _ := tx.Clone()
	extra.Witnesses = append(extra.Witnesses, []byte{0xaa})

	combined, err := NewCombiner([]*ckb.Transaction{prepared, signed, extra}, nil, nil).Combine()
	require.NoError(t, err)
	assert.Equal(t, signed.Witnesses[0], combined.Witnesses[0])
	assert.Equal(t, []byte{0xaa}, combined.Witnesses[2])
	require.NoError(t, NewSigner(combined, nil, nil).Verify(lock))
}

func TestExtractorCodes(t *testing.T) {
	key := testKey(t, 7)
	lock := Secp256k1Lock(key.PublicKey())

	code := func(tx *ckb.Transaction) string {
		_, _, err := NewTxExtractor(tx, nil, nil).Extract()
		var fe *FinalizationError
		require.ErrorAs(t, err, &fe)
		return fe.Code
	}

	assert.Equal(t, ErrCodeNoInputs, code(&ckb.Transaction{}))
	assert.Equal(t, ErrCodeUnresolvedInput, code(&ckb.Transaction{Inputs: []ckb.CellInput{{}}}))

	tx := singleOwnerTx(t, lock)
	mismatch, _ := tx.Clone()
	mismatch.OutputsData = nil
	assert.Equal(t, ErrCodeOutputsDataMismatch, code(mismatch))

	overspent, _ := tx.Clone()
	overspent.Outputs[0].Capacity = 201 * ckbytes
	assert.Equal(t, ErrCodeInsufficientCapacity, code(overspent))

	assert.Equal(t, ErrCodeUnsignedInput, code(tx))

	placeholder, _ := tx.Clone()
	_, _, err := placeholder.PrepareSighashAllWitness(lock, 65)
	require.NoError(t, err)
	assert.Equal(t, ErrCodeUnsignedInput, code(placeholder))

	_, err = NewSigner(tx, nil, nil).Sign(key)
	require.NoError(t, err)
	_, _, err = NewTxExtractor(tx, nil, nil).Extract()
	require.NoError(t, err)
}

func TestLockGroups(t *testing.T) {
	a := Secp256k1Lock(testKey(t, 8).PublicKey())
	b := Secp256k1Lock(testKey(t, 9).PublicKey())
	tx := &ckb.Transaction{}
	for i, lock := range []ckb.Script{a, b, a, b, b} {
		tx.Inputs = append(tx.Inputs, liveCell(uint32(i), lock, ckbytes).Input(0))
	}

	groups, err := LockGroups(tx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, []int{0, 2}, groups[0].Inputs)
	assert.Equal(t, 1, groups[1].Position)
	assert.Equal(t, []int{1, 3, 4}, groups[1].Inputs)
}
