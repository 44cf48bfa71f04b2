package ckb

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/ckb-molecule/pkg/bytesutil"
	"github.com/suffix-labs/ckb-molecule/pkg/hasher"
	"github.com/suffix-labs/ckb-molecule/pkg/molecule"
	"github.com/suffix-labs/ckb-molecule/pkg/num"
)

// TestEmptyTransactionHashStable tests that an empty transaction hashes the
// same way every time and after a trip through its plain-data projection
func TestEmptyTransactionHashStable(t *testing.T) {
	tx := &Transaction{}

	raw, err := tx.RawBytes()
	require.NoError(t, err)
	// header (4 + 6 offsets) + version + five empty vectors
	require.Len(t, raw, 52)
	assert.Equal(t, []byte{52, 0, 0, 0, 28, 0, 0, 0}, raw[:8])

	rec := &recorder{}
	h1, err := tx.Hash(rec.factory())
	require.NoError(t, err)
	h2, err := tx.Hash(rec.factory())
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	require.Len(t, rec.made, 2)
	assert.Equal(t, raw, rec.made[0].data)

	again, err := TransactionFrom(tx.Data())
	require.NoError(t, err)
	h3, err := again.Hash(rec.factory())
	require.NoError(t, err)
	assert.Equal(t, h1, h3)

	ckbHash, err := tx.Hash(nil)
	require.NoError(t, err)
	assert.Equal(t, Hash(hasher.HashCkb(raw)), ckbHash)
}

func TestTransactionRoundTrip(t *testing.T) {
	lock := testLock(1)
	tx := &Transaction{
		Version:    0,
		CellDeps:   []CellDep{{OutPoint: testOutPoint(9), DepType: DepTypeDepGroup}},
		HeaderDeps: []Hash{{0x11}},
		Inputs:     []CellInput{resolvedInput(0, lock, 1000)},
		Outputs: []CellOutput{
			{Capacity: 400, Lock: lock},
			{Capacity: 500, Lock: testLock(2)},
		},
		OutputsData: [][]byte{{}, {0x01}},
		Witnesses:   [][]byte{{0xaa}},
	}

	b, err := tx.ToBytes()
	require.NoError(t, err)

	back, err := TransactionFromBytes(b)
	require.NoError(t, err)
	assert.True(t, tx.Eq(back))
	assert.Nil(t, back.Inputs[0].CellOutput, "decoded inputs are unresolved")

	h1, err := tx.Hash(nil)
	require.NoError(t, err)
	h2, err := back.Hash(nil)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	// Witnesses change the full hash only.
	back.Witnesses[0] = []byte{0xbb}
	h3, err := back.Hash(nil)
	require.NoError(t, err)
	assert.Equal(t, h1, h3)
	f1, err := tx.HashFull(nil)
	require.NoError(t, err)
	f2, err := back.HashFull(nil)
	require.NoError(t, err)
	assert.NotEqual(t, f1, f2)

	fee, err := tx.Fee()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), fee)

	_, err = back.Fee()
	assert.ErrorIs(t, err, ErrResolution)
}

// TestTransactionRejectsTruncation tests that no proper prefix of an encoded
// transaction, and no padded copy, decodes
func TestTransactionRejectsTruncation(t *testing.T) {
	typ := testLock(3)
	tx := &Transaction{
		CellDeps:   []CellDep{{OutPoint: testOutPoint(9), DepType: DepTypeCode}},
		HeaderDeps: []Hash{{0x22}},
		Inputs: []CellInput{
			{PreviousOutput: testOutPoint(0), Since: 7},
			{PreviousOutput: testOutPoint(1)},
		},
		Outputs: []CellOutput{
			{Capacity: 100, Lock: testLock(1), Type: &typ},
			{Capacity: 200, Lock: testLock(2)},
		},
		OutputsData: [][]byte{{1, 2, 3}, {}},
		Witnesses:   [][]byte{{0xaa, 0xbb}, {}},
	}
	b, err := tx.ToBytes()
	require.NoError(t, err)

	for n := 0; n < len(b); n++ {
		_, err := TransactionFromBytes(b[:n])
		require.ErrorIs(t, err, molecule.ErrMalformedEncoding, "prefix of %d bytes", n)
	}

	padded := append(append([]byte{}, b...), 0)
	_, err = TransactionFromBytes(padded)
	assert.ErrorIs(t, err, molecule.ErrMalformedEncoding)

	back, err := TransactionFromBytes(b)
	require.NoError(t, err)
	assert.True(t, tx.Eq(back))
}

func TestTransactionClone(t *testing.T) {
	tx := &Transaction{
		Inputs:      []CellInput{resolvedInput(0, testLock(1), 10)},
		Outputs:     []CellOutput{{Capacity: 1, Lock: testLock(1)}},
		OutputsData: [][]byte{{1, 2}},
		Witnesses:   [][]byte{{3}},
	}
	c, err := tx.Clone()
	require.NoError(t, err)
	require.NotNil(t, c.Inputs[0].CellOutput)

	c.OutputsData[0][0] = 9
	c.Witnesses[0][0] = 9
	c.Inputs[0].CellOutput.Capacity = 99
	assert.Equal(t, byte(1), tx.OutputsData[0][0])
	assert.Equal(t, byte(3), tx.Witnesses[0][0])
	assert.Equal(t, uint64(10), tx.Inputs[0].CellOutput.Capacity)
}

// TestNormalization tests output data padding and the capacity default
func TestNormalization(t *testing.T) {
	lock := testLock(1)
	d := TransactionData{
		Outputs: []CellOutputData{
			{Capacity: 0, Lock: lock.Data()},
			{Capacity: 77, Lock: lock.Data()},
			{Capacity: 0, Lock: lock.Data()},
		},
		OutputsData: []bytesutil.Hex{{1, 2, 3, 4}},
	}
	tx, err := TransactionFrom(d)
	require.NoError(t, err)

	require.Len(t, tx.OutputsData, 3)
	assert.Equal(t, []byte{1, 2, 3, 4}, tx.OutputsData[0])
	assert.Empty(t, tx.OutputsData[1])
	assert.Empty(t, tx.OutputsData[2])

	assert.Equal(t, uint64(8+36+4), tx.Outputs[0].Capacity)
	assert.Equal(t, uint64(77), tx.Outputs[1].Capacity)
	assert.Equal(t, uint64(8+36), tx.Outputs[2].Capacity)

	// Extra data is kept.
	d = TransactionData{OutputsData: []bytesutil.Hex{{1}, {2}}}
	tx, err = TransactionFrom(d)
	require.NoError(t, err)
	assert.Len(t, tx.OutputsData, 2)

	// A typed transaction passes through untouched.
	typed := &Transaction{Outputs: []CellOutput{{Lock: lock}}}
	same, err := TransactionFrom(typed)
	require.NoError(t, err)
	assert.Same(t, typed, same)
	assert.Zero(t, same.Outputs[0].Capacity)
}

func TestTransactionDataValidation(t *testing.T) {
	_, err := TransactionFrom(TransactionData{HeaderDeps: []bytesutil.Hex{{1}}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = TransactionFrom(TransactionData{
		Outputs: []CellOutputData{{Lock: ScriptData{CodeHash: make([]byte, 32), HashType: "bogus"}}},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTransactionJSON(t *testing.T) {
	tx := &Transaction{
		CellDeps:    []CellDep{{OutPoint: testOutPoint(1)}},
		Inputs:      []CellInput{{PreviousOutput: testOutPoint(2), Since: 5}},
		Outputs:     []CellOutput{{Capacity: 6100000000, Lock: testLock(4)}},
		OutputsData: [][]byte{{}},
		Witnesses:   [][]byte{{0x55}},
	}
	out, err := json.Marshal(tx.Data())
	require.NoError(t, err)
	assert.Contains(t, string(out), `"hashType":"type"`)
	assert.Contains(t, string(out), `"depType":"code"`)

	var d TransactionData
	require.NoError(t, json.Unmarshal(out, &d))
	back, err := TransactionFrom(d)
	require.NoError(t, err)
	assert.True(t, tx.Eq(back))
}

// TestSignHashGrouping tests that two inputs under one lock fold exactly the
// first two of three witnesses
func TestSignHashGrouping(t *testing.T) {
	lock := testLock(1)
	w0, w1, w2 := []byte{0x10, 0x11}, []byte{0x20}, []byte{0x30, 0x31, 0x32}
	tx := &Transaction{
		Inputs: []CellInput{
			resolvedInput(0, lock, 100),
			resolvedInput(1, lock, 100),
		},
		Outputs:     []CellOutput{{Capacity: 150, Lock: testLock(2)}},
		OutputsData: [][]byte{{}},
		Witnesses:   [][]byte{w0, w1, w2},
	}

	rec := &recorder{}
	info, ok, err := tx.GetSignHashInfo(lock, rec.factory())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, info.Position)

	require.Len(t, rec.made, 2, "one hasher for the tx hash, one for the digest")
	txHash, err := tx.Hash(rec.factory())
	require.NoError(t, err)
	want := bytesutil.Concat(
		txHash[:],
		num.Uint64LE(uint64(len(w0))), w0,
		num.Uint64LE(uint64(len(w1))), w1,
	)
	assert.Equal(t, want, rec.made[1].data)

	ckbInfo, ok, err := tx.GetSignHashInfo(lock, hasher.NewCkb)
	require.NoError(t, err)
	require.True(t, ok)
	realTxHash, err := tx.Hash(nil)
	require.NoError(t, err)
	assert.Equal(t, Hash(hasher.HashCkb(
		realTxHash[:],
		num.Uint64LE(2), w0,
		num.Uint64LE(1), w1,
	)), ckbInfo.Message)
}

func TestSignHashGroupPosition(t *testing.T) {
	mine, other := testLock(1), testLock(2)
	tx := &Transaction{
		Inputs: []CellInput{
			resolvedInput(0, other, 1),
			resolvedInput(1, mine, 1),
			resolvedInput(2, other, 1),
			resolvedInput(3, mine, 1),
		},
		Witnesses: [][]byte{{1}, {2}},
	}

	rec := &recorder{}
	info, ok, err := tx.GetSignHashInfo(mine, rec.factory())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, info.Position)

	// Input 3 has no witness, so only input 1's witness is folded.
	txHash, err := tx.Hash(rec.factory())
	require.NoError(t, err)
	assert.Equal(t, bytesutil.Concat(txHash[:], num.Uint64LE(1), []byte{2}), rec.made[1].data)

	_, ok, err = tx.GetSignHashInfo(testLock(9), nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignHashRequiresResolvedInputs(t *testing.T) {
	tx := &Transaction{
		Inputs: []CellInput{
			resolvedInput(0, testLock(1), 1),
			{PreviousOutput: testOutPoint(1)},
		},
	}
	_, _, err := tx.GetSignHashInfo(testLock(1), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResolution)

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, re.InputIndex)
}

func TestPrepareSighashAllWitness(t *testing.T) {
	lock := testLock(1)
	other := testLock(1)
	other.CodeHash[0] = 0x01
	tx := &Transaction{
		Inputs: []CellInput{
			resolvedInput(0, other, 1),
			resolvedInput(1, lock, 1),
		},
	}

	pos, ok, err := tx.PrepareSighashAllWitness(lock, 65)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, pos)
	require.Len(t, tx.Witnesses, 2)
	assert.Empty(t, tx.Witnesses[0])

	wa, err := tx.GetWitnessArgsAt(1)
	require.NoError(t, err)
	require.NotNil(t, wa)
	assert.Equal(t, make([]byte, 65), wa.Lock)
	assert.Nil(t, wa.InputType)

	// Existing witness fields survive.
	require.NoError(t, tx.SetWitnessArgsAt(1, WitnessArgs{Lock: []byte{1}, OutputType: []byte{7}}))
	_, _, err = tx.PrepareSighashAllWitness(lock, 65)
	require.NoError(t, err)
	wa, err = tx.GetWitnessArgsAt(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{7}, wa.OutputType)
	assert.Len(t, wa.Lock, 65)

	missing, err := tx.GetWitnessArgsAt(5)
	require.NoError(t, err)
	assert.Nil(t, missing)

	data := testLock(1)
	data.HashType = HashTypeData1
	_, ok, err = tx.PrepareSighashAllWitness(data, 65)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestPrepareSighashAllWitnessIgnoresArgs tests that the prepared input is
// found by code hash and hash type alone.
func TestPrepareSighashAllWitnessIgnoresArgs(t *testing.T) {
	tx := &Transaction{
		Inputs: []CellInput{
			resolvedInput(0, testLock(1), 1),
			resolvedInput(1, testLock(2), 1),
		},
	}

	pos, ok, err := tx.FindInputIndexByLockID(testLock(7))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, pos)

	_, ok, err = tx.FindInputIndexByLock(testLock(7))
	require.NoError(t, err)
	assert.False(t, ok, "full lock equality compares args")

	pos, ok, err = tx.FindInputIndexByLock(testLock(2))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, pos)

	pos, ok, err = tx.PrepareSighashAllWitness(testLock(7), 65)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, pos)
	wa, err := tx.GetWitnessArgsAt(0)
	require.NoError(t, err)
	require.NotNil(t, wa)
	assert.Equal(t, make([]byte, 65), wa.Lock)

	unresolvedTx := &Transaction{Inputs: []CellInput{{PreviousOutput: testOutPoint(0)}}}
	_, _, err = unresolvedTx.PrepareSighashAllWitness(testLock(1), 65)
	assert.ErrorIs(t, err, ErrResolution)
}

func TestHashTypeID(t *testing.T) {
	in := CellInput{PreviousOutput: testOutPoint(0)}
	id0, err := HashTypeID(in, 0)
	require.NoError(t, err)
	id1, err := HashTypeID(in, 1)
	require.NoError(t, err)
	assert.NotEqual(t, id0, id1)

	b, err := in.ToBytes()
	require.NoError(t, err)
	assert.Equal(t, Hash(hasher.HashCkb(b, num.Uint64LE(1))), id1)
}
