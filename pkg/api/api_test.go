package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/suffix-labs/ckb-molecule/pkg/cellstore"
	"github.com/suffix-labs/ckb-molecule/pkg/ckb"
	"github.com/suffix-labs/ckb-molecule/pkg/crypto"
	"github.com/suffix-labs/ckb-molecule/pkg/molecule"
	"github.com/suffix-labs/ckb-molecule/pkg/roles"
)

func newSession(t *testing.T) (*Session, cellstore.Store) {
	t.Helper()
	store, err := cellstore.NewMemoryStore(context.Background(), time.Minute, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewSession(store, nil, zaptest.NewLogger(t)), store
}

func fund(t *testing.T, store cellstore.Store, index uint32, lock ckb.Script, capacity uint64) ckb.OutPoint {
	t.Helper()
	var txHash ckb.Hash
	txHash[0], txHash[1] = 0xfe, byte(index)
	cell := ckb.Cell{
		OutPoint:   ckb.OutPoint{TxHash: txHash, Index: index},
		CellOutput: ckb.CellOutput{Capacity: capacity, Lock: lock},
	}
	require.NoError(t, store.PutCell(context.Background(), cell))
	return cell.OutPoint
}

func key(t *testing.T, b byte) *crypto.PrivateKey {
	t.Helper()
	raw := make([]byte, 32)
	raw[31] = b
	k, err := crypto.PrivateKeyFromBytes(raw)
	require.NoError(t, err)
	return k
}

// TestSessionWorkflow tests propose, an external signature, a key signature,
// combine, extract and commit against one store.
func TestSessionWorkflow(t *testing.T) {
	ctx := context.Background()
	s, store := newSession(t)

	alice, bob := key(t, 1), key(t, 2)
	aliceLock, bobLock := roles.Secp256k1Lock(alice.PublicKey()), roles.Secp256k1Lock(bob.PublicKey())
	a := fund(t, store, 0, aliceLock, 300*ckb.ShannonsPerByte)
	b := fund(t, store, 1, bobLock, 100*ckb.ShannonsPerByte)

	proposed, err := s.ProposeTransaction(ctx, &TransactionProposal{
		Inputs:     []InputProposal{{OutPoint: a}, {OutPoint: b}},
		Outputs:    []OutputProposal{{Output: ckb.CellOutput{Capacity: 200 * ckb.ShannonsPerByte, Lock: bobLock}}},
		ChangeLock: &aliceLock,
		Fee:        500,
	})
	require.NoError(t, err)

	// Bob signs out of band.
	prepared, info, err := s.GetSignHash(ctx, proposed, bobLock)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Position)
	_, err = s.AppendSignature(ctx, prepared, bobLock, alice.SignRecoverable(info.Message))
	var se *roles.SignError
	require.ErrorAs(t, err, &se, "a signature by the wrong key is rejected")
	bobSigned, err := s.AppendSignature(ctx, prepared, bobLock, bob.SignRecoverable(info.Message))
	require.NoError(t, err)

	aliceSigned, err := s.SignTransaction(ctx, proposed, alice)
	require.NoError(t, err)

	_, _, err = s.FinalizeAndExtract(ctx, aliceSigned)
	var fe *roles.FinalizationError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, roles.ErrCodeUnsignedInput, fe.Code)

	combined, err := s.Combine([][]byte{aliceSigned, bobSigned})
	require.NoError(t, err)
	final, txHash, err := s.FinalizeAndExtract(ctx, combined)
	require.NoError(t, err)

	committed, err := s.Commit(ctx, final)
	require.NoError(t, err)
	assert.Equal(t, txHash, committed)

	_, err = store.GetCell(ctx, a)
	assert.ErrorIs(t, err, cellstore.ErrNotFound)
	change, err := store.GetCell(ctx, ckb.OutPoint{TxHash: txHash, Index: 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(200*ckb.ShannonsPerByte-500), change.CellOutput.Capacity)
	assert.True(t, change.CellOutput.Lock.Eq(aliceLock))
}

func TestProposeMissingCell(t *testing.T) {
	s, _ := newSession(t)
	_, err := s.ProposeTransaction(context.Background(), &TransactionProposal{
		Inputs: []InputProposal{{OutPoint: ckb.OutPoint{Index: 9}}},
	})
	var pe *roles.ProposalError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, cellstore.ErrNotFound)
}

func TestParseTransactionErrors(t *testing.T) {
	_, err := ParseTransaction([]byte{1, 2, 3})
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, molecule.ErrMalformedEncoding)

	s, _ := newSession(t)
	_, err = s.Combine(nil)
	assert.Error(t, err)
	_, err = s.Combine([][]byte{{0xff}})
	assert.ErrorAs(t, err, &pe)
}

func TestSignWithoutResolvableInput(t *testing.T) {
	s, _ := newSession(t)
	tx := &ckb.Transaction{
		Inputs:    []ckb.CellInput{{PreviousOutput: ckb.OutPoint{Index: 3}}},
		Witnesses: [][]byte{{}},
	}
	txBytes, err := SerializeTransaction(tx)
	require.NoError(t, err)

	_, err = s.SignTransaction(context.Background(), txBytes, key(t, 1))
	assert.ErrorIs(t, err, ckb.ErrResolution)
}
