package roles

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/suffix-labs/ckb-molecule/pkg/ckb"
	"github.com/suffix-labs/ckb-molecule/pkg/crypto"
)

const ckbytes = ckb.ShannonsPerByte

func testKey(t *testing.T, seed byte) *crypto.PrivateKey {
	t.Helper()
	keyBytes := make([]byte, 32)
	for i := range keyBytes {
		keyBytes[i] = seed + byte(i)
	}
	key, err := crypto.PrivateKeyFromBytes(keyBytes)
	if err != nil {
		t.Fatalf("Failed to create private key: %v", err)
	}
	return key
}

func liveCell(index uint32, lock ckb.Script, capacity uint64) ckb.Cell {
	var txHash ckb.Hash
	txHash[0] = 0x42
	txHash[31] = byte(index)
	return ckb.Cell{
		OutPoint:   ckb.OutPoint{TxHash: txHash, Index: index},
		CellOutput: ckb.CellOutput{Capacity: capacity, Lock: lock},
	}
}

func secp256k1Dep() ckb.CellDep {
	var txHash ckb.Hash
	txHash[0] = 0x71
	return ckb.CellDep{OutPoint: ckb.OutPoint{TxHash: txHash}, DepType: ckb.DepTypeDepGroup}
}

// TestTwoPartyTransfer runs the whole workflow: two owners spend their
// cells in one transaction, sign in parallel, and the copies are combined
// and extracted.
func TestTwoPartyTransfer(t *testing.T) {
	logger := zaptest.NewLogger(t)

	// Step 1: keys and locks
	alice, bob := testKey(t, 0x10), testKey(t, 0x80)
	aliceLock, bobLock := Secp256k1Lock(alice.PublicKey()), Secp256k1Lock(bob.PublicKey())

	// Step 2: build the transaction
	b := NewBuilder(0, logger)
	b.AddCellDep(secp256k1Dep())
	for _, cell := range []ckb.Cell{
		liveCell(0, aliceLock, 1000*ckbytes),
		liveCell(1, bobLock, 500*ckbytes),
		liveCell(2, aliceLock, 200*ckbytes),
	} {
		if err := b.AddCell(cell, 0); err != nil {
			t.Fatalf("Failed to add input: %v", err)
		}
	}
	if err := b.AddOutput(ckb.CellOutput{Capacity: 800 * ckbytes, Lock: bobLock}, nil); err != nil {
		t.Fatalf("Failed to add output: %v", err)
	}
	if err := b.AddChangeOutput(aliceLock, 1000); err != nil {
		t.Fatalf("Failed to add change output: %v", err)
	}
	tx, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build transaction: %v", err)
	}
	if len(tx.Witnesses) != 3 {
		t.Fatalf("Expected one witness slot per input, got %d", len(tx.Witnesses))
	}
	fee, err := tx.Fee()
	if err != nil || fee != 1000 {
		t.Fatalf("Expected fee 1000, got %d (%v)", fee, err)
	}

	// Step 3: each party signs its own copy
	aliceCopy, _ := tx.Clone()
	bobCopy, _ := tx.Clone()

	pos, err := NewSigner(aliceCopy, nil, logger).Sign(alice)
	if err != nil {
		t.Fatalf("Alice failed to sign: %v", err)
	}
	if pos != 0 {
		t.Fatalf("Alice's group should be signed at witness 0, got %d", pos)
	}
	pos, err = NewSigner(bobCopy, nil, logger).Sign(bob)
	if err != nil {
		t.Fatalf("Bob failed to sign: %v", err)
	}
	if pos != 1 {
		t.Fatalf("Bob's group should be signed at witness 1, got %d", pos)
	}

	// A half-signed copy is not extractable
	if _, _, err := NewTxExtractor(aliceCopy, nil, logger).Extract(); err == nil {
		t.Fatal("Extraction of a half-signed transaction should fail")
	}

	// Step 4: combine
	combined, err := NewCombiner([]*ckb.Transaction{aliceCopy, bobCopy}, nil, logger).Combine()
	if err != nil {
		t.Fatalf("Failed to combine: %v", err)
	}

	// Step 5: verify and extract
	extractor := NewTxExtractor(combined, nil, logger)
	if err := extractor.VerifyGroups(); err != nil {
		t.Fatalf("Signature verification failed: %v", err)
	}
	txBytes, txHash, err := extractor.Extract()
	if err != nil {
		t.Fatalf("Transaction extraction failed: %v", err)
	}

	wantHash, _ := tx.Hash(nil)
	if txHash != wantHash {
		t.Fatalf("Signing must not change the transaction hash: %s != %s", txHash, wantHash)
	}
	parsed, err := ckb.TransactionFromBytes(txBytes)
	if err != nil {
		t.Fatalf("Failed to parse extracted transaction: %v", err)
	}
	if !parsed.Eq(combined) {
		t.Fatal("Extracted bytes do not match the combined transaction")
	}
	t.Logf("Extracted two-party transaction %s (%d bytes)", txHash, len(txBytes))
}
