package ckb

import (
	"encoding/binary"

	"github.com/suffix-labs/ckb-molecule/pkg/hasher"
)

// recordingHasher is a deterministic accumulator that keeps every byte it
// is fed. Its digest folds the input into 32 bytes and stamps the length.
type recordingHasher struct {
	data []byte
}

func (r *recordingHasher) Update(b []byte) { r.data = append(r.data, b...) }

func (r *recordingHasher) Finalize() [hasher.Size]byte {
	var out [hasher.Size]byte
	for i, b := range r.data {
		out[i%hasher.Size] ^= b
	}
	binary.LittleEndian.PutUint64(out[24:], uint64(len(r.data)))
	return out
}

// recorder hands out recordingHashers and remembers each one.
type recorder struct {
	made []*recordingHasher
}

func (r *recorder) factory() hasher.Factory {
	return func() hasher.Hasher {
		h := &recordingHasher{}
		r.made = append(r.made, h)
		return h
	}
}

func testLock(arg byte) Script {
	var codeHash Hash
	codeHash[0] = 0x9b
	codeHash[31] = 0x01
	return Script{CodeHash: codeHash, HashType: HashTypeType, Args: []byte{arg, arg, arg}}
}

func testOutPoint(index uint32) OutPoint {
	var txHash Hash
	txHash[0] = byte(index + 1)
	return OutPoint{TxHash: txHash, Index: index}
}

func resolvedInput(index uint32, lock Script, capacity uint64) CellInput {
	return CellInput{
		PreviousOutput: testOutPoint(index),
		CellOutput:     &CellOutput{Capacity: capacity, Lock: lock},
		OutputData:     []byte{},
	}
}
