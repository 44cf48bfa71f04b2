// Package cellstore keeps live cells keyed by out point so transaction
// inputs can be resolved to the outputs they spend.
//
// Two backends are provided:
//   - BadgerStore: persistent, backed by BadgerDB (or an in-memory Badger
//     instance when no path is configured)
//   - MemoryStore: a bigcache-backed cache whose entries expire after a
//     configured life window
//
// Cells are stored in their Molecule storage layout (out point, output and
// data in one table), so a store file is readable by any Molecule decoder.
package cellstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/suffix-labs/ckb-molecule/pkg/ckb"
)

// ErrNotFound is returned when no cell is stored under an out point.
var ErrNotFound = errors.New("cellstore: cell not found")

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// keyPrefix namespaces cell entries inside a shared key space.
const keyPrefix = "cell/"

// Store reads and writes live cells.
type Store interface {
	GetCell(ctx context.Context, outPoint ckb.OutPoint) (ckb.Cell, error)
	PutCell(ctx context.Context, cell ckb.Cell) error
	DeleteCell(ctx context.Context, outPoint ckb.OutPoint) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend string
	// Path is the Badger data directory; empty means in-memory Badger.
	Path string
	// TTL is the MemoryStore life window.
	TTL time.Duration
}

// Open creates the store described by opts.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch opts.Backend {
	case BackendBadger:
		s, err := OpenBadger(opts.Path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMemory, "":
		s, err := NewMemoryStore(ctx, opts.TTL, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("cellstore: unknown backend %q", opts.Backend)
	}
}

func cellKey(outPoint ckb.OutPoint) ([]byte, error) {
	b, err := outPoint.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("cellstore: encode out point: %w", err)
	}
	return append([]byte(keyPrefix), b...), nil
}

// PutOutputs stores every output of tx as a live cell, keyed by the
// transaction hash and output index.
func PutOutputs(ctx context.Context, store Store, tx *ckb.Transaction) error {
	txHash, err := tx.Hash(nil)
	if err != nil {
		return fmt.Errorf("cellstore: hash transaction: %w", err)
	}
	for i, out := range tx.Outputs {
		var data []byte
		if i < len(tx.OutputsData) {
			data = tx.OutputsData[i]
		}
		cell := ckb.Cell{
			OutPoint:   ckb.OutPoint{TxHash: txHash, Index: uint32(i)},
			CellOutput: out,
			OutputData: data,
		}
		if err := store.PutCell(ctx, cell); err != nil {
			return fmt.Errorf("cellstore: output %d: %w", i, err)
		}
	}
	return nil
}
