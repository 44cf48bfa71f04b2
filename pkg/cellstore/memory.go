package cellstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"go.uber.org/zap"

	"github.com/suffix-labs/ckb-molecule/pkg/ckb"
)

// DefaultTTL is the MemoryStore life window when none is configured.
const DefaultTTL = 10 * time.Minute

// MemoryStore caches cells in bigcache. Entries expire after the life
// window, so it suits short-lived sessions such as a single CLI run.
type MemoryStore struct {
	cache  *bigcache.BigCache
	logger *zap.Logger
}

// NewMemoryStore creates a cache whose entries live for ttl.
func NewMemoryStore(ctx context.Context, ttl time.Duration, logger *zap.Logger) (*MemoryStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 64
	cfg.Verbose = false

	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("cellstore: create bigcache: %w", err)
	}
	logger.Debug("opened memory cell store", zap.Duration("ttl", ttl))
	return &MemoryStore{cache: cache, logger: logger}, nil
}

// GetCell loads the cell stored under outPoint.
func (s *MemoryStore) GetCell(ctx context.Context, outPoint ckb.OutPoint) (ckb.Cell, error) {
	key, err := cellKey(outPoint)
	if err != nil {
		return ckb.Cell{}, err
	}
	value, err := s.cache.Get(string(key))
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return ckb.Cell{}, ErrNotFound
	}
	if err != nil {
		return ckb.Cell{}, fmt.Errorf("cellstore: bigcache get: %w", err)
	}
	return ckb.CellFromBytes(value)
}

// PutCell stores cell under its out point, replacing any previous entry.
func (s *MemoryStore) PutCell(ctx context.Context, cell ckb.Cell) error {
	key, err := cellKey(cell.OutPoint)
	if err != nil {
		return err
	}
	value, err := cell.ToBytes()
	if err != nil {
		return fmt.Errorf("cellstore: encode cell: %w", err)
	}
	if err := s.cache.Set(string(key), value); err != nil {
		return fmt.Errorf("cellstore: bigcache set: %w", err)
	}
	return nil
}

// DeleteCell removes the cell under outPoint. Deleting a missing cell is
// not an error.
func (s *MemoryStore) DeleteCell(ctx context.Context, outPoint ckb.OutPoint) error {
	key, err := cellKey(outPoint)
	if err != nil {
		return err
	}
	if err := s.cache.Delete(string(key)); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("cellstore: bigcache delete: %w", err)
	}
	return nil
}

// Close releases the cache.
func (s *MemoryStore) Close() error {
	return s.cache.Close()
}
