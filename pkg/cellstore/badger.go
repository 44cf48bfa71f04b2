package cellstore

import (
	"context"
	"errors"
	"fmt"
	"os"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"

	"github.com/suffix-labs/ckb-molecule/pkg/ckb"
)

// BadgerStore persists cells in BadgerDB.
type BadgerStore struct {
	db     *badgerdb.DB
	logger *zap.Logger
}

// OpenBadger opens (creating if needed) a Badger database at path. An empty
// path opens an in-memory database.
func OpenBadger(path string, logger *zap.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts badgerdb.Options
	if path == "" {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o700); err != nil {
			return nil, fmt.Errorf("cellstore: create data dir: %w", err)
		}
		opts = badgerdb.DefaultOptions(path)
	}
	opts.Logger = badgerLogger{logger.Sugar().Named("badger")}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cellstore: open badger: %w", err)
	}
	logger.Debug("opened badger cell store", zap.String("path", path), zap.Bool("inMemory", path == ""))
	return &BadgerStore{db: db, logger: logger}, nil
}

// GetCell loads the cell stored under outPoint.
func (s *BadgerStore) GetCell(ctx context.Context, outPoint ckb.OutPoint) (ckb.Cell, error) {
	key, err := cellKey(outPoint)
	if err != nil {
		return ckb.Cell{}, err
	}

	var value []byte
	err = s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return ckb.Cell{}, ErrNotFound
	}
	if err != nil {
		return ckb.Cell{}, fmt.Errorf("cellstore: badger get: %w", err)
	}
	return ckb.CellFromBytes(value)
}

// PutCell stores cell under its out point, replacing any previous entry.
func (s *BadgerStore) PutCell(ctx context.Context, cell ckb.Cell) error {
	key, err := cellKey(cell.OutPoint)
	if err != nil {
		return err
	}
	value, err := cell.ToBytes()
	if err != nil {
		return fmt.Errorf("cellstore: encode cell: %w", err)
	}
	if err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key, value)
	}); err != nil {
		return fmt.Errorf("cellstore: badger set: %w", err)
	}
	return nil
}

// DeleteCell removes the cell under outPoint. Deleting a missing cell is
// not an error.
func (s *BadgerStore) DeleteCell(ctx context.Context, outPoint ckb.OutPoint) error {
	key, err := cellKey(outPoint)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(key)
	}); err != nil {
		return fmt.Errorf("cellstore: badger delete: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger routes Badger's log output through zap.
type badgerLogger struct {
	l *zap.SugaredLogger
}

func (b badgerLogger) Errorf(format string, args ...interface{})   { b.l.Errorf(format, args...) }
func (b badgerLogger) Warningf(format string, args ...interface{}) { b.l.Warnf(format, args...) }
func (b badgerLogger) Infof(format string, args ...interface{})    { b.l.Debugf(format, args...) }
func (b badgerLogger) Debugf(format string, args ...interface{})   { b.l.Debugf(format, args...) }
