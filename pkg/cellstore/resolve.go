package cellstore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/suffix-labs/ckb-molecule/pkg/ckb"
)

// Resolve fills CellOutput and OutputData of every unresolved input of tx
// from store. An input whose cell is not stored yields a *ckb.ResolutionError
// naming the input; inputs resolved before the failure stay resolved.
func Resolve(ctx context.Context, store Store, tx *ckb.Transaction, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	resolved := 0
	for i := range tx.Inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		in := &tx.Inputs[i]
		if in.CellOutput != nil {
			continue
		}

		cell, err := store.GetCell(ctx, in.PreviousOutput)
		if errors.Is(err, ErrNotFound) {
			logger.Warn("input cell not found",
				zap.Int("input", i),
				zap.Stringer("txHash", in.PreviousOutput.TxHash),
				zap.Uint32("index", in.PreviousOutput.Index))
			return &ckb.ResolutionError{
				InputIndex: i,
				Message:    fmt.Sprintf("cell %s#%d not found", in.PreviousOutput.TxHash, in.PreviousOutput.Index),
			}
		}
		if err != nil {
			return fmt.Errorf("resolve input %d: %w", i, err)
		}

		out := cell.CellOutput
		in.CellOutput = &out
		in.OutputData = cell.OutputData
		resolved++
	}

	logger.Debug("resolved inputs", zap.Int("resolved", resolved), zap.Int("inputs", len(tx.Inputs)))
	return nil
}
