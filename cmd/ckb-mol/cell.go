package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/ckb-molecule/pkg/ckb"
)

var cellCmd = &cobra.Command{
	Use:   "cell",
	Short: "Manage live cells in the cell store",
}

var cellPutCmd = &cobra.Command{
	Use:   "put <cell.json>",
	Short: "Store a live cell",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data ckb.CellData
		if err := readJSON(cmd, args[0], &data); err != nil {
			return err
		}
		cell, err := ckb.CellFrom(data)
		if err != nil {
			return err
		}
		_, store, done, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		if err := store.PutCell(cmd.Context(), cell); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s#%d\n", cell.OutPoint.TxHash, cell.OutPoint.Index)
		return nil
	},
}

var cellGetCmd = &cobra.Command{
	Use:   "get <tx-hash> <index>",
	Short: "Print a live cell",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		outPoint, err := parseOutPoint(args[0], args[1])
		if err != nil {
			return err
		}
		_, store, done, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		cell, err := store.GetCell(cmd.Context(), outPoint)
		if err != nil {
			return err
		}
		return printJSON(cmd, cell.Data())
	},
}

var cellDeleteCmd = &cobra.Command{
	Use:   "delete <tx-hash> <index>",
	Short: "Remove a live cell",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		outPoint, err := parseOutPoint(args[0], args[1])
		if err != nil {
			return err
		}
		_, store, done, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()
		return store.DeleteCell(cmd.Context(), outPoint)
	},
}

func parseOutPoint(txHash, index string) (ckb.OutPoint, error) {
	h, err := ckb.ParseHash(txHash)
	if err != nil {
		return ckb.OutPoint{}, err
	}
	i, err := strconv.ParseUint(index, 10, 32)
	if err != nil {
		return ckb.OutPoint{}, fmt.Errorf("index: %w", err)
	}
	return ckb.OutPoint{TxHash: h, Index: uint32(i)}, nil
}

func init() {
	cellCmd.AddCommand(cellPutCmd, cellGetCmd, cellDeleteCmd)
}
