package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/ckb-molecule/pkg/bytesutil"
	"github.com/suffix-labs/ckb-molecule/pkg/ckb"
)

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Encode and hash scripts",
}

var scriptHashCmd = &cobra.Command{
	Use:   "hash <script.json>",
	Short: "Print the CKB hash of a script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := readScript(cmd, args[0])
		if err != nil {
			return err
		}
		h, err := script.Hash()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), h)
		return nil
	},
}

var scriptEncodeCmd = &cobra.Command{
	Use:   "encode <script.json>",
	Short: "Encode a script into Molecule hex",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := readScript(cmd, args[0])
		if err != nil {
			return err
		}
		b, err := script.ToBytes()
		if err != nil {
			return err
		}
		printHex(cmd, b)
		return nil
	},
}

var scriptDecodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Decode a Molecule-encoded script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := bytesutil.FromHex(args[0])
		if err != nil {
			return err
		}
		script, err := ckb.ScriptFromBytes(b)
		if err != nil {
			return err
		}
		return printJSON(cmd, script.Data())
	},
}

func readScript(cmd *cobra.Command, path string) (ckb.Script, error) {
	var data ckb.ScriptData
	if err := readJSON(cmd, path, &data); err != nil {
		return ckb.Script{}, err
	}
	return ckb.ScriptFrom(data)
}

func init() {
	scriptCmd.AddCommand(scriptHashCmd, scriptEncodeCmd, scriptDecodeCmd)
}
