package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/ckb-molecule/pkg/api"
	"github.com/suffix-labs/ckb-molecule/pkg/bytesutil"
	"github.com/suffix-labs/ckb-molecule/pkg/ckb"
	"github.com/suffix-labs/ckb-molecule/pkg/crypto"
	"github.com/suffix-labs/ckb-molecule/pkg/roles"
)

var (
	txKey  string
	txArgs string
	txSig  string
	txFull bool
	txRaw  bool
)

// proposalFile is the JSON form of api.TransactionProposal.
type proposalFile struct {
	Version    uint32            `json:"version"`
	CellDeps   []ckb.CellDepData `json:"cellDeps"`
	HeaderDeps []bytesutil.Hex   `json:"headerDeps"`
	Inputs     []inputProposal   `json:"inputs"`
	Outputs    []outputProposal  `json:"outputs"`
	ChangeLock *ckb.ScriptData   `json:"changeLock,omitempty"`
	Fee        uint64            `json:"fee"`
}

type inputProposal struct {
	OutPoint ckb.OutPointData `json:"outPoint"`
	Since    uint64           `json:"since"`
}

type outputProposal struct {
	Output ckb.CellOutputData `json:"output"`
	Data   bytesutil.Hex      `json:"data"`
}

func (p proposalFile) toProposal() (*api.TransactionProposal, error) {
	out := &api.TransactionProposal{Version: p.Version, Fee: p.Fee}
	for i, d := range p.CellDeps {
		dep, err := d.ToCellDep()
		if err != nil {
			return nil, fmt.Errorf("cellDeps[%d]: %w", i, err)
		}
		out.CellDeps = append(out.CellDeps, dep)
	}
	for i, h := range p.HeaderDeps {
		hash, err := ckb.HashFromBytes(h)
		if err != nil {
			return nil, fmt.Errorf("headerDeps[%d]: %w", i, err)
		}
		out.HeaderDeps = append(out.HeaderDeps, hash)
	}
	for i, in := range p.Inputs {
		op, err := in.OutPoint.ToOutPoint()
		if err != nil {
			return nil, fmt.Errorf("inputs[%d]: %w", i, err)
		}
		out.Inputs = append(out.Inputs, api.InputProposal{OutPoint: op, Since: in.Since})
	}
	for i, o := range p.Outputs {
		cellOutput, err := o.Output.ToCellOutput()
		if err != nil {
			return nil, fmt.Errorf("outputs[%d]: %w", i, err)
		}
		out.Outputs = append(out.Outputs, api.OutputProposal{Output: cellOutput, Data: o.Data})
	}
	if p.ChangeLock != nil {
		lock, err := p.ChangeLock.ToScript()
		if err != nil {
			return nil, fmt.Errorf("changeLock: %w", err)
		}
		out.ChangeLock = &lock
	}
	return out, nil
}

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Encode, hash, build and sign transactions",
}

var txEncodeCmd = &cobra.Command{
	Use:   "encode <tx.json>",
	Short: "Encode a JSON transaction into Molecule hex",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data ckb.TransactionData
		if err := readJSON(cmd, args[0], &data); err != nil {
			return err
		}
		tx, err := ckb.TransactionFrom(data)
		if err != nil {
			return err
		}
		b, err := api.SerializeTransaction(tx)
		if err != nil {
			return err
		}
		printHex(cmd, b)
		return nil
	},
}

var txDecodeCmd = &cobra.Command{
	Use:   "decode <tx.hex>",
	Short: "Decode Molecule hex into a JSON transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tx, err := readTx(cmd, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, tx.Data())
	},
}

var txHashCmd = &cobra.Command{
	Use:   "hash <tx.hex>",
	Short: "Print the transaction hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tx, err := readTx(cmd, args[0])
		if err != nil {
			return err
		}
		f, err := hasherFactory()
		if err != nil {
			return err
		}
		var h ckb.Hash
		if txFull {
			h, err = tx.HashFull(f)
		} else {
			h, err = tx.Hash(f)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), h)
		return nil
	},
}

var txProposeCmd = &cobra.Command{
	Use:   "propose <proposal.json>",
	Short: "Build a transaction spending cells from the cell store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var file proposalFile
		if err := readJSON(cmd, args[0], &file); err != nil {
			return err
		}
		proposal, err := file.toProposal()
		if err != nil {
			return err
		}
		s, _, done, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		b, err := s.ProposeTransaction(cmd.Context(), proposal)
		if err != nil {
			return err
		}
		printHex(cmd, b)
		return nil
	},
}

var txSighashCmd = &cobra.Command{
	Use:   "sighash <tx.hex>",
	Short: "Prepare the default-lock group owning --args and print the digest to sign",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lock, err := defaultLockFromArgs(txArgs)
		if err != nil {
			return err
		}
		txBytes, err := readHex(cmd, args[0])
		if err != nil {
			return err
		}
		s, _, done, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		prepared, info, err := s.GetSignHash(cmd.Context(), txBytes, lock)
		if err != nil {
			return err
		}
		return printJSON(cmd, struct {
			Transaction bytesutil.Hex `json:"transaction"`
			Message     ckb.Hash      `json:"message"`
			Position    int           `json:"position"`
		}{prepared, info.Message, info.Position})
	},
}

var txAppendCmd = &cobra.Command{
	Use:   "append-signature <tx.hex>",
	Short: "Store an externally made signature for the group owning --args",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lock, err := defaultLockFromArgs(txArgs)
		if err != nil {
			return err
		}
		signature, err := bytesutil.FromHex(txSig)
		if err != nil {
			return fmt.Errorf("--signature: %w", err)
		}
		txBytes, err := readHex(cmd, args[0])
		if err != nil {
			return err
		}
		s, _, done, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		b, err := s.AppendSignature(cmd.Context(), txBytes, lock, signature)
		if err != nil {
			return err
		}
		printHex(cmd, b)
		return nil
	},
}

var txSignCmd = &cobra.Command{
	Use:   "sign <tx.hex>",
	Short: "Sign the group locked by the default lock of --key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := crypto.ParsePrivateKey(txKey)
		if err != nil {
			return fmt.Errorf("--key: %w", err)
		}
		txBytes, err := readHex(cmd, args[0])
		if err != nil {
			return err
		}
		s, _, done, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		b, err := s.SignTransaction(cmd.Context(), txBytes, key)
		if err != nil {
			return err
		}
		printHex(cmd, b)
		return nil
	},
}

var txCombineCmd = &cobra.Command{
	Use:   "combine <tx.hex>...",
	Short: "Merge witnesses of copies signed by different parties",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list := make([][]byte, len(args))
		for i, path := range args {
			b, err := readHex(cmd, path)
			if err != nil {
				return err
			}
			list[i] = b
		}
		f, err := hasherFactory()
		if err != nil {
			return err
		}
		b, err := api.NewSession(nil, f, logger).Combine(list)
		if err != nil {
			return err
		}
		printHex(cmd, b)
		return nil
	},
}

var txExtractCmd = &cobra.Command{
	Use:   "extract <tx.hex>",
	Short: "Check every group is signed and print the final transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		txBytes, err := readHex(cmd, args[0])
		if err != nil {
			return err
		}
		s, _, done, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		final, txHash, err := s.FinalizeAndExtract(cmd.Context(), txBytes)
		if err != nil {
			return err
		}
		if txRaw {
			printHex(cmd, final)
			return nil
		}
		return printJSON(cmd, struct {
			Hash        ckb.Hash      `json:"hash"`
			Transaction bytesutil.Hex `json:"transaction"`
		}{txHash, final})
	},
}

var txCommitCmd = &cobra.Command{
	Use:   "commit <tx.hex>",
	Short: "Spend the inputs and store the outputs in the cell store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		txBytes, err := readHex(cmd, args[0])
		if err != nil {
			return err
		}
		s, _, done, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		txHash, err := s.Commit(cmd.Context(), txBytes)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), txHash)
		return nil
	},
}

func readTx(cmd *cobra.Command, path string) (*ckb.Transaction, error) {
	b, err := readHex(cmd, path)
	if err != nil {
		return nil, err
	}
	return api.ParseTransaction(b)
}

func defaultLockFromArgs(args string) (ckb.Script, error) {
	b, err := bytesutil.FromHex(args)
	if err != nil {
		return ckb.Script{}, fmt.Errorf("--args: %w", err)
	}
	if len(b) != crypto.Blake160Size {
		return ckb.Script{}, fmt.Errorf("--args: expected %d bytes, got %d", crypto.Blake160Size, len(b))
	}
	return ckb.Script{CodeHash: roles.Secp256k1Blake160CodeHash, HashType: ckb.HashTypeType, Args: b}, nil
}

func init() {
	txCmd.AddCommand(txEncodeCmd, txDecodeCmd, txHashCmd, txProposeCmd, txSighashCmd,
		txAppendCmd, txSignCmd, txCombineCmd, txExtractCmd, txCommitCmd)

	txHashCmd.Flags().BoolVar(&txFull, "full", false, "hash the full transaction including witnesses")
	txSighashCmd.Flags().StringVar(&txArgs, "args", "", "blake160 of the signer's public key (hex)")
	txAppendCmd.Flags().StringVar(&txArgs, "args", "", "blake160 of the signer's public key (hex)")
	txAppendCmd.Flags().StringVar(&txSig, "signature", "", "65-byte recoverable signature (hex)")
	txSignCmd.Flags().StringVar(&txKey, "key", "", "private key as hex or WIF")
	txExtractCmd.Flags().BoolVar(&txRaw, "raw", false, "print only the transaction hex")

	_ = txSighashCmd.MarkFlagRequired("args")
	_ = txAppendCmd.MarkFlagRequired("args")
	_ = txAppendCmd.MarkFlagRequired("signature")
	_ = txSignCmd.MarkFlagRequired("key")
}
