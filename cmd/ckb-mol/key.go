package main

import (
	"github.com/spf13/cobra"

	"github.com/suffix-labs/ckb-molecule/pkg/bytesutil"
	"github.com/suffix-labs/ckb-molecule/pkg/ckb"
	"github.com/suffix-labs/ckb-molecule/pkg/crypto"
	"github.com/suffix-labs/ckb-molecule/pkg/roles"
)

var keyTestnet bool

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Generate and inspect secp256k1 keys",
}

// keyInfo describes a key and the default lock it owns.
type keyInfo struct {
	PrivateKey bytesutil.Hex  `json:"privateKey,omitempty"`
	WIF        string         `json:"wif,omitempty"`
	PublicKey  bytesutil.Hex  `json:"publicKey"`
	Lock       ckb.ScriptData `json:"lock"`
	LockHash   ckb.Hash       `json:"lockHash"`
}

func describeKey(key *crypto.PrivateKey, withSecret bool) (keyInfo, error) {
	pub := key.PublicKey()
	lock := roles.Secp256k1Lock(pub)
	lockHash, err := lock.Hash()
	if err != nil {
		return keyInfo{}, err
	}
	info := keyInfo{PublicKey: pub.Bytes(), Lock: lock.Data(), LockHash: lockHash}
	if withSecret {
		info.PrivateKey = key.Bytes()
		info.WIF = key.EncodeWIF(keyTestnet)
	}
	return info, nil
}

var keyNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a private key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := crypto.GeneratePrivateKey()
		if err != nil {
			return err
		}
		info, err := describeKey(key, true)
		if err != nil {
			return err
		}
		return printJSON(cmd, info)
	},
}

var keyInspectCmd = &cobra.Command{
	Use:   "inspect <hex|wif>",
	Short: "Print the public key and default lock of a private key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := crypto.ParsePrivateKey(args[0])
		if err != nil {
			return err
		}
		info, err := describeKey(key, false)
		if err != nil {
			return err
		}
		return printJSON(cmd, info)
	},
}

func init() {
	keyCmd.AddCommand(keyNewCmd, keyInspectCmd)
	keyCmd.PersistentFlags().BoolVar(&keyTestnet, "testnet", false, "encode WIF with the testnet prefix")
}
