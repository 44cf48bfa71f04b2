package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/suffix-labs/ckb-molecule/pkg/api"
	"github.com/suffix-labs/ckb-molecule/pkg/bytesutil"
	"github.com/suffix-labs/ckb-molecule/pkg/cellstore"
	"github.com/suffix-labs/ckb-molecule/pkg/config"
	"github.com/suffix-labs/ckb-molecule/pkg/hasher"
	"github.com/suffix-labs/ckb-molecule/pkg/logging"
)

// GlobalFlags are accepted by every command.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
}

var (
	globalFlags GlobalFlags
	cfg         *config.Config
	logger      *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ckb-mol",
	Short: "Molecule codec and CKB transaction toolkit",
	Long: `ckb-mol encodes and decodes CKB data structures in the Molecule format,
computes transaction and script hashes, and runs the build, sign, combine and
extract steps of a transaction against a local cell store.

Binary values are read and written as 0x-prefixed hex; structures as JSON.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if globalFlags.ConfigPath != "" {
			cfg, err = config.LoadFile(globalFlags.ConfigPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return err
		}
		if globalFlags.Verbose {
			cfg.Log.Level = "debug"
		}
		logger, err = logging.FromConfig(cfg.Log)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "", "config file (default: $"+config.EnvVar+")")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(txCmd)
	rootCmd.AddCommand(cellCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(versionCmd)
}

// openSession opens the configured cell store. The returned func closes it.
func openSession(ctx context.Context) (*api.Session, cellstore.Store, func(), error) {
	store, err := cellstore.Open(ctx, cfg.StoreOptions(), logger)
	if err != nil {
		return nil, nil, nil, err
	}
	f, err := hasherFactory()
	if err != nil {
		return nil, nil, nil, errors.Join(err, store.Close())
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing cell store", zap.Error(err))
		}
	}
	return api.NewSession(store, f, logger), store, closeFn, nil
}

// hasherFactory returns the configured hash function.
func hasherFactory() (hasher.Factory, error) {
	return cfg.HasherFactory()
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// readHex reads a file holding one hex value.
func readHex(cmd *cobra.Command, path string) ([]byte, error) {
	raw, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	b, err := bytesutil.FromHex(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// readJSON decodes a JSON file into v.
func readJSON(cmd *cobra.Command, path string, v any) error {
	raw, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func printHex(cmd *cobra.Command, b []byte) {
	fmt.Fprintln(cmd.OutOrStdout(), bytesutil.ToHex(b))
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ckb-mol %s\n", Version)
	},
}
