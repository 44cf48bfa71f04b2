// Package config loads the ckb-mol configuration file.
//
// Configuration comes from a single YAML file named by the --config flag or
// the CKB_MOL_CONFIG environment variable. Without either, Default is used.
// Values in the file override the defaults field by field; ${VAR} references
// in paths are expanded.
package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/suffix-labs/ckb-molecule/pkg/cellstore"
	"github.com/suffix-labs/ckb-molecule/pkg/hasher"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "CKB_MOL_CONFIG"

// Config is the ckb-mol configuration.
type Config struct {
	Log   LogConfig   `yaml:"log"`
	Store StoreConfig `yaml:"store"`

	// Hasher selects the transaction hash function: "ckb" or "keccak256".
	Hasher string `yaml:"hasher"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `yaml:"level"`

	// Development switches to the human-readable console encoder.
	Development bool `yaml:"development"`

	// File, when set, receives logs through a rotating writer instead of
	// stderr.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// StoreConfig configures the cell store.
type StoreConfig struct {
	// Backend is "memory" or "badger".
	Backend string `yaml:"backend"`

	// Path is the Badger data directory. Empty keeps Badger in memory.
	Path string `yaml:"path"`

	// InMemoryTTL is how long cells live in the memory backend.
	InMemoryTTL time.Duration `yaml:"in_memory_ttl"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Store: StoreConfig{
			Backend:     cellstore.BackendBadger,
			Path:        "${HOME}/.ckb-mol/cells",
			InMemoryTTL: cellstore.DefaultTTL,
		},
		Hasher: "ckb",
	}
}

// Load loads the file named by CKB_MOL_CONFIG, or returns the defaults when
// the variable is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, cfg.Validate()
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every enumerated field.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Store.Backend {
	case cellstore.BackendMemory, cellstore.BackendBadger:
	default:
		return fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}
	if c.Store.InMemoryTTL < 0 {
		return fmt.Errorf("store.in_memory_ttl: negative duration %s", c.Store.InMemoryTTL)
	}
	if _, err := hasher.ByName(c.Hasher); err != nil {
		return fmt.Errorf("hasher: %w", err)
	}
	return nil
}

// StoreOptions converts the store section for cellstore.Open.
func (c *Config) StoreOptions() cellstore.Options {
	return cellstore.Options{
		Backend: c.Store.Backend,
		Path:    c.Store.Path,
		TTL:     c.Store.InMemoryTTL,
	}
}

// HasherFactory returns the configured hash function.
func (c *Config) HasherFactory() (hasher.Factory, error) {
	return hasher.ByName(c.Hasher)
}

func (c *Config) expandVariables() {
	c.Store.Path = os.ExpandEnv(c.Store.Path)
	c.Log.File = os.ExpandEnv(c.Log.File)
}
