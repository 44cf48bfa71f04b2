// Package logging builds the zap loggers used by the ckb-mol CLI.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/suffix-labs/ckb-molecule/pkg/config"
)

// New builds a logger writing to stderr at level. Development mode uses the
// colored console encoder; otherwise output is JSON.
func New(level string, development bool) (*zap.Logger, error) {
	return build(config.LogConfig{Level: level, Development: development}, zapcore.Lock(os.Stderr))
}

// FromConfig builds a logger from the log section. When cfg.File is set the
// output goes to a size-rotated file.
func FromConfig(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.File == "" {
		return New(cfg.Level, cfg.Development)
	}
	return build(cfg, zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}))
}

func build(cfg config.LogConfig, out zapcore.WriteSyncer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	var encoder zapcore.Encoder
	if cfg.Development {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(ec)
	} else {
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(ec)
	}

	core := zapcore.NewCore(encoder, out, zap.NewAtomicLevelAt(level))
	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}
	return zap.New(core, opts...), nil
}
