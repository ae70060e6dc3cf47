// Package logging builds the process logger.
//
// Code throughout the repo logs through *slog.Logger. The records are handed
// to zap, which does the encoding: JSON in production, colored console output
// in development.
package logging

import (
	"fmt"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"

	"github.com/sakif/profile-dashboard/internal/config"
)

// New returns a slog.Logger backed by zap, and a sync func to flush buffered
// entries before the process exits.
func New(cfg config.Log) (*slog.Logger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}

	var zc zap.Config
	if cfg.Mode == config.LogModeProduction {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	zl, err := zc.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("logging: building zap logger: %w", err)
	}

	logger := slog.New(zapslog.NewHandler(zl.Core(), zapslog.WithCaller(true)))
	sync := func() { _ = zl.Sync() }
	return logger, sync, nil
}

// Discard returns a logger that drops everything. Tests use it.
func Discard() *slog.Logger {
	return slog.New(zapslog.NewHandler(zapcore.NewNopCore()))
}
