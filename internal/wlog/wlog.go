// Package wlog builds the structured loggers passed explicitly into
// graphs and pipelines, per spec §9's "Global singletons: pass as
// explicit configuration structs to constructors; do not rely on
// process-wide mutable state." There is no package-level logger
// variable here on purpose.
package wlog

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger for the given environment name ("production"
// or "development"; any other value falls back to production config)
// at the given level ("debug", "info", "warn", "error"; empty defaults
// to "info"). Development mode adds caller info and a human-readable
// console encoder, matching zap's own convention.
func New(env, level string) (*zap.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("wlog: %w", err)
	}
	return lvl, nil
}

// Default returns a production logger at info level, discarding the
// (very rare) construction error by falling back to zap.NewNop —
// callers that need to observe that failure should call New directly.
func Default() *zap.Logger {
	l, err := New("production", "info")
	if err != nil {
		return zap.NewNop()
	}
	return l
}
