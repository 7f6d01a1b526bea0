package main

import (
	"go.uber.org/zap"

	"github.com/HappyEinara/wingline/internal/config"
	"github.com/HappyEinara/wingline/internal/wlog"
)

// effectiveSettings layers config file, environment variables, and
// command-line flags in that order, matching SPEC_FULL.md's "read
// explicitly in the CLI layer" rule: the engine packages never look at
// os.Getenv themselves.
func effectiveSettings() config.Settings {
	settings, err := config.Load(configPath)
	if err != nil {
		settings = config.Default()
	}
	settings = config.ApplyEnv(settings)

	if cacheDir != "" {
		settings.CacheDir = cacheDir
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}
	return settings
}

func buildLogger(settings config.Settings) *zap.Logger {
	logger, err := wlog.New(settings.LogEnv, settings.LogLevel)
	if err != nil {
		return wlog.Default()
	}
	return logger
}
