package config

import "os"

// Environment variable names the CLI layer may apply on top of a loaded
// Settings. The engine itself (internal/graph, internal/cache,
// pipeline) never reads these; only cmd/winglinectl does, matching
// SPEC_FULL.md's "read explicitly in the CLI layer, not inside the
// engine."
const (
	EnvCacheDir = "WINGLINE_CACHE_DIR"
	EnvLogLevel = "WINGLINE_LOG_LEVEL"
)

// ApplyEnv overlays WINGLINE_CACHE_DIR and WINGLINE_LOG_LEVEL onto
// settings when present, and returns the result. Unset variables leave
// the corresponding field untouched.
func ApplyEnv(settings Settings) Settings {
	if v, ok := os.LookupEnv(EnvCacheDir); ok {
		settings.CacheDir = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		settings.LogLevel = v
	}
	return settings
}
