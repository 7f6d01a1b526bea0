// Package config holds wingline's Settings struct and its YAML loader,
// generalized from the teacher's app/settings package away from its
// UI-specific fields and toward the engine's own knobs: cache location
// and sizing, default log level, and the worker/queue tuning §9 calls
// out as implementation-defined.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Settings holds the values that tune a wingline run. Every field has a
// built-in default (see Default); a YAML file overlays only the keys it
// sets, and the CLI layer may overlay environment variables on top of
// that (see ApplyEnv) — the engine itself never reads the environment.
type Settings struct {
	// CacheDir is the root of the on-disk stage cache (§4.6). Empty
	// disables caching entirely.
	CacheDir string `yaml:"cache_dir"`
	// CacheMemEntries bounds the in-memory LRU of recent cache
	// hit/miss lookups (internal/cache's highwayhash-keyed map), not
	// the on-disk cache size itself.
	CacheMemEntries int `yaml:"cache_mem_entries"`
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
	// LogEnv selects zap's production or development encoder
	// ("production" or "development"), per internal/wlog.New.
	LogEnv string `yaml:"log_env"`
	// QueueCapacity bounds every inter-node channel in a graph (§9's
	// "bounded, to apply backpressure"). Zero means use the graph
	// package's own built-in default.
	QueueCapacity int `yaml:"queue_capacity"`
}

// Default returns wingline's built-in settings.
func Default() Settings {
	return Settings{
		CacheDir:        "",
		CacheMemEntries: 4096,
		LogLevel:        "info",
		LogEnv:          "production",
		QueueCapacity:   0,
	}
}

// Load reads path as YAML and overlays any keys it sets onto Default.
// A missing file is not an error: Load returns the defaults unchanged,
// matching the teacher's "return defaults on any error" posture for a
// config file that is optional by nature.
func Load(path string) (Settings, error) {
	settings := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, err
	}

	if err := yaml.Unmarshal(b, &settings); err != nil {
		return settings, err
	}
	return settings, nil
}
