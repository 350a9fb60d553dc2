package config

import (
	"os"
	"strings"

	"github.com/marmos91/depot/pkg/engine"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values (0, "", false, nil) are replaced with defaults; explicit
// values are preserved. Backend-specific defaults are filled into the
// option maps so a generated config file shows them.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyStoreDefaults(&cfg.Store)
	applyDatabaseDefaults(&cfg.Database)
	applyBuildDefaults(&cfg.Build)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

// applyStoreDefaults sets store directory defaults.
func applyStoreDefaults(cfg *StoreConfig) {
	if cfg.Root == "" {
		cfg.Root = "/var/lib/depot/store"
	}
	if cfg.LogDir == "" {
		cfg.LogDir = "/var/lib/depot/log"
	}
	if cfg.TmpDir == "" {
		cfg.TmpDir = os.TempDir()
	}
}

// applyDatabaseDefaults sets database backend defaults.
func applyDatabaseDefaults(cfg *DatabaseConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}

	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}

	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = "/var/lib/depot/db"
	}
}

// applyBuildDefaults sets build-engine defaults.
func applyBuildDefaults(cfg *BuildConfig) {
	if cfg.System == "" {
		cfg.System = engine.DefaultSystem()
	}
}
