// Package config loads and validates the depot configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete depot configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (DEPOT_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// Database Configuration Pattern:
// Each database backend defines its own option set. The Database struct
// contains type-specific sections (database.badger, database.memory)
// and only the section matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Store locates the on-disk store, log and scratch directories
	Store StoreConfig `mapstructure:"store"`

	// Database specifies the database backend and backend-specific options
	Database DatabaseConfig `mapstructure:"database"`

	// Build contains build-engine settings
	Build BuildConfig `mapstructure:"build"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Output specifies where engine logs are written
	// Valid values: stderr, stdout, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// StoreConfig locates the directories the engine works in.
type StoreConfig struct {
	// Root is the store directory holding terms and imported contents
	Root string `mapstructure:"root" validate:"required,startswith=/"`

	// LogDir is where builder output (run.log) is collected
	LogDir string `mapstructure:"log_dir" validate:"required,startswith=/"`

	// TmpDir is where scratch build directories are created
	TmpDir string `mapstructure:"tmp_dir" validate:"required,startswith=/"`
}

// DatabaseConfig specifies the key/value database backend.
//
// The Type field determines which backend is used. Only the
// corresponding type-specific section is consulted.
type DatabaseConfig struct {
	// Type specifies which database backend to use
	// Valid values: badger, memory
	Type string `mapstructure:"type" validate:"required,oneof=badger memory"`

	// Badger contains BadgerDB-specific options
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`

	// Memory contains memory-backend options (none currently)
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory"`
}

// BuildConfig contains build-engine settings.
type BuildConfig struct {
	// System is the platform tag of this engine; derivations build
	// only when their declared platform matches. Empty means the tag
	// is derived from the running process (GOARCH-GOOS).
	System string `mapstructure:"system"`

	// VerifyOutputs re-hashes build outputs and fails a build whose
	// output digest differs from the declared id
	VerifyOutputs bool `mapstructure:"verify_outputs"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the DEPOT_ prefix and underscores,
	// e.g. DEPOT_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DEPOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to
// the current directory if no home directory can be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "depot")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "depot")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
