package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultConfigTemplate is the starter configuration written by InitConfig.
const defaultConfigTemplate = `# Depot Configuration File
#
# Values here are overridden by DEPOT_* environment variables,
# e.g. DEPOT_LOGGING_LEVEL=DEBUG.

logging:
  # Minimum log level: DEBUG, INFO, WARN, ERROR
  level: INFO
  # Where engine logs go: stderr, stdout, or a file path
  output: stderr

store:
  # Store directory holding terms and imported contents
  root: /var/lib/depot/store
  # Builder output is appended to <log_dir>/run.log
  log_dir: /var/lib/depot/log
  # Scratch build directories are created here
  tmp_dir: /tmp

database:
  # Database backend: badger (persistent) or memory (ephemeral)
  type: badger
  badger:
    db_path: /var/lib/depot/db

build:
  # Platform tag; leave empty to derive from the running process
  system: ""
  # Re-hash build outputs and fail on digest mismatch
  verify_outputs: false
`

// InitConfig writes the starter configuration file to the default
// location, creating the configuration directory if needed.
//
// An existing file is never overwritten unless force is set.
// Returns the path of the configuration file.
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return configPath, fmt.Errorf("config file already exists at %s", configPath)
		}
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfigTemplate), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}
