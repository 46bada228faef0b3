// Package config manages regkit configuration and its filesystem paths.
//
// Settings come from, in increasing priority: built-in defaults, a YAML
// config file, REGKIT_* environment variables and command-line flags.
// The config directory defaults to ~/.config/regkit and can be moved with
// REGKIT_CONFIG_DIR.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvConfigDir overrides the config directory.
const EnvConfigDir = "REGKIT_CONFIG_DIR"

// LocalConfigFile is looked up in the working directory before the user config.
const LocalConfigFile = ".regkit.yaml"

// Paths contains the filesystem paths used by regkit.
type Paths struct {
	// Dir is the config directory (default: ~/.config/regkit)
	Dir string

	// Config is the user config file
	Config string

	// Traces is the default output of the file trace exporter
	Traces string
}

// DefaultPaths returns the default paths for regkit.
// Paths can be overridden with environment variables:
// - REGKIT_CONFIG_DIR: Override the config directory
func DefaultPaths() (*Paths, error) {
	dir := os.Getenv(EnvConfigDir)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dir = filepath.Join(home, ".config", "regkit")
	}

	return &Paths{
		Dir:    dir,
		Config: filepath.Join(dir, "config.yaml"),
		Traces: filepath.Join(dir, "traces", "traces.jsonl"),
	}, nil
}

// EnsureDirectories creates the config directory if it doesn't exist.
func (p *Paths) EnsureDirectories() error {
	if err := os.MkdirAll(p.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.Dir, err)
	}
	return nil
}
