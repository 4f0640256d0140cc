package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig is the optional TOML configuration file. Pointer fields keep
// "unset" distinguishable from zero values; CLI flags always win.
type FileConfig struct {
	Export ExportConfig `toml:"export"`
}

// ExportConfig maps export-related defaults.
type ExportConfig struct {
	TicksPerBeat *int    `toml:"ticks-per-beat"`
	Mode         *string `toml:"mode"`
}

// DefaultConfigPath returns the TOML config path under the XDG config
// home.
func DefaultConfigPath() string {
	return filepath.Join(xdgConfigHome(), "klyrtool", "config.toml")
}

func xdgConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// LoadConfig reads a TOML config from the given path. A missing file is
// not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
