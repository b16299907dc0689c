// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package util

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default ports and paths for the interpreter daemon.
const (
	DefaultWSPort   = 7350
	DefaultWSPath   = "/interp"
	DefaultIPCPath  = "/tmp/behaviord.sock"
	DefaultSeed     = 1
	DefaultJournal  = false
	DefaultWatching = true
)

// DaemonConfig represents the behaviord configuration file.
type DaemonConfig struct {
	ContentDir string `yaml:"content_dir" description:"Script content root containing scripts.yaml (required)"`
	Seed       int64  `yaml:"seed" description:"Deterministic RNG seed for game.random" default:"1"`

	IPCPath string `yaml:"ipc_path" description:"Unix socket path for local dispatchers" default:"/tmp/behaviord.sock"`
	WSPort  int    `yaml:"ws_port" description:"WebSocket port (0 = disabled)" default:"7350"`
	WSPath  string `yaml:"ws_path" description:"WebSocket endpoint path" default:"/interp"`

	Watch      bool   `yaml:"watch" description:"Reload script units when content files change" default:"true"`
	JournalDir string `yaml:"journal_dir" description:"Directory for compressed pass journals (empty = disabled)"`
}

// DefaultDaemonConfig returns the default daemon configuration. The
// content directory has no default and must be configured or flagged.
func DefaultDaemonConfig() DaemonConfig {
	return DaemonConfig{
		Seed:    DefaultSeed,
		IPCPath: DefaultIPCPath,
		WSPort:  DefaultWSPort,
		WSPath:  DefaultWSPath,
		Watch:   DefaultWatching,
	}
}

// GetDaemonDataDir returns the data directory for behaviord.
// It checks the -d flag value first, then BEHAVIORD_DATA.
// Returns empty string if neither is set.
func GetDaemonDataDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("BEHAVIORD_DATA")
}

// LoadDaemonConfig loads configuration from <dataDir>/config.yaml.
// Returns defaults if the directory is unset or the file doesn't exist;
// a file that exists but fails to parse is an error.
func LoadDaemonConfig(dataDir string) (DaemonConfig, error) {
	config := DefaultDaemonConfig()

	if dataDir == "" {
		return config, nil
	}

	path := filepath.Join(dataDir, "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Fill in defaults for missing values
	defaults := DefaultDaemonConfig()
	if config.IPCPath == "" {
		config.IPCPath = defaults.IPCPath
	}
	if config.WSPath == "" {
		config.WSPath = defaults.WSPath
	}

	// Relative content and journal paths resolve against the data dir
	config.ContentDir = ResolvePath(config.ContentDir, dataDir)
	config.JournalDir = ResolvePath(config.JournalDir, dataDir)

	return config, nil
}

// ResolvePath resolves a path relative to baseDir if not absolute.
// Returns path unchanged if empty or already absolute.
func ResolvePath(path, baseDir string) string {
	if path == "" || baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
