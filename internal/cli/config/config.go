// Package config provides configuration management for the prstat CLI.
//
// Configuration is merged from four layers, lowest priority first:
// built-in defaults, a prstat.yaml file, PRSTAT_* environment variables,
// and command-line flags.
package config

import (
	"os"
	"path/filepath"
)

// Default configuration values.
const (
	DefaultOutput   = "auto" // auto-detect: TTY=table, non-TTY=markdown
	DefaultRowLimit = 20
)

// Config holds all CLI configuration options.
type Config struct {
	DataPath    string `koanf:"data"`
	HistoryFile string `koanf:"history_file"`
	Output      string `koanf:"output"`
	RowLimit    int    `koanf:"row_limit"`
	Verbose     bool   `koanf:"verbose"`
}

// DefaultHistoryFile returns the default REPL history location under the
// user's home directory.
func DefaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".prstat_history"
	}
	return filepath.Join(home, ".prstat_history")
}
