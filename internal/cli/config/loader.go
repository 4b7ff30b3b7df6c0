package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

var (
	// configFileUsed tracks which config file was loaded, for verbose output.
	configFileUsed string

	// currentConfig stores the loaded config for access by commands.
	currentConfig *Config
)

// findConfigFile finds the config file to use.
// Priority: explicit path > prstat.yaml > prstat.yml.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"prstat.yaml", "prstat.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load merges defaults, the config file, PRSTAT_* environment variables,
// and command-line flags into a Config.
func Load(explicitFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"history_file": DefaultHistoryFile(),
		"output":       DefaultOutput,
		"row_limit":    DefaultRowLimit,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file (optional unless explicitly requested)
	if path := findConfigFile(explicitFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		configFileUsed = path
	}

	// 3. Environment: PRSTAT_ROW_LIMIT -> row_limit
	if err := k.Load(env.Provider("PRSTAT_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "PRSTAT_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// 4. Command-line flags override everything. Flag names use dashes,
	// config keys use underscores (--row-limit -> row_limit).
	if flags != nil {
		p := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, any) {
			return strings.ReplaceAll(key, "-", "_"), value
		})
		if err := k.Load(p, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	currentConfig = &cfg
	return currentConfig, nil
}

// FileUsed returns the path of the config file that was loaded, if any.
func FileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the most recently loaded configuration, or nil
// if Load has not run yet.
func GetCurrentConfig() *Config {
	return currentConfig
}
