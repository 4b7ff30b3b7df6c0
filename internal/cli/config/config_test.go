package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/prstat/internal/cli/config"
)

// chdir moves into a scratch directory so prstat.yaml discovery never picks
// up a file from the working tree.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)

	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.DataPath)
	assert.Equal(t, config.DefaultOutput, cfg.Output)
	assert.Equal(t, config.DefaultRowLimit, cfg.RowLimit)
	assert.Equal(t, config.DefaultHistoryFile(), cfg.HistoryFile)
	assert.False(t, cfg.Verbose)
}

func TestLoadConfigFile(t *testing.T) {
	dir := chdir(t)

	yaml := "data: prs.json\nrow_limit: 50\noutput: json\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prstat.yaml"), []byte(yaml), 0o600))

	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "prs.json", cfg.DataPath)
	assert.Equal(t, 50, cfg.RowLimit)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "prstat.yaml", config.FileUsed())
}

func TestExplicitConfigFileMustExist(t *testing.T) {
	chdir(t)

	_, err := config.Load("nope.yaml", nil)
	require.Error(t, err)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := chdir(t)

	yaml := "output: json\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prstat.yaml"), []byte(yaml), 0o600))

	t.Setenv("PRSTAT_OUTPUT", "csv")
	t.Setenv("PRSTAT_DATA", "from_env.json")

	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.Output)
	assert.Equal(t, "from_env.json", cfg.DataPath)
}

func TestFlagsOverrideEverything(t *testing.T) {
	chdir(t)
	t.Setenv("PRSTAT_OUTPUT", "csv")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "", "")
	flags.Int("row-limit", 0, "")
	flags.Bool("verbose", false, "")
	require.NoError(t, flags.Parse([]string{"--output=markdown", "--row-limit=5"}))

	cfg, err := config.Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "markdown", cfg.Output, "changed flag wins over env")
	assert.Equal(t, 5, cfg.RowLimit)
	assert.False(t, cfg.Verbose, "unchanged flag keeps the lower-priority value")
}

func TestGetCurrentConfig(t *testing.T) {
	chdir(t)

	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Same(t, cfg, config.GetCurrentConfig())
}
