package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/prstat/internal/cli/config"
	"github.com/leapstack-labs/prstat/internal/export"
	"github.com/leapstack-labs/prstat/internal/loader"
	"github.com/leapstack-labs/prstat/pkg/dataset"
	"github.com/leapstack-labs/prstat/pkg/engine"
	"github.com/leapstack-labs/prstat/pkg/query"
)

// getConfig returns the loaded CLI configuration, falling back to defaults
// when commands are exercised outside the root command (tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		HistoryFile: config.DefaultHistoryFile(),
		Output:      config.DefaultOutput,
		RowLimit:    config.DefaultRowLimit,
	}
}

// loadData reads and enriches the PR dataset from the configured path.
func loadData(cfg *config.Config) (*dataset.Dataset, error) {
	if cfg.DataPath == "" {
		return nil, fmt.Errorf("no data file configured (use --data, PRSTAT_DATA, or prstat.yaml)")
	}
	ds, err := loader.Load(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	return ds, nil
}

// executeLine parses one command line, executes it against the dataset, and
// renders the outcome. Export queries write to their destination instead of
// rendering.
func executeLine(w io.Writer, line string, ds *dataset.Dataset, format string, limit int) error {
	q, err := query.Parse(line, ds.Schema)
	if err != nil {
		return err
	}

	rs, err := engine.Execute(q, ds)
	if err != nil {
		return err
	}

	if q.Command == query.CommandExport {
		n, err := export.Write(q.Dest, rs.Rows)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "Exported %d rows to %s\n", n, q.Dest)
		return nil
	}

	return renderResult(w, rs, format, limit)
}

// NewQueryCommand creates the one-shot query command.
func NewQueryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "query <command>",
		Short: "Run a single query and exit",
		Long: `Execute one query against the PR dataset and print the result.

The query language is the same one the REPL accepts: HIST, PLOT, BAR,
TREND, STATS, IDENTIFY, and EXPORT, with an optional WHERE predicate.`,
		Example: `  # Summary statistics per state
  prstat query 'STATS comments BY state'

  # Find old open PRs
  prstat query 'IDENTIFY WHERE state = "open" AND age_days > 90'

  # Export a slice as CSV
  prstat query 'EXPORT WHERE is_draft = true TO drafts.csv'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			ds, err := loadData(cfg)
			if err != nil {
				return err
			}
			line := strings.Join(args, " ")
			return executeLine(cmd.OutOrStdout(), line, ds, resolveFormat(cfg.Output), cfg.RowLimit)
		},
	}
}
