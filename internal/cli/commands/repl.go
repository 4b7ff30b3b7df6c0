package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/prstat/pkg/dataset"
)

// NewReplCommand creates the interactive REPL command.
func NewReplCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start the interactive query REPL",
		Long: `Start an interactive session against the PR dataset.

Queries are one line each. Type .help inside the session for the
available dot-commands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRepl(cmd)
		},
	}
}

func runRepl(cmd *cobra.Command) error {
	cfg := getConfig()
	ds, err := loadData(cfg)
	if err != nil {
		return err
	}

	format := resolveFormat(cfg.Output)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "prstat> ",
		HistoryFile:     cfg.HistoryFile,
		AutoComplete:    newQueryCompleter(ds.Schema),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "prstat (%d pull requests loaded)\n", ds.Len())
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if handleDotCommand(cmd, ds, line) {
				if line == ".quit" || line == ".exit" {
					break
				}
				continue
			}
		}

		// Parse and execution errors are reported but never end the session.
		if err := executeLine(out, line, ds, format, cfg.RowLimit); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(out)
	}

	return nil
}

func handleDotCommand(cmd *cobra.Command, ds *dataset.Dataset, line string) bool {
	switch strings.ToLower(strings.Fields(line)[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printReplHelp(cmd.OutOrStdout())
		return true

	case ".fields":
		if err := renderFields(cmd.OutOrStdout(), ds.Schema); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".clear":
		fmt.Print("\033[H\033[2J")
		return true

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", line)
		return true
	}
}

func printReplHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .fields         List dataset fields and their types
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Queries:
  HIST <field>                     value distribution
  PLOT <field> [VS <field>]        pairwise values
  BAR <field> [BY <field>]         category counts
  TREND <time-field> [BY <field>]  counts over time
  STATS <field> [BY <field>]       summary statistics
  IDENTIFY [WHERE] <predicate>     matching rows
  EXPORT [[WHERE] <predicate>] TO <dest>

Any query may end with WHERE <predicate>. Predicates combine
comparisons with AND and OR; AND binds tighter.

Tips:
  - Use arrow keys to navigate history
  - Tab completion works for commands and field names
`
	_, _ = fmt.Fprintln(w, help)
}

// newQueryCompleter builds a readline completer over the query keywords,
// dot-commands, and the dataset's field names.
func newQueryCompleter(schema *dataset.Schema) *readline.PrefixCompleter {
	var fields []readline.PrefixCompleterInterface
	for _, name := range schema.Names() {
		fields = append(fields, readline.PcItem(name))
	}

	items := []readline.PrefixCompleterInterface{
		readline.PcItem("HIST", fields...),
		readline.PcItem("PLOT", fields...),
		readline.PcItem("BAR", fields...),
		readline.PcItem("TREND", fields...),
		readline.PcItem("STATS", fields...),
		readline.PcItem("IDENTIFY", fields...),
		readline.PcItem("EXPORT"),
		readline.PcItem(".help"),
		readline.PcItem(".fields"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	}
	return readline.NewPrefixCompleter(items...)
}
