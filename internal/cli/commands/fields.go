package commands

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/prstat/internal/loader"
	"github.com/leapstack-labs/prstat/pkg/dataset"
)

// NewFieldsCommand creates the fields command.
func NewFieldsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List dataset fields and their types",
		Long: `List every queryable field with its type.

The schema is fixed: it covers the raw PR attributes plus the derived
fields computed at load time (age_days, complexity, primary_label, ...).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return renderFields(cmd.OutOrStdout(), loader.Schema())
		},
	}
}

func renderFields(w io.Writer, schema *dataset.Schema) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Field", "Type"})

	for _, name := range schema.Names() {
		kind, _ := schema.Kind(name)
		t.AppendRow(table.Row{name, kind.String()})
	}
	t.Render()
	return nil
}
