package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/leapstack-labs/prstat/pkg/dataset"
	"github.com/leapstack-labs/prstat/pkg/engine"
	"github.com/leapstack-labs/prstat/pkg/query"
)

const (
	barWidth       = 30
	barRune        = "█"
	histogramBins  = 10
	titleCellWidth = 60
)

// lookupColumns are the columns shown for row-producing results (IDENTIFY
// and friends). They are a fixed, readable subset of the schema.
var lookupColumns = []string{"number", "title", "author", "state", "comments", "created_at"}

// resolveFormat maps the "auto" output format to a concrete one based on
// whether stdout is a terminal.
func resolveFormat(format string) string {
	if format != "auto" {
		return format
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return "table"
	}
	return "markdown"
}

// renderResult renders an executed query for the given output format.
// Group summaries render all groups; row results honor the row limit.
func renderResult(w io.Writer, rs *engine.ResultSet, format string, limit int) error {
	cols, results, total := buildGrid(rs, limit)

	switch format {
	case "json":
		return renderJSON(w, results)
	case "csv":
		return renderCSV(w, cols, results)
	case "md", "markdown":
		return renderMarkdown(w, cols, results)
	default:
		return renderTable(w, cols, results, total)
	}
}

// buildGrid turns a result set into an ordered column list plus row maps,
// the shape every output format renders from. The returned total is the
// pre-limit row count.
func buildGrid(rs *engine.ResultSet, limit int) ([]string, []map[string]any, int) {
	if rs.Grouped() {
		return groupGrid(rs)
	}

	switch rs.Query.Command {
	case query.CommandDistribution:
		return distributionGrid(rs)
	case query.CommandCategory:
		return countGrid(rs.Query.Field, rs.Rows)
	case query.CommandScatter:
		return scatterGrid(rs, limit)
	default:
		return rowGrid(rs.Rows, limit)
	}
}

// groupGrid renders group summaries: key, count, a bar, and summary
// statistics when the target field is numeric.
func groupGrid(rs *engine.ResultSet) ([]string, []map[string]any, int) {
	keyCol := rs.Query.GroupBy
	if keyCol == "" {
		keyCol = "group"
	}

	numeric := false
	maxCount := 0
	for _, g := range rs.Groups {
		if g.Numeric != nil {
			numeric = true
		}
		if g.Count > maxCount {
			maxCount = g.Count
		}
	}

	cols := []string{keyCol, "count"}
	if numeric {
		cols = append(cols, "mean", "stddev", "min", "max", "q1", "median", "q3")
	} else {
		cols = append(cols, "bar")
	}

	results := make([]map[string]any, 0, len(rs.Groups))
	for _, g := range rs.Groups {
		row := map[string]any{keyCol: g.Key, "count": g.Count}
		if numeric {
			if n := g.Numeric; n != nil {
				row["mean"] = formatFloat(n.Mean)
				row["stddev"] = formatFloat(n.StdDev)
				row["min"] = formatFloat(n.Min)
				row["max"] = formatFloat(n.Max)
				row["q1"] = formatFloat(n.Q1)
				row["median"] = formatFloat(n.Median)
				row["q3"] = formatFloat(n.Q3)
			}
		} else {
			row["bar"] = bar(g.Count, maxCount)
		}
		results = append(results, row)
	}
	return cols, results, len(results)
}

// distributionGrid buckets the target field's values. Numeric fields get an
// equal-width histogram; everything else falls back to value counts.
func distributionGrid(rs *engine.ResultSet) ([]string, []map[string]any, int) {
	field := rs.Query.Field
	if kind, _ := rs.Schema.Kind(field); kind != dataset.KindNumber {
		return countGrid(field, rs.Rows)
	}

	var values []float64
	for _, rec := range rs.Rows {
		if v, ok := rec.Value(field); ok {
			if n, isNum := v.(float64); isNum {
				values = append(values, n)
			}
		}
	}
	cols := []string{field, "count", "bar"}
	if len(values) == 0 {
		return cols, nil, 0
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	bins := histogramBins
	if lo == hi {
		bins = 1
	}
	counts := make([]int, bins)
	width := (hi - lo) / float64(bins)
	for _, v := range values {
		i := bins - 1
		if width > 0 {
			i = int((v - lo) / width)
			if i >= bins {
				i = bins - 1
			}
		}
		counts[i]++
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	results := make([]map[string]any, 0, bins)
	for i, c := range counts {
		label := formatFloat(lo)
		if width > 0 {
			label = fmt.Sprintf("%s .. %s", formatFloat(lo+float64(i)*width), formatFloat(lo+float64(i+1)*width))
		}
		results = append(results, map[string]any{
			field:   label,
			"count": c,
			"bar":   bar(c, maxCount),
		})
	}
	return cols, results, len(results)
}

// countGrid counts distinct values of a field across the filtered rows,
// ordered by descending count with ties broken by ascending value.
func countGrid(field string, rows []dataset.Record) ([]string, []map[string]any, int) {
	counts := make(map[string]int)
	var order []string
	for _, rec := range rows {
		label := engine.MissingGroup
		if v, ok := rec.Value(field); ok {
			label = displayValue(v)
		}
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		counts[label]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return order[i] < order[j]
	})

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	cols := []string{field, "count", "bar"}
	results := make([]map[string]any, 0, len(order))
	for _, label := range order {
		results = append(results, map[string]any{
			field:   label,
			"count": counts[label],
			"bar":   bar(counts[label], maxCount),
		})
	}
	return cols, results, len(results)
}

// scatterGrid lists the x (and optional y) values pairwise, up to the row
// limit. Rows missing either coordinate are skipped.
func scatterGrid(rs *engine.ResultSet, limit int) ([]string, []map[string]any, int) {
	q := rs.Query
	cols := []string{q.Field}
	if q.YField != "" {
		cols = append(cols, q.YField)
	}

	var results []map[string]any
	total := 0
	for _, rec := range rs.Rows {
		x, ok := rec.Value(q.Field)
		if !ok {
			continue
		}
		row := map[string]any{q.Field: displayValue(x)}
		if q.YField != "" {
			y, yok := rec.Value(q.YField)
			if !yok {
				continue
			}
			row[q.YField] = displayValue(y)
		}
		total++
		if limit <= 0 || len(results) < limit {
			results = append(results, row)
		}
	}
	return cols, results, total
}

// rowGrid lists the filtered records with the standard lookup columns.
func rowGrid(rows []dataset.Record, limit int) ([]string, []map[string]any, int) {
	n := len(rows)
	if limit > 0 && n > limit {
		rows = rows[:limit]
	}
	results := make([]map[string]any, 0, len(rows))
	for _, rec := range rows {
		row := make(map[string]any, len(lookupColumns))
		for _, col := range lookupColumns {
			if v, ok := rec.Value(col); ok {
				row[col] = truncate(displayValue(v), titleCellWidth)
			}
		}
		results = append(results, row)
	}
	return lookupColumns, results, n
}

func renderTable(w io.Writer, cols []string, results []map[string]any, total int) error {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, result := range results {
		row := make(table.Row, len(cols))
		for i, col := range cols {
			row[i] = formatValue(result[col])
		}
		t.AppendRow(row)
	}

	t.Render()
	if total > len(results) {
		_, _ = fmt.Fprintf(w, "(showing %d of %d rows)\n", len(results), total)
	} else {
		_, _ = fmt.Fprintf(w, "(%d rows)\n", len(results))
	}
	return nil
}

func renderJSON(w io.Writer, results []map[string]any) error {
	if results == nil {
		results = []map[string]any{}
	}
	for _, result := range results {
		delete(result, "bar")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func renderCSV(w io.Writer, cols []string, results []map[string]any) error {
	cols = dropBarColumn(cols)
	_, _ = fmt.Fprintln(w, strings.Join(cols, ","))

	for _, result := range results {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = escapeCSV(formatValue(result[col]))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, cols []string, results []map[string]any) error {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, result := range results {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = formatValue(result[col])
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

// dropBarColumn strips the presentation-only bar column for machine formats.
func dropBarColumn(cols []string) []string {
	out := cols[:0:0]
	for _, col := range cols {
		if col != "bar" {
			out = append(out, col)
		}
	}
	return out
}

// bar renders a count as a proportional unicode bar.
func bar(count, max int) string {
	if max <= 0 || count <= 0 {
		return ""
	}
	n := count * barWidth / max
	if n == 0 {
		n = 1
	}
	return strings.Repeat(barRune, n)
}

// displayValue formats a typed dataset value for display.
func displayValue(v any) string {
	switch val := v.(type) {
	case float64:
		return formatFloat(val)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format("2006-01-02")
	case []string:
		return strings.Join(val, ", ")
	case string:
		return val
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatFloat renders numbers without a trailing ".0" for whole values.
func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
