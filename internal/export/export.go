// Package export writes filtered row sets to disk for EXPORT queries.
// The destination extension picks the format: .csv writes CSV, anything
// else writes pretty-printed JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/prstat/pkg/dataset"
)

// Write saves the rows to the destination path and returns the number of
// rows written.
func Write(dest string, rows []dataset.Record) (int, error) {
	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer func() { _ = f.Close() }()

	if strings.EqualFold(filepath.Ext(dest), ".csv") {
		err = writeCSV(f, rows)
	} else {
		err = writeJSON(f, rows)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return len(rows), nil
}

func writeJSON(f *os.File, rows []dataset.Record) error {
	doc := struct {
		PRs        []dataset.Record `json:"prs"`
		Count      int              `json:"count"`
		ExportedAt time.Time        `json:"exported_at"`
	}{
		PRs:        rows,
		Count:      len(rows),
		ExportedAt: time.Now().UTC(),
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func writeCSV(f *os.File, rows []dataset.Record) error {
	cols := columns(rows)
	w := csv.NewWriter(f)

	if err := w.Write(cols); err != nil {
		return err
	}
	for _, row := range rows {
		values := make([]string, len(cols))
		for i, col := range cols {
			if v, ok := row.Value(col); ok {
				values[i] = formatCell(v)
			}
		}
		if err := w.Write(values); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// columns is the union of scalar field names across the rows, sorted for a
// stable header.
func columns(rows []dataset.Record) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		for name, v := range row {
			switch v.(type) {
			case []dataset.Object, []string:
				// list fields don't flatten into a CSV cell
			default:
				seen[name] = true
			}
		}
	}
	cols := make([]string, 0, len(seen))
	for name := range seen {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

func formatCell(v any) string {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
