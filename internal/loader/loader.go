// Package loader ingests a JSON dump of pull requests and enriches it into
// the typed in-memory dataset the query core executes against.
//
// Enrichment adds the computed fields analysts actually query: ages, time
// buckets, label breakdowns, complexity and activity scores. The resulting
// schema is authoritative for the whole session.
package loader

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/leapstack-labs/prstat/pkg/dataset"
)

// Schema returns the field schema of the enriched dataset.
func Schema() *dataset.Schema {
	return dataset.NewSchema(map[string]dataset.Kind{
		"number":               dataset.KindNumber,
		"title":                dataset.KindText,
		"state":                dataset.KindText,
		"author":               dataset.KindText,
		"comments":             dataset.KindNumber,
		"is_draft":             dataset.KindBool,
		"locked":               dataset.KindBool,
		"created_at":           dataset.KindTime,
		"updated_at":           dataset.KindTime,
		"closed_at":            dataset.KindTime,
		"age_days":             dataset.KindNumber,
		"days_since_update":    dataset.KindNumber,
		"time_bucket":          dataset.KindText,
		"created_year":         dataset.KindNumber,
		"created_month":        dataset.KindNumber,
		"body_length":          dataset.KindNumber,
		"complexity":           dataset.KindText,
		"github_label_count":   dataset.KindNumber,
		"assigned_label_count": dataset.KindNumber,
		"github_label_names":   dataset.KindTextList,
		"assigned_label_names": dataset.KindTextList,
		"labels_assigned":      dataset.KindObjectList,
		"primary_label":        dataset.KindText,
		"total_reactions":      dataset.KindNumber,
		"activity_score":       dataset.KindNumber,
	})
}

// Load reads and enriches a PR dump from disk.
func Load(path string) (*dataset.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	ds, err := Parse(data, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	slog.Debug("loaded pull requests", "path", path, "count", ds.Len())
	return ds, nil
}

// Parse decodes a {"prs": [...]} document and enriches each entry relative
// to the given reference instant (injected for deterministic tests).
func Parse(data []byte, now time.Time) (*dataset.Dataset, error) {
	var doc struct {
		PRs []map[string]any `json:"prs"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid PR dump: %w", err)
	}

	ds := &dataset.Dataset{
		Records: make([]dataset.Record, 0, len(doc.PRs)),
		Schema:  Schema(),
	}
	for _, raw := range doc.PRs {
		ds.Records = append(ds.Records, enrich(raw, now))
	}
	return ds, nil
}
