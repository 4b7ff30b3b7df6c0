package export_test

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/prstat/internal/export"
	"github.com/leapstack-labs/prstat/pkg/dataset"
)

func sampleRows() []dataset.Record {
	return []dataset.Record{
		{
			"number":             1.0,
			"title":              "First, with a comma",
			"state":              "open",
			"is_draft":           false,
			"created_at":         time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
			"github_label_names": []string{"bug"},
			"labels_assigned":    []dataset.Object{{"label": "bug", "confidence": 0.9}},
		},
		{
			"number": 2.0,
			"title":  "Second",
			"state":  "closed",
		},
	}
}

func TestWriteJSON(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.json")

	n, err := export.Write(dest, sampleRows())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)

	var doc struct {
		PRs        []map[string]any `json:"prs"`
		Count      int              `json:"count"`
		ExportedAt time.Time        `json:"exported_at"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 2, doc.Count)
	require.Len(t, doc.PRs, 2)
	assert.Equal(t, "First, with a comma", doc.PRs[0]["title"])
	assert.False(t, doc.ExportedAt.IsZero())
}

func TestWriteCSV(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.csv")

	n, err := export.Write(dest, sampleRows())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus two rows")

	// Scalar columns only, sorted; list fields don't flatten into cells.
	header := records[0]
	assert.Equal(t, []string{"created_at", "is_draft", "number", "state", "title"}, header)

	assert.Equal(t, []string{"2024-01-10T09:00:00Z", "false", "1", "open", "First, with a comma"}, records[1])
	assert.Equal(t, []string{"", "", "2", "closed", "Second"}, records[2])
}

func TestWriteEmptyRowSet(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "empty.json")

	n, err := export.Write(dest, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)

	var doc struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Zero(t, doc.Count)
}

func TestWriteUnwritableDestination(t *testing.T) {
	_, err := export.Write(filepath.Join(t.TempDir(), "no", "such", "dir", "out.json"), sampleRows())
	require.Error(t, err)
}
