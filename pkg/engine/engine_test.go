package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/prstat/pkg/dataset"
	"github.com/leapstack-labs/prstat/pkg/engine"
	"github.com/leapstack-labs/prstat/pkg/query"
)

func testSchema() *dataset.Schema {
	return dataset.NewSchema(map[string]dataset.Kind{
		"number":             dataset.KindNumber,
		"comments":           dataset.KindNumber,
		"title":              dataset.KindText,
		"state":              dataset.KindText,
		"author":             dataset.KindText,
		"is_draft":           dataset.KindBool,
		"created_at":         dataset.KindTime,
		"github_label_names": dataset.KindTextList,
		"labels_assigned":    dataset.KindObjectList,
	})
}

// testDataset builds a small fixed dataset. Record 4 deliberately has no
// state or comments, record 5 no labels.
func testDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Schema: testSchema(),
		Records: []dataset.Record{
			{
				"number":             1.0,
				"comments":           3.0,
				"title":              "Fix spring cleaning",
				"state":              "open",
				"author":             "alice",
				"is_draft":           false,
				"created_at":         time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
				"github_label_names": []string{"bug", "backend"},
				"labels_assigned": []dataset.Object{
					{"label": "bug", "confidence": 0.95},
				},
			},
			{
				"number":             2.0,
				"comments":           7.0,
				"title":              "Add spring profile",
				"state":              "open",
				"author":             "bob",
				"is_draft":           true,
				"created_at":         time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
				"github_label_names": []string{"feature"},
				"labels_assigned": []dataset.Object{
					{"label": "feature", "confidence": 0.6},
					{"label": "bug", "confidence": 0.3},
				},
			},
			{
				"number":             3.0,
				"comments":           4.0,
				"title":              "Springboard refactor",
				"state":              "closed",
				"author":             "alice",
				"is_draft":           false,
				"created_at":         time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
				"github_label_names": []string{"refactor"},
				"labels_assigned":    []dataset.Object{},
			},
			{
				"number":     4.0,
				"title":      "Orphan change",
				"author":     "carol",
				"is_draft":   false,
				"created_at": time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
			},
			{
				"number":   5.0,
				"comments": 0.0,
				"title":    "No labels here",
				"state":    "open",
				"author":   "bob",
				"is_draft": false,
			},
		},
	}
}

// run parses and executes one query line against the test dataset.
func run(t *testing.T, line string) *engine.ResultSet {
	t.Helper()
	ds := testDataset()
	q, err := query.Parse(line, ds.Schema)
	require.NoError(t, err, "parse %q", line)
	rs, err := engine.Execute(q, ds)
	require.NoError(t, err, "execute %q", line)
	return rs
}

// numbers extracts the PR numbers of the result rows, in order.
func numbers(rs *engine.ResultSet) []float64 {
	var out []float64
	for _, rec := range rs.Rows {
		v, _ := rec.Value("number")
		out = append(out, v.(float64))
	}
	return out
}

func TestFilterPreservesDatasetOrder(t *testing.T) {
	rs := run(t, "IDENTIFY comments >= 0")
	assert.Equal(t, []float64{1, 2, 3, 5}, numbers(rs))
}

func TestNoPredicateKeepsEveryRow(t *testing.T) {
	rs := run(t, "BAR state")
	assert.Len(t, rs.Rows, 5)
	assert.False(t, rs.Grouped())
}

func TestOperators(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []float64
	}{
		{"number equality", "IDENTIFY comments = 7", []float64{2}},
		{"number ordering", "IDENTIFY comments > 3", []float64{2, 3}},
		{"number in list", "IDENTIFY comments IN (3, 4)", []float64{1, 3}},
		{"text equality is case sensitive", "IDENTIFY author = 'Alice'", nil},
		{"text equality", "IDENTIFY author = 'alice'", []float64{1, 3}},
		{"text in list", "IDENTIFY state IN ('closed')", []float64{3}},
		{"bool", "IDENTIFY is_draft = true", []float64{2}},
		{"time ordering", "IDENTIFY created_at >= '2024-02-01'", []float64{3, 4}},
		{"and", "IDENTIFY state = 'open' AND comments > 5", []float64{2}},
		{"or", "IDENTIFY state = 'closed' OR is_draft = true", []float64{2, 3}},
		{
			"and binds tighter than or",
			"IDENTIFY state = 'closed' OR state = 'open' AND comments > 5",
			[]float64{2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := run(t, tt.line)
			assert.Equal(t, tt.want, numbers(rs))
		})
	}
}

func TestAbsentValues(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []float64
	}{
		// Record 4 has no comments and no state.
		{"absent fails equality", "IDENTIFY comments = 0", []float64{5}},
		{"absent fails ordering", "IDENTIFY comments < 100", []float64{1, 2, 3, 5}},
		{"absent passes not-equal", "IDENTIFY comments != 3", []float64{2, 3, 4, 5}},
		{"absent fails like", "IDENTIFY state LIKE '%'", []float64{1, 2, 3, 5}},
		{"absent fails in", "IDENTIFY state IN ('open', 'closed')", []float64{1, 2, 3, 5}},
		// Record 5 has no created_at.
		{"absent time passes not-equal", "IDENTIFY created_at != '2024-01-10'", []float64{2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := run(t, tt.line)
			assert.Equal(t, tt.want, numbers(rs))
		})
	}
}

func TestLikeMatching(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []float64
	}{
		{"anchored prefix", "IDENTIFY title LIKE 'fix%'", []float64{1}},
		{"unanchored needs percent", "IDENTIFY title LIKE 'spring'", nil},
		{"substring", "IDENTIFY title LIKE '%spring%'", []float64{1, 2, 3}},
		{"case insensitive", "IDENTIFY title LIKE '%SPRING%'", []float64{1, 2, 3}},
		{"underscore wildcard", "IDENTIFY state LIKE 'o_en'", []float64{1, 2, 5}},
		{"regex metacharacters are literal", "IDENTIFY title LIKE '%.%'", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := run(t, tt.line)
			assert.Equal(t, tt.want, numbers(rs))
		})
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []float64
	}{
		{"text substring", "IDENTIFY title CONTAINS 'spring'", []float64{1, 2, 3}},
		{"text substring case folded", "IDENTIFY title CONTAINS 'SPRING'", []float64{1, 2, 3}},
		{"list element match", "IDENTIFY github_label_names CONTAINS 'bug'", []float64{1}},
		{"list element is whole match", "IDENTIFY github_label_names CONTAINS 'bu'", nil},
		{"list element case folded", "IDENTIFY github_label_names CONTAINS 'BUG'", []float64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := run(t, tt.line)
			assert.Equal(t, tt.want, numbers(rs))
		})
	}
}

func TestDottedExistentialMatch(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []float64
	}{
		{"any element may match", "IDENTIFY labels_assigned.label = 'bug'", []float64{1, 2}},
		{"numeric subfield", "IDENTIFY labels_assigned.confidence > 0.9", []float64{1}},
		// Records 3 (empty list), 4 and 5 (no list) count as absent.
		{"empty list fails equality", "IDENTIFY labels_assigned.label = 'feature'", []float64{2}},
		{"empty list passes not-equal", "IDENTIFY labels_assigned.label != 'nothing'", []float64{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := run(t, tt.line)
			assert.Equal(t, tt.want, numbers(rs))
		})
	}
}

func TestSummaryStatisticsByGroup(t *testing.T) {
	rs := run(t, "STATS comments BY state WHERE comments >= 3")
	require.True(t, rs.Grouped())
	require.Len(t, rs.Groups, 2)

	// open has two matching rows (3 and 7 comments), closed one (4).
	open := rs.Groups[0]
	assert.Equal(t, "open", open.Key)
	assert.Equal(t, 2, open.Count)
	require.NotNil(t, open.Numeric)
	assert.InDelta(t, 5.0, open.Numeric.Mean, 1e-9)
	assert.InDelta(t, 2.0, open.Numeric.StdDev, 1e-9)
	assert.InDelta(t, 3.0, open.Numeric.Min, 1e-9)
	assert.InDelta(t, 7.0, open.Numeric.Max, 1e-9)
	assert.InDelta(t, 5.0, open.Numeric.Median, 1e-9)

	closed := rs.Groups[1]
	assert.Equal(t, "closed", closed.Key)
	assert.Equal(t, 1, closed.Count)
	require.NotNil(t, closed.Numeric)
	assert.InDelta(t, 4.0, closed.Numeric.Mean, 1e-9)
	assert.Zero(t, closed.Numeric.StdDev, "singleton group has zero deviation")
}

func TestSummaryWithoutByUsesUnitGroup(t *testing.T) {
	rs := run(t, "STATS comments")
	require.True(t, rs.Grouped())
	require.Len(t, rs.Groups, 1)

	g := rs.Groups[0]
	assert.Equal(t, engine.UnitGroup, g.Key)
	assert.Equal(t, 5, g.Count, "count covers all rows, stats only present values")
	require.NotNil(t, g.Numeric)
	assert.InDelta(t, 3.5, g.Numeric.Mean, 1e-9) // 3, 7, 4, 0
}

func TestGroupOrdering(t *testing.T) {
	rs := run(t, "BAR state BY state")
	require.True(t, rs.Grouped())
	require.Len(t, rs.Groups, 3)

	// open count 3; closed and (missing) tie at 1, broken by ascending key.
	assert.Equal(t, "open", rs.Groups[0].Key)
	assert.Equal(t, 3, rs.Groups[0].Count)
	assert.Equal(t, engine.MissingGroup, rs.Groups[1].Key)
	assert.Equal(t, "closed", rs.Groups[2].Key)
}

func TestMissingGroupBucket(t *testing.T) {
	rs := run(t, "STATS comments BY state")
	require.True(t, rs.Grouped())

	var keys []string
	for _, g := range rs.Groups {
		keys = append(keys, g.Key)
	}
	assert.Contains(t, keys, engine.MissingGroup)
}

func TestTrendBucketsByCalendarMonth(t *testing.T) {
	rs := run(t, "TREND created_at")
	require.True(t, rs.Grouped())
	require.Len(t, rs.Groups, 3)

	// 2024-01 and 2024-02 tie at two rows each; chronological order breaks
	// the tie. The record without created_at forms the missing bucket.
	assert.Equal(t, "2024-01", rs.Groups[0].Key)
	assert.Equal(t, 2, rs.Groups[0].Count)
	assert.Equal(t, "2024-02", rs.Groups[1].Key)
	assert.Equal(t, 2, rs.Groups[1].Count)
	assert.Equal(t, engine.MissingGroup, rs.Groups[2].Key)
	assert.Equal(t, 1, rs.Groups[2].Count)
}

func TestTrendWithByGroupsByField(t *testing.T) {
	rs := run(t, "TREND created_at BY state")
	require.True(t, rs.Grouped())
	require.Len(t, rs.Groups, 3)
	assert.Equal(t, "open", rs.Groups[0].Key)
	assert.Equal(t, 3, rs.Groups[0].Count)
}

func TestEmptyDataset(t *testing.T) {
	ds := &dataset.Dataset{Schema: testSchema()}
	q, err := query.Parse("HIST comments", ds.Schema)
	require.NoError(t, err)

	_, err = engine.Execute(q, ds)
	require.Error(t, err)

	var emptyErr *engine.EmptyDatasetError
	assert.ErrorAs(t, err, &emptyErr)
}

func TestUnresolvableField(t *testing.T) {
	ds := testDataset()

	// Bypass the parser to simulate a stale or hand-built query.
	q := &query.Query{Command: query.CommandDistribution, Field: "gone"}
	_, err := engine.Execute(q, ds)
	require.Error(t, err)

	var fieldErr *engine.UnresolvableFieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "gone", fieldErr.Field)

	q = &query.Query{
		Command: query.CommandLookup,
		Where:   &query.Comparison{Field: "gone.label", Op: query.OpEq},
	}
	_, err = engine.Execute(q, ds)
	assert.ErrorAs(t, err, &fieldErr)
}

func TestExportQueryProducesRows(t *testing.T) {
	rs := run(t, "EXPORT WHERE state = 'open' TO out.json")
	assert.False(t, rs.Grouped())
	assert.Equal(t, []float64{1, 2, 5}, numbers(rs))
}
