package engine

import (
	"time"

	"github.com/leapstack-labs/prstat/pkg/dataset"
	"github.com/leapstack-labs/prstat/pkg/query"
)

// MissingGroup is the bucket label for records whose group field is absent.
// Absent group values are reported explicitly, never dropped.
const MissingGroup = "(missing)"

// ResultSet is the outcome of executing one query: either the filtered row
// sequence (in original dataset order) or a sequence of group summaries,
// already in final presentation order.
type ResultSet struct {
	Query  *query.Query
	Schema *dataset.Schema

	// Rows is the filtered row sequence for row-producing queries
	// (HIST, PLOT, BAR without BY, IDENTIFY, EXPORT).
	Rows []dataset.Record

	// Groups holds grouped summaries for aggregation queries (STATS always,
	// TREND, and BAR with BY), ordered by descending count with ties broken
	// by ascending key. Nil for row-producing queries.
	Groups []GroupSummary
}

// Grouped reports whether the result carries group summaries.
func (rs *ResultSet) Grouped() bool {
	return rs.Groups != nil
}

// GroupSummary is the aggregate record for one group key.
type GroupSummary struct {
	Key     string
	Count   int
	Numeric *NumericSummary // non-nil only when the target field is numeric

	// when orders date-bucket groups chronologically on count ties.
	when    time.Time
	timeKey bool
}

// NumericSummary carries summary statistics for a numeric target within a
// group. Statistics are population statistics; a singleton group reports a
// standard deviation of 0 rather than NaN.
type NumericSummary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	Q1     float64
	Median float64
	Q3     float64
}
