// Package engine executes parsed queries against an in-memory dataset.
//
// Execution is a pure, synchronous transformation: filter the dataset
// row-by-row with the query's predicate, then either return the surviving
// rows in their original order or partition them into ordered group
// summaries. Concurrent Execute calls against the same dataset are safe as
// long as the dataset is not mutated.
package engine

import (
	"strings"

	"github.com/leapstack-labs/prstat/pkg/dataset"
	"github.com/leapstack-labs/prstat/pkg/query"
)

// Execute runs a parsed query against the dataset and returns its result
// set. The dataset is read-only; the result is freshly allocated.
func Execute(q *query.Query, ds *dataset.Dataset) (*ResultSet, error) {
	if ds.Len() == 0 {
		return nil, &EmptyDatasetError{}
	}
	if err := checkFields(q, ds.Schema); err != nil {
		return nil, err
	}

	rows := filter(q.Where, ds.Records)
	rs := &ResultSet{Query: q, Schema: ds.Schema, Rows: rows}

	switch q.Command {
	case query.CommandSummary:
		rs.Groups = summaryGroups(q, ds.Schema, rows)
	case query.CommandTrend:
		rs.Groups = trendGroups(q, rows)
	case query.CommandCategory:
		if q.GroupBy != "" {
			rs.Groups = summaryGroups(q, ds.Schema, rows)
		}
	}
	return rs, nil
}

// filter evaluates the predicate per record, preserving dataset order. A nil
// predicate keeps every row.
func filter(pred query.Predicate, records []dataset.Record) []dataset.Record {
	if pred == nil {
		out := make([]dataset.Record, len(records))
		copy(out, records)
		return out
	}
	ev := newEvaluator()
	out := make([]dataset.Record, 0, len(records))
	for _, rec := range records {
		if ev.eval(pred, rec) {
			out = append(out, rec)
		}
	}
	return out
}

// summaryGroups partitions rows by the BY field (or the unit group) and
// attaches numeric summary statistics when the target field is numeric.
func summaryGroups(q *query.Query, schema *dataset.Schema, rows []dataset.Record) []GroupSummary {
	key := func(dataset.Record) groupKey { return groupKey{label: UnitGroup} }
	if q.GroupBy != "" {
		field := q.GroupBy
		key = func(rec dataset.Record) groupKey {
			v, present := rec.Value(field)
			return keyForValue(v, present)
		}
	}

	var collect func(dataset.Record) (float64, bool)
	if kind, _ := schema.Kind(q.Field); kind == dataset.KindNumber {
		field := q.Field
		collect = func(rec dataset.Record) (float64, bool) {
			v, present := rec.Value(field)
			if !present {
				return 0, false
			}
			n, ok := v.(float64)
			return n, ok
		}
	}

	return groupRows(rows, key, collect)
}

// trendGroups buckets rows chronologically. Without BY the time target is
// bucketed by calendar month; with BY the group field's values form the
// buckets (month buckets when the group field is itself a datetime).
func trendGroups(q *query.Query, rows []dataset.Record) []GroupSummary {
	field := q.Field
	if q.GroupBy != "" {
		field = q.GroupBy
	}
	key := func(rec dataset.Record) groupKey {
		v, present := rec.Value(field)
		return keyForValue(v, present)
	}
	return groupRows(rows, key, nil)
}

// checkFields re-validates every field reference in the query against the
// schema. The parser already did this, but the engine does not trust its
// callers to have gone through the parser.
func checkFields(q *query.Query, schema *dataset.Schema) error {
	for _, field := range []string{q.Field, q.YField, q.GroupBy} {
		if field != "" && !schema.Has(field) {
			return &UnresolvableFieldError{Field: field}
		}
	}
	return checkPredicateFields(q.Where, schema)
}

func checkPredicateFields(pred query.Predicate, schema *dataset.Schema) error {
	switch node := pred.(type) {
	case nil:
		return nil
	case *query.And:
		if err := checkPredicateFields(node.Left, schema); err != nil {
			return err
		}
		return checkPredicateFields(node.Right, schema)
	case *query.Or:
		if err := checkPredicateFields(node.Left, schema); err != nil {
			return err
		}
		return checkPredicateFields(node.Right, schema)
	case *query.Comparison:
		root, _, _ := strings.Cut(node.Field, ".")
		if !schema.Has(root) {
			return &UnresolvableFieldError{Field: node.Field}
		}
		return nil
	default:
		return nil
	}
}
