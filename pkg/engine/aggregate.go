package engine

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/leapstack-labs/prstat/pkg/dataset"
)

// UnitGroup is the group key used when an aggregation has no BY clause.
const UnitGroup = "all"

// groupAcc accumulates one group while partitioning rows.
type groupAcc struct {
	key     string
	when    time.Time
	timeKey bool
	count   int
	values  []float64 // numeric target values, when the target is numeric
}

// groupRows partitions rows by the given key function, accumulating numeric
// target values when collect is non-nil, and returns summaries in final
// order: descending count, ties broken by ascending key (chronological for
// date buckets).
func groupRows(rows []dataset.Record, key func(dataset.Record) groupKey, collect func(dataset.Record) (float64, bool)) []GroupSummary {
	accs := make(map[string]*groupAcc)
	order := make([]string, 0)

	for _, rec := range rows {
		k := key(rec)
		acc, ok := accs[k.label]
		if !ok {
			acc = &groupAcc{key: k.label, when: k.when, timeKey: k.timeKey}
			accs[k.label] = acc
			order = append(order, k.label)
		}
		acc.count++
		if collect != nil {
			if v, ok := collect(rec); ok {
				acc.values = append(acc.values, v)
			}
		}
	}

	groups := make([]GroupSummary, 0, len(order))
	for _, label := range order {
		acc := accs[label]
		groups = append(groups, GroupSummary{
			Key:     acc.key,
			Count:   acc.count,
			Numeric: summarize(acc.values),
			when:    acc.when,
			timeKey: acc.timeKey,
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		if groups[i].timeKey && groups[j].timeKey {
			return groups[i].when.Before(groups[j].when)
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// groupKey is a group bucket label plus its chronological sort key when the
// bucket derives from a date.
type groupKey struct {
	label   string
	when    time.Time
	timeKey bool
}

// keyForValue renders a field value as a group key. Absent values map to an
// explicit missing bucket rather than being dropped.
func keyForValue(value any, present bool) groupKey {
	if !present {
		return groupKey{label: MissingGroup}
	}
	switch v := value.(type) {
	case string:
		return groupKey{label: v}
	case bool:
		return groupKey{label: strconv.FormatBool(v)}
	case float64:
		return groupKey{label: strconv.FormatFloat(v, 'f', -1, 64)}
	case time.Time:
		return monthBucket(v)
	default:
		return groupKey{label: fmt.Sprint(v)}
	}
}

// monthBucket buckets an instant by calendar month.
func monthBucket(t time.Time) groupKey {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return groupKey{label: start.Format("2006-01"), when: start, timeKey: true}
}

// summarize computes population summary statistics over the collected
// values. A singleton group reports a standard deviation of 0; an empty
// collection yields nil.
func summarize(values []float64) *NumericSummary {
	if len(values) == 0 {
		return nil
	}
	if len(values) == 1 {
		v := values[0]
		return &NumericSummary{Mean: v, Min: v, Max: v, Q1: v, Median: v, Q3: v}
	}

	data := stats.Float64Data(values)
	mean, _ := stats.Mean(data)
	sd, _ := stats.StandardDeviationPopulation(data)
	minV, _ := stats.Min(data)
	maxV, _ := stats.Max(data)
	median, _ := stats.Median(data)
	quartiles, _ := stats.Quartile(data)

	return &NumericSummary{
		Mean:   mean,
		StdDev: sd,
		Min:    minV,
		Max:    maxV,
		Q1:     quartiles.Q1,
		Median: median,
		Q3:     quartiles.Q3,
	}
}
