package engine

import (
	"regexp"
	"strings"
	"time"

	"github.com/leapstack-labs/prstat/pkg/dataset"
	"github.com/leapstack-labs/prstat/pkg/query"
)

// evaluator applies a predicate tree to records. It owns a cache of
// compiled LIKE patterns so a pattern is translated once per query, not once
// per row.
type evaluator struct {
	likeCache map[string]*regexp.Regexp
}

func newEvaluator() *evaluator {
	return &evaluator{likeCache: make(map[string]*regexp.Regexp)}
}

// eval evaluates a predicate tree against one record.
func (ev *evaluator) eval(pred query.Predicate, rec dataset.Record) bool {
	switch node := pred.(type) {
	case *query.And:
		return ev.eval(node.Left, rec) && ev.eval(node.Right, rec)
	case *query.Or:
		return ev.eval(node.Left, rec) || ev.eval(node.Right, rec)
	case *query.Comparison:
		return ev.evalComparison(node, rec)
	default:
		return false
	}
}

// evalComparison evaluates one comparison leaf. A dotted field path resolves
// into an object-list field with existential semantics: the comparison holds
// if any element's sub-field satisfies it.
func (ev *evaluator) evalComparison(cmp *query.Comparison, rec dataset.Record) bool {
	if root, sub, ok := strings.Cut(cmp.Field, "."); ok {
		return ev.evalDotted(cmp, rec, root, sub)
	}

	value, present := rec.Value(cmp.Field)
	if !present {
		return ev.absentResult(cmp.Op)
	}
	return ev.compareValue(value, cmp.Op, cmp.Value)
}

// evalDotted applies existential matching over the elements of an
// object-list field. An absent or empty list counts as an absent value.
func (ev *evaluator) evalDotted(cmp *query.Comparison, rec dataset.Record, root, sub string) bool {
	objs := rec.Objects(root)
	matched := false
	for _, obj := range objs {
		v, ok := obj[sub]
		if !ok || v == nil {
			continue
		}
		matched = true
		if ev.compareValue(v, cmp.Op, cmp.Value) {
			return true
		}
	}
	if !matched {
		return ev.absentResult(cmp.Op)
	}
	return false
}

// absentResult is the uniform null rule: an absent value fails every
// comparison except !=, which holds because "absent is not equal to
// anything".
func (ev *evaluator) absentResult(op query.Operator) bool {
	return op == query.OpNe
}

// compareValue dispatches on the concrete value type.
func (ev *evaluator) compareValue(value any, op query.Operator, lit query.Literal) bool {
	switch v := value.(type) {
	case float64:
		return ev.compareNumber(v, op, lit)
	case int:
		return ev.compareNumber(float64(v), op, lit)
	case string:
		return ev.compareText(v, op, lit)
	case bool:
		return ev.compareBool(v, op, lit)
	case time.Time:
		return ev.compareTime(v, op, lit)
	case []string:
		return ev.compareTextList(v, op, lit)
	default:
		return op == query.OpNe
	}
}

func (ev *evaluator) compareNumber(v float64, op query.Operator, lit query.Literal) bool {
	switch op {
	case query.OpIn:
		for _, item := range lit.List {
			if item.Kind == query.LiteralNumber && v == item.Num {
				return true
			}
		}
		return false
	case query.OpEq:
		return v == lit.Num
	case query.OpNe:
		return v != lit.Num
	case query.OpLt:
		return v < lit.Num
	case query.OpLe:
		return v <= lit.Num
	case query.OpGt:
		return v > lit.Num
	case query.OpGe:
		return v >= lit.Num
	default:
		return false
	}
}

func (ev *evaluator) compareText(v string, op query.Operator, lit query.Literal) bool {
	switch op {
	case query.OpIn:
		for _, item := range lit.List {
			if item.Kind == query.LiteralString && v == item.Str {
				return true
			}
		}
		return false
	case query.OpEq:
		// Equality is case-sensitive exact match; only LIKE and CONTAINS
		// fold case.
		return v == lit.Str
	case query.OpNe:
		return v != lit.Str
	case query.OpLt:
		return v < lit.Str
	case query.OpLe:
		return v <= lit.Str
	case query.OpGt:
		return v > lit.Str
	case query.OpGe:
		return v >= lit.Str
	case query.OpLike:
		return ev.likeMatch(lit.Str, v)
	case query.OpContains:
		return strings.Contains(strings.ToLower(v), strings.ToLower(lit.Str))
	default:
		return false
	}
}

func (ev *evaluator) compareBool(v bool, op query.Operator, lit query.Literal) bool {
	switch op {
	case query.OpEq:
		return v == lit.Bool
	case query.OpNe:
		return v != lit.Bool
	default:
		return false
	}
}

func (ev *evaluator) compareTime(v time.Time, op query.Operator, lit query.Literal) bool {
	switch op {
	case query.OpEq:
		return v.Equal(lit.Time)
	case query.OpNe:
		return !v.Equal(lit.Time)
	case query.OpLt:
		return v.Before(lit.Time)
	case query.OpLe:
		return !v.After(lit.Time)
	case query.OpGt:
		return v.After(lit.Time)
	case query.OpGe:
		return !v.Before(lit.Time)
	default:
		return false
	}
}

// compareTextList implements element containment for text-list fields.
func (ev *evaluator) compareTextList(v []string, op query.Operator, lit query.Literal) bool {
	if op != query.OpContains {
		return op == query.OpNe
	}
	for _, elem := range v {
		if strings.EqualFold(elem, lit.Str) {
			return true
		}
	}
	return false
}

// likeMatch applies a SQL LIKE pattern: % matches any run of characters,
// _ matches exactly one. Matching is case-insensitive and anchored to the
// full value.
func (ev *evaluator) likeMatch(pattern, value string) bool {
	re, ok := ev.likeCache[pattern]
	if !ok {
		re = compileLike(pattern)
		ev.likeCache[pattern] = re
	}
	return re.MatchString(value)
}

// compileLike translates a LIKE pattern into an anchored case-insensitive
// regular expression.
func compileLike(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`(?is)^`)
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(`.*`)
		case '_':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`$`)
	return regexp.MustCompile(b.String())
}
