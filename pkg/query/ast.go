package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Command is the kind of a parsed query.
type Command int

const (
	CommandDistribution Command = iota // HIST field
	CommandScatter                     // PLOT x [VS y]
	CommandCategory                    // BAR field [BY group]
	CommandTrend                       // TREND timeField [BY group]
	CommandSummary                     // STATS field [BY group]
	CommandLookup                      // IDENTIFY predicate
	CommandExport                      // EXPORT [predicate] TO dest
)

// Keyword returns the command keyword in canonical (upper-case) form.
func (c Command) Keyword() string {
	switch c {
	case CommandDistribution:
		return "HIST"
	case CommandScatter:
		return "PLOT"
	case CommandCategory:
		return "BAR"
	case CommandTrend:
		return "TREND"
	case CommandSummary:
		return "STATS"
	case CommandLookup:
		return "IDENTIFY"
	case CommandExport:
		return "EXPORT"
	default:
		return "?"
	}
}

// Query is one parsed command line. Built fresh per line, never mutated
// after construction.
type Query struct {
	Command Command
	Field   string    // target field; empty for IDENTIFY/EXPORT
	YField  string    // PLOT ... VS y
	GroupBy string    // BY group
	Where   Predicate // optional filter
	Dest    string    // EXPORT ... TO dest
}

// String renders a canonical form of the query. Parsing the result yields a
// semantically identical query.
func (q *Query) String() string {
	var b strings.Builder
	b.WriteString(q.Command.Keyword())
	if q.Field != "" {
		b.WriteByte(' ')
		b.WriteString(q.Field)
	}
	if q.YField != "" {
		b.WriteString(" VS ")
		b.WriteString(q.YField)
	}
	if q.GroupBy != "" {
		b.WriteString(" BY ")
		b.WriteString(q.GroupBy)
	}
	if q.Where != nil {
		b.WriteString(" WHERE ")
		b.WriteString(q.Where.String())
	}
	if q.Command == CommandExport {
		b.WriteString(" TO ")
		b.WriteString(q.Dest)
	}
	return b.String()
}

// Predicate is a boolean expression tree evaluated per record. The three
// node kinds are Comparison, And, and Or.
type Predicate interface {
	fmt.Stringer
	predicate()
}

// Operator is a comparison operator in a predicate leaf.
type Operator int

const (
	OpEq Operator = iota // =
	OpNe                 // !=
	OpLt                 // <
	OpLe                 // <=
	OpGt                 // >
	OpGe                 // >=
	OpLike               // LIKE
	OpContains           // CONTAINS
	OpIn                 // IN
)

// String returns the canonical spelling of the operator.
func (op Operator) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpLike:
		return "LIKE"
	case OpContains:
		return "CONTAINS"
	case OpIn:
		return "IN"
	default:
		return "?"
	}
}

// Comparison is a leaf node: field op literal. Field may be a dotted path
// into an object-list field (e.g. labels_assigned.label), in which case the
// engine applies existential semantics over the list elements.
type Comparison struct {
	Field string
	Op    Operator
	Value Literal
}

func (*Comparison) predicate() {}

func (c *Comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Op, c.Value)
}

// And combines two predicates; both must hold.
type And struct {
	Left, Right Predicate
}

func (*And) predicate() {}

func (a *And) String() string {
	return fmt.Sprintf("%s AND %s", a.Left, a.Right)
}

// Or combines two predicates; at least one must hold.
type Or struct {
	Left, Right Predicate
}

func (*Or) predicate() {}

func (o *Or) String() string {
	return fmt.Sprintf("%s OR %s", o.Left, o.Right)
}

// LiteralKind is the type a literal was classified as at parse time.
type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBool
	LiteralTime // quoted string coerced to an instant for datetime fields
	LiteralList // IN (...) literal list
)

// Literal is a typed literal value. The kind is fixed at parse time; the
// engine never re-interprets literal text.
type Literal struct {
	Kind LiteralKind
	Num  float64
	Str  string
	Bool bool
	Time time.Time
	List []Literal
}

// String renders the literal in canonical query syntax.
func (l Literal) String() string {
	switch l.Kind {
	case LiteralNumber:
		return strconv.FormatFloat(l.Num, 'f', -1, 64)
	case LiteralString:
		return "'" + strings.ReplaceAll(l.Str, "'", "''") + "'"
	case LiteralBool:
		if l.Bool {
			return "true"
		}
		return "false"
	case LiteralTime:
		return "'" + l.Str + "'"
	case LiteralList:
		parts := make([]string, len(l.List))
		for i, item := range l.List {
			parts[i] = item.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return "?"
	}
}
