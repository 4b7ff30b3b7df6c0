// Package query parses the analyst-facing command language into Query values.
//
// # Usage
//
//	q, err := query.Parse("stats comments by state where state = 'open'", schema)
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar Overview
//
// The package implements a recursive descent parser for the command grammar
// (keywords are case-insensitive):
//
//	query      → command target [BY group] [[WHERE] predicate]
//	command    → HIST | PLOT | BAR | TREND | STATS | IDENTIFY | EXPORT ... TO dest
//	target     → field [VS field]            -- VS only for PLOT
//	predicate  → and_expr (OR and_expr)*
//	and_expr   → comparison (AND comparison)*
//	comparison → field op literal
//	           | field LIKE pattern | field CONTAINS substring
//	           | field IN '(' literal (',' literal)* ')'
//	field      → identifier ('.' identifier)*
//
// AND binds tighter than OR. Parentheses appear only as the IN list
// delimiter, never as general grouping; that is a deliberate grammar
// simplification.
//
// The parser validates field references and literal kinds against the
// dataset schema but never touches data.
package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/prstat/pkg/dataset"
)

// timeLayouts are the accepted spellings for datetime literals, tried in
// order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
}

// Parser parses a command line into a Query.
type Parser struct {
	lexer  *Lexer
	token  Token // current token
	peek   Token // lookahead token
	schema *dataset.Schema
	errors []error
}

// NewParser creates a parser for the given command line, validating against
// the given schema.
func NewParser(line string, schema *dataset.Schema) *Parser {
	p := &Parser{
		lexer:  NewLexer(line),
		schema: schema,
	}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a single command line against the schema and returns the
// Query, or the first error encountered.
func Parse(line string, schema *dataset.Schema) (*Query, error) {
	p := NewParser(line, schema)
	q := p.parseQuery()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return q, nil
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds a syntax
// error.
func (p *Parser) expect(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.syntaxError(t.String())
	return false
}

// syntaxError records a syntax error at the current token.
func (p *Parser) syntaxError(expected string) {
	got := p.token.Type.String()
	if p.token.Type == TOKEN_IDENT || p.token.Type == TOKEN_STRING || p.token.Type == TOKEN_NUMBER || p.token.Type == TOKEN_ILLEGAL {
		got = strconv.Quote(p.token.Literal)
	}
	p.errors = append(p.errors, &SyntaxError{
		Pos:      p.token.Pos,
		Expected: expected,
		Got:      got,
	})
}

// addError records an arbitrary parse error.
func (p *Parser) addError(err error) {
	p.errors = append(p.errors, err)
}

// ---------- Query ----------

// parseQuery parses a complete command line.
func (p *Parser) parseQuery() *Query {
	q := &Query{}

	switch p.token.Type {
	case TOKEN_HIST:
		q.Command = CommandDistribution
		p.nextToken()
		q.Field = p.parseFieldName()

	case TOKEN_PLOT:
		q.Command = CommandScatter
		p.nextToken()
		q.Field = p.parseFieldName()
		if p.match(TOKEN_VS) {
			q.YField = p.parseFieldName()
		}

	case TOKEN_BAR:
		q.Command = CommandCategory
		p.nextToken()
		q.Field = p.parseFieldName()
		if p.match(TOKEN_BY) {
			q.GroupBy = p.parseFieldName()
		}

	case TOKEN_TREND:
		q.Command = CommandTrend
		p.nextToken()
		q.Field = p.parseFieldName()
		if p.match(TOKEN_BY) {
			q.GroupBy = p.parseFieldName()
		}

	case TOKEN_STATS:
		q.Command = CommandSummary
		p.nextToken()
		q.Field = p.parseFieldName()
		if p.match(TOKEN_BY) {
			q.GroupBy = p.parseFieldName()
		}

	case TOKEN_IDENTIFY:
		// IDENTIFY accepts its predicate with or without a leading WHERE;
		// both forms parse identically.
		q.Command = CommandLookup
		p.nextToken()
		p.match(TOKEN_WHERE)
		q.Where = p.parsePredicate()

	case TOKEN_EXPORT:
		q.Command = CommandExport
		p.nextToken()
		if !p.check(TOKEN_TO) {
			p.match(TOKEN_WHERE)
			q.Where = p.parsePredicate()
		}
		p.expect(TOKEN_TO)
		q.Dest = p.parseDest()

	default:
		p.syntaxError("a command (HIST, PLOT, BAR, TREND, STATS, IDENTIFY, EXPORT)")
		return q
	}

	// Optional filter for the field-targeting commands, with or without the
	// WHERE keyword.
	if q.Command != CommandLookup && q.Command != CommandExport {
		if p.match(TOKEN_WHERE) {
			q.Where = p.parsePredicate()
		} else if !p.check(TOKEN_EOF) {
			q.Where = p.parsePredicate()
		}
	}

	if !p.check(TOKEN_EOF) {
		p.syntaxError("end of input")
	}

	return q
}

// parseFieldName parses a plain (non-dotted) field reference and validates
// it against the schema.
func (p *Parser) parseFieldName() string {
	if !p.check(TOKEN_IDENT) {
		p.syntaxError("a field name")
		return ""
	}
	name := p.token.Literal
	pos := p.token.Pos
	p.nextToken()

	if !p.schema.Has(name) {
		p.addError(&UnknownFieldError{Pos: pos, Name: name, Suggestion: p.schema.Suggest(name)})
	}
	return name
}

// parseDest parses an export destination: a quoted string, or a bare
// filename like prs.json lexed as identifiers and dots.
func (p *Parser) parseDest() string {
	if p.check(TOKEN_STRING) {
		dest := p.token.Literal
		p.nextToken()
		return dest
	}
	if !p.check(TOKEN_IDENT) {
		p.syntaxError("an export destination")
		return ""
	}
	var b strings.Builder
	b.WriteString(p.token.Literal)
	p.nextToken()
	for p.check(TOKEN_DOT) {
		p.nextToken()
		if !p.check(TOKEN_IDENT) {
			p.syntaxError("a file extension")
			return b.String()
		}
		b.WriteByte('.')
		b.WriteString(p.token.Literal)
		p.nextToken()
	}
	return b.String()
}

// ---------- Predicates ----------

// parsePredicate parses a boolean expression. AND binds tighter than OR.
func (p *Parser) parsePredicate() Predicate {
	return p.parseOrExpr()
}

// parseOrExpr parses and_expr (OR and_expr)*.
func (p *Parser) parseOrExpr() Predicate {
	left := p.parseAndExpr()
	for p.match(TOKEN_OR) {
		right := p.parseAndExpr()
		left = &Or{Left: left, Right: right}
	}
	return left
}

// parseAndExpr parses comparison (AND comparison)*.
func (p *Parser) parseAndExpr() Predicate {
	left := p.parseComparison()
	for p.match(TOKEN_AND) {
		right := p.parseComparison()
		left = &And{Left: left, Right: right}
	}
	return left
}

// parseComparison parses a single comparison leaf.
func (p *Parser) parseComparison() Predicate {
	field, pos := p.parseFieldPath()

	var op Operator
	switch p.token.Type {
	case TOKEN_EQ:
		op = OpEq
	case TOKEN_NE:
		op = OpNe
	case TOKEN_LT:
		op = OpLt
	case TOKEN_LE:
		op = OpLe
	case TOKEN_GT:
		op = OpGt
	case TOKEN_GE:
		op = OpGe
	case TOKEN_LIKE:
		op = OpLike
	case TOKEN_CONTAINS:
		op = OpContains
	case TOKEN_IN:
		op = OpIn
	default:
		p.syntaxError("a comparison operator")
		return &Comparison{Field: field}
	}
	p.nextToken()

	var lit Literal
	if op == OpIn {
		lit = p.parseLiteralList()
	} else {
		lit = p.parseLiteral()
	}

	cmp := &Comparison{Field: field, Op: op, Value: lit}
	p.validateComparison(cmp, pos)
	return cmp
}

// parseFieldPath parses identifier ('.' identifier)* and returns the joined
// path plus the position of its first segment.
func (p *Parser) parseFieldPath() (string, Position) {
	pos := p.token.Pos
	if !p.check(TOKEN_IDENT) {
		p.syntaxError("a field name")
		return "", pos
	}
	var b strings.Builder
	b.WriteString(p.token.Literal)
	p.nextToken()
	for p.check(TOKEN_DOT) {
		p.nextToken()
		if !p.check(TOKEN_IDENT) {
			p.syntaxError("a field name after '.'")
			return b.String(), pos
		}
		b.WriteByte('.')
		b.WriteString(p.token.Literal)
		p.nextToken()
	}
	return b.String(), pos
}

// parseLiteral parses a single literal: quoted string, number, or boolean.
func (p *Parser) parseLiteral() Literal {
	switch p.token.Type {
	case TOKEN_STRING:
		lit := Literal{Kind: LiteralString, Str: p.token.Literal}
		p.nextToken()
		return lit

	case TOKEN_NUMBER:
		return p.parseNumber(false)

	case TOKEN_MINUS:
		p.nextToken()
		if !p.check(TOKEN_NUMBER) {
			p.syntaxError("a number")
			return Literal{}
		}
		return p.parseNumber(true)

	case TOKEN_TRUE:
		p.nextToken()
		return Literal{Kind: LiteralBool, Bool: true}

	case TOKEN_FALSE:
		p.nextToken()
		return Literal{Kind: LiteralBool, Bool: false}

	default:
		p.syntaxError("a literal (string, number, or boolean)")
		return Literal{}
	}
}

// parseNumber converts the current NUMBER token into a numeric literal.
func (p *Parser) parseNumber(negative bool) Literal {
	n, err := strconv.ParseFloat(p.token.Literal, 64)
	if err != nil {
		p.syntaxError("a valid number")
		p.nextToken()
		return Literal{}
	}
	if negative {
		n = -n
	}
	p.nextToken()
	return Literal{Kind: LiteralNumber, Num: n}
}

// parseLiteralList parses '(' literal (',' literal)* ')'. The parentheses
// here delimit the IN list only; they are not general grouping.
func (p *Parser) parseLiteralList() Literal {
	if !p.expect(TOKEN_LPAREN) {
		return Literal{Kind: LiteralList}
	}
	var items []Literal
	items = append(items, p.parseLiteral())
	for p.match(TOKEN_COMMA) {
		items = append(items, p.parseLiteral())
	}
	p.expect(TOKEN_RPAREN)
	return Literal{Kind: LiteralList, List: items}
}

// ---------- Static Validation ----------

// validateComparison checks the field reference and literal kind of a
// comparison leaf against the schema, coercing literals where the field
// kind calls for it (e.g. quoted strings to instants for datetime fields).
func (p *Parser) validateComparison(cmp *Comparison, pos Position) {
	if strings.Contains(cmp.Field, ".") {
		p.validateDottedComparison(cmp, pos)
		return
	}

	kind, ok := p.schema.Kind(cmp.Field)
	if !ok {
		p.addError(&UnknownFieldError{Pos: pos, Name: cmp.Field, Suggestion: p.schema.Suggest(cmp.Field)})
		return
	}

	switch kind {
	case dataset.KindNumber:
		p.requireOps(cmp, kind, OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpIn)
		p.requireLiteral(cmp, kind, LiteralNumber)

	case dataset.KindText:
		p.requireOps(cmp, kind, OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpLike, OpContains, OpIn)
		p.requireLiteral(cmp, kind, LiteralString)

	case dataset.KindBool:
		p.requireOps(cmp, kind, OpEq, OpNe)
		p.requireLiteral(cmp, kind, LiteralBool)

	case dataset.KindTime:
		p.requireOps(cmp, kind, OpEq, OpNe, OpLt, OpLe, OpGt, OpGe)
		p.coerceTimeLiteral(cmp)

	case dataset.KindTextList:
		p.requireOps(cmp, kind, OpContains)
		p.requireLiteral(cmp, kind, LiteralString)

	case dataset.KindObjectList:
		p.addError(&TypeMismatchError{Field: cmp.Field, Want: kind, Literal: cmp.Value.String()})
	}
}

// validateDottedComparison checks a dotted path: the root must be an
// object-list field. The literal keeps the kind its syntax gave it, since
// sub-field kinds are not part of the schema.
func (p *Parser) validateDottedComparison(cmp *Comparison, pos Position) {
	root := cmp.Field[:strings.Index(cmp.Field, ".")]
	kind, ok := p.schema.Kind(root)
	if !ok {
		p.addError(&UnknownFieldError{Pos: pos, Name: root, Suggestion: p.schema.Suggest(root)})
		return
	}
	if kind != dataset.KindObjectList {
		p.addError(&TypeMismatchError{Field: cmp.Field, Want: kind, Literal: cmp.Value.String()})
		return
	}
	if cmp.Op == OpIn {
		p.requireHomogeneousList(cmp, dataset.KindInvalid)
	}
}

// requireOps records a type mismatch unless the comparison's operator is one
// of the allowed set for the field kind.
func (p *Parser) requireOps(cmp *Comparison, kind dataset.Kind, allowed ...Operator) {
	for _, op := range allowed {
		if cmp.Op == op {
			return
		}
	}
	p.addError(&TypeMismatchError{Field: cmp.Field, Want: kind, Literal: fmt.Sprintf("operator %s", cmp.Op)})
}

// requireLiteral records a type mismatch unless the literal (or, for IN,
// every list element) has the wanted kind.
func (p *Parser) requireLiteral(cmp *Comparison, kind dataset.Kind, want LiteralKind) {
	if cmp.Op == OpIn {
		p.requireHomogeneousList(cmp, kind)
		return
	}
	if cmp.Value.Kind != want {
		p.addError(&TypeMismatchError{Field: cmp.Field, Want: kind, Literal: cmp.Value.String()})
	}
}

// requireHomogeneousList checks that an IN list is homogeneous and, when the
// field kind demands one literal kind, that every element matches it.
func (p *Parser) requireHomogeneousList(cmp *Comparison, kind dataset.Kind) {
	list := cmp.Value.List
	if cmp.Value.Kind != LiteralList || len(list) == 0 {
		return // the list parse already reported the error
	}
	want := list[0].Kind
	if kind == dataset.KindNumber {
		want = LiteralNumber
	} else if kind == dataset.KindText {
		want = LiteralString
	}
	for _, item := range list {
		if item.Kind != want {
			p.addError(&TypeMismatchError{Field: cmp.Field, Want: kind, Literal: cmp.Value.String()})
			return
		}
	}
}

// coerceTimeLiteral converts a quoted-string literal to an instant for a
// datetime field. Failure to parse is a type mismatch, surfaced at parse
// time rather than during evaluation.
func (p *Parser) coerceTimeLiteral(cmp *Comparison) {
	if cmp.Value.Kind != LiteralString {
		p.addError(&TypeMismatchError{Field: cmp.Field, Want: dataset.KindTime, Literal: cmp.Value.String()})
		return
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, cmp.Value.Str); err == nil {
			cmp.Value = Literal{Kind: LiteralTime, Str: cmp.Value.Str, Time: ts}
			return
		}
	}
	p.addError(&TypeMismatchError{Field: cmp.Field, Want: dataset.KindTime, Literal: cmp.Value.String()})
}
