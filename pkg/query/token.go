package query

import "strings"

// TokenType identifies a lexical token in the command language.
type TokenType int

const (
	// Special tokens
	TOKEN_EOF TokenType = iota
	TOKEN_ILLEGAL

	// Literals
	TOKEN_IDENT  // field names, bare words
	TOKEN_NUMBER // 42, 3.14
	TOKEN_STRING // 'open' or "open"

	// Operators and punctuation
	TOKEN_EQ     // =
	TOKEN_NE     // != or <>
	TOKEN_LT     // <
	TOKEN_GT     // >
	TOKEN_LE     // <=
	TOKEN_GE     // >=
	TOKEN_DOT    // .
	TOKEN_COMMA  // ,
	TOKEN_LPAREN // (
	TOKEN_RPAREN // )
	TOKEN_MINUS  // - (sign for numeric literals)

	// Command keywords
	TOKEN_HIST
	TOKEN_PLOT
	TOKEN_BAR
	TOKEN_TREND
	TOKEN_STATS
	TOKEN_IDENTIFY
	TOKEN_EXPORT

	// Clause keywords
	TOKEN_WHERE
	TOKEN_BY
	TOKEN_VS
	TOKEN_TO

	// Predicate keywords
	TOKEN_AND
	TOKEN_OR
	TOKEN_LIKE
	TOKEN_IN
	TOKEN_CONTAINS
	TOKEN_TRUE
	TOKEN_FALSE
)

// tokenNames maps token types to display names for error messages.
var tokenNames = map[TokenType]string{
	TOKEN_EOF:      "end of input",
	TOKEN_ILLEGAL:  "illegal character",
	TOKEN_IDENT:    "identifier",
	TOKEN_NUMBER:   "number",
	TOKEN_STRING:   "string",
	TOKEN_EQ:       "=",
	TOKEN_NE:       "!=",
	TOKEN_LT:       "<",
	TOKEN_GT:       ">",
	TOKEN_LE:       "<=",
	TOKEN_GE:       ">=",
	TOKEN_DOT:      ".",
	TOKEN_COMMA:    ",",
	TOKEN_LPAREN:   "(",
	TOKEN_RPAREN:   ")",
	TOKEN_MINUS:    "-",
	TOKEN_HIST:     "HIST",
	TOKEN_PLOT:     "PLOT",
	TOKEN_BAR:      "BAR",
	TOKEN_TREND:    "TREND",
	TOKEN_STATS:    "STATS",
	TOKEN_IDENTIFY: "IDENTIFY",
	TOKEN_EXPORT:   "EXPORT",
	TOKEN_WHERE:    "WHERE",
	TOKEN_BY:       "BY",
	TOKEN_VS:       "VS",
	TOKEN_TO:       "TO",
	TOKEN_AND:      "AND",
	TOKEN_OR:       "OR",
	TOKEN_LIKE:     "LIKE",
	TOKEN_IN:       "IN",
	TOKEN_CONTAINS: "CONTAINS",
	TOKEN_TRUE:     "TRUE",
	TOKEN_FALSE:    "FALSE",
}

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "unknown"
}

// keywords maps lowercase keyword spellings to token types. All keywords are
// case-insensitive.
var keywords = map[string]TokenType{
	"hist":     TOKEN_HIST,
	"plot":     TOKEN_PLOT,
	"bar":      TOKEN_BAR,
	"trend":    TOKEN_TREND,
	"stats":    TOKEN_STATS,
	"identify": TOKEN_IDENTIFY,
	"export":   TOKEN_EXPORT,
	"where":    TOKEN_WHERE,
	"by":       TOKEN_BY,
	"vs":       TOKEN_VS,
	"to":       TOKEN_TO,
	"and":      TOKEN_AND,
	"or":       TOKEN_OR,
	"like":     TOKEN_LIKE,
	"in":       TOKEN_IN,
	"contains": TOKEN_CONTAINS,
	"true":     TOKEN_TRUE,
	"false":    TOKEN_FALSE,
}

// LookupIdent returns the keyword token type for an identifier, or
// TOKEN_IDENT if it is not a keyword.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	return TOKEN_IDENT
}

// Position is a location in the command line.
type Position struct {
	Column int // 1-based column number
	Offset int // 0-based byte offset
}

// Token is a lexical token with its source position.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}
