package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/prstat/pkg/query"
)

func TestNextToken(t *testing.T) {
	input := `STATS comments BY state WHERE age_days >= 30.5 AND title LIKE '%fix%' OR number IN (1, 2) != <> < > <= - labels_assigned.label`

	expected := []struct {
		tokenType query.TokenType
		literal   string
	}{
		{query.TOKEN_STATS, "STATS"},
		{query.TOKEN_IDENT, "comments"},
		{query.TOKEN_BY, "BY"},
		{query.TOKEN_IDENT, "state"},
		{query.TOKEN_WHERE, "WHERE"},
		{query.TOKEN_IDENT, "age_days"},
		{query.TOKEN_GE, ">="},
		{query.TOKEN_NUMBER, "30.5"},
		{query.TOKEN_AND, "AND"},
		{query.TOKEN_IDENT, "title"},
		{query.TOKEN_LIKE, "LIKE"},
		{query.TOKEN_STRING, "%fix%"},
		{query.TOKEN_OR, "OR"},
		{query.TOKEN_IDENT, "number"},
		{query.TOKEN_IN, "IN"},
		{query.TOKEN_LPAREN, "("},
		{query.TOKEN_NUMBER, "1"},
		{query.TOKEN_COMMA, ","},
		{query.TOKEN_NUMBER, "2"},
		{query.TOKEN_RPAREN, ")"},
		{query.TOKEN_NE, "!="},
		{query.TOKEN_NE, "<>"},
		{query.TOKEN_LT, "<"},
		{query.TOKEN_GT, ">"},
		{query.TOKEN_LE, "<="},
		{query.TOKEN_MINUS, "-"},
		{query.TOKEN_IDENT, "labels_assigned"},
		{query.TOKEN_DOT, "."},
		{query.TOKEN_IDENT, "label"},
		{query.TOKEN_EOF, ""},
	}

	l := query.NewLexer(input)
	for i, want := range expected {
		tok := l.NextToken()
		assert.Equal(t, want.tokenType, tok.Type, "token %d type", i)
		assert.Equal(t, want.literal, tok.Literal, "token %d literal", i)
	}
}

func TestKeywordsAreCaseInsensitive(t *testing.T) {
	for _, input := range []string{"identify", "Identify", "IDENTIFY", "iDeNtIfY"} {
		l := query.NewLexer(input)
		tok := l.NextToken()
		assert.Equal(t, query.TOKEN_IDENTIFY, tok.Type, "input %q", input)
	}
}

func TestStringLiterals(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single quoted", `'open'`, "open"},
		{"double quoted", `"open"`, "open"},
		{"doubled quote escape", `'it''s'`, "it's"},
		{"doubled double quote", `"say ""hi"""`, `say "hi"`},
		{"empty", `''`, ""},
		{"embedded other quote", `'he said "no"'`, `he said "no"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := query.NewLexer(tt.input)
			tok := l.NextToken()
			require.Equal(t, query.TOKEN_STRING, tok.Type)
			assert.Equal(t, tt.want, tok.Literal)
		})
	}
}

func TestIllegalCharacter(t *testing.T) {
	l := query.NewLexer("state @ 'open'")
	tok := l.NextToken()
	require.Equal(t, query.TOKEN_IDENT, tok.Type)

	tok = l.NextToken()
	assert.Equal(t, query.TOKEN_ILLEGAL, tok.Type)
	assert.Equal(t, "@", tok.Literal)
}

func TestTokenPositions(t *testing.T) {
	l := query.NewLexer("HIST comments")

	tok := l.NextToken()
	assert.Equal(t, 1, tok.Pos.Column)
	assert.Equal(t, 0, tok.Pos.Offset)

	tok = l.NextToken()
	assert.Equal(t, 6, tok.Pos.Column)
	assert.Equal(t, 5, tok.Pos.Offset)
}
