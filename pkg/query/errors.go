package query

import (
	"fmt"

	"github.com/leapstack-labs/prstat/pkg/dataset"
)

// SyntaxError reports a malformed token sequence.
type SyntaxError struct {
	Pos      Position
	Expected string
	Got      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at column %d: expected %s, got %s", e.Pos.Column, e.Expected, e.Got)
}

// UnknownFieldError reports a reference to a field the schema does not know.
// Suggestion carries the closest known field name, if any.
type UnknownFieldError struct {
	Pos        Position
	Name       string
	Suggestion string
}

func (e *UnknownFieldError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown field %q (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown field %q", e.Name)
}

// TypeMismatchError reports a literal that cannot be coerced to the kind of
// the field it is compared against.
type TypeMismatchError struct {
	Field   string
	Want    dataset.Kind
	Literal string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("field %q is %s, cannot compare with %s", e.Field, e.Want, e.Literal)
}
