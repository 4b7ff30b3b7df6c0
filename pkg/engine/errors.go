package engine

import "fmt"

// EmptyDatasetError reports execution against a dataset with no records.
// Callers should present it as "no data", not a hard failure.
type EmptyDatasetError struct{}

func (e *EmptyDatasetError) Error() string {
	return "dataset is empty"
}

// UnresolvableFieldError reports a field reference the dataset schema does
// not know. After a successful parse against the same schema this indicates
// a bug, but the engine re-checks rather than trusting the parser, so it can
// be reused outside the parser's validation path.
type UnresolvableFieldError struct {
	Field string
}

func (e *UnresolvableFieldError) Error() string {
	return fmt.Sprintf("unresolvable field %q", e.Field)
}
