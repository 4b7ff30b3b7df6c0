// Package dataset defines the in-memory tabular data model queried by prstat:
// typed field kinds, records, schemas, and the dataset itself.
//
// The dataset is produced once per session by the loader and is read-only for
// the lifetime of all queries. Values inside a Record use a fixed set of Go
// types per kind (see Kind) so the parser and engine never have to guess.
package dataset

// Kind is the declared type category of a field.
type Kind int

const (
	KindInvalid Kind = iota
	KindNumber       // float64
	KindText         // string
	KindBool         // bool
	KindTime         // time.Time
	KindTextList     // []string
	KindObjectList   // []Object, queried via dotted paths
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "boolean"
	case KindTime:
		return "datetime"
	case KindTextList:
		return "text list"
	case KindObjectList:
		return "object list"
	default:
		return "invalid"
	}
}
