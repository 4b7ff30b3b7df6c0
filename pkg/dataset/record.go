package dataset

// Object is one element of an object-list field, e.g. a single assigned
// label {label: "bug", confidence: 0.92}. Sub-values are float64, string,
// or bool.
type Object map[string]any

// Record is one row of the dataset: a mapping from field name to typed
// value. A field may be absent (key missing or nil value); comparisons
// against absent values are defined by the engine, not here.
type Record map[string]any

// Value returns the value of the named field and whether it is present.
// A nil value counts as absent.
func (r Record) Value(field string) (any, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Objects returns the object-list value of the named field, or nil if the
// field is absent or holds a different type.
func (r Record) Objects(field string) []Object {
	v, ok := r.Value(field)
	if !ok {
		return nil
	}
	objs, _ := v.([]Object)
	return objs
}

// Dataset is an ordered sequence of records plus the schema they conform to.
// It is immutable from the query core's point of view.
type Dataset struct {
	Records []Record
	Schema  *Schema
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}
