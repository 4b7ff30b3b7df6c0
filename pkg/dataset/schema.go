package dataset

import (
	"sort"
	"strings"
)

// Schema maps field names to their declared kinds. The loader computes it
// once; the parser validates queries against it and the engine re-checks
// field references defensively.
type Schema struct {
	kinds map[string]Kind
	names []string // sorted field names, for completion and suggestions
}

// NewSchema builds a schema from a name→kind mapping.
func NewSchema(fields map[string]Kind) *Schema {
	s := &Schema{
		kinds: make(map[string]Kind, len(fields)),
		names: make([]string, 0, len(fields)),
	}
	for name, kind := range fields {
		s.kinds[name] = kind
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)
	return s
}

// Kind returns the declared kind of the named field.
func (s *Schema) Kind(name string) (Kind, bool) {
	k, ok := s.kinds[name]
	return k, ok
}

// Has reports whether the field exists.
func (s *Schema) Has(name string) bool {
	_, ok := s.kinds[name]
	return ok
}

// Names returns all field names in sorted order.
func (s *Schema) Names() []string {
	return s.names
}

// Suggest returns the known field name closest to the given (unknown) name,
// or "" when nothing is a plausible near-miss. Used to build friendly
// unknown-field errors.
func (s *Schema) Suggest(name string) string {
	lower := strings.ToLower(name)
	best := ""
	bestDist := len(name)/2 + 1 // anything further away is not a near-miss
	for _, candidate := range s.names {
		d := editDistance(lower, strings.ToLower(candidate))
		if d < bestDist {
			best = candidate
			bestDist = d
		}
	}
	return best
}

// editDistance computes Levenshtein distance between two strings.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
