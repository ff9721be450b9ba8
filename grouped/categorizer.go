// Package grouped provides a partitioned flat-key store. Every key is
// assigned to a group by a [Categorizer] derived from the configured key
// prefix, so that each source document's flattened entries land in exactly
// one group and can be replaced or removed as a unit.
package grouped

import (
	"github.com/jacentio/strata/internal/keypath"
)

// Categorizer assigns a flat key to its group. The group of a key is the
// span of its first K segments; K is fixed at construction and never
// changes, so a Categorizer value is immutable and safe for concurrent use.
type Categorizer struct {
	segments int
}

// NewCategorizer builds a Categorizer for the given configured key prefix.
// With an empty prefix K is 1 (the group is the key's first segment, the
// document id). With a non-empty prefix K covers the prefix's own segments
// plus one more for the document id.
func NewCategorizer(prefix string) Categorizer {
	if prefix == "" {
		return Categorizer{segments: 1}
	}
	return Categorizer{segments: keypath.SegmentCount(prefix) + 1}
}

// Categorize returns the group of key, or ok=false when the key has fewer
// segments than the categorizer requires.
func (c Categorizer) Categorize(key string) (group string, ok bool) {
	return keypath.PrefixSegments(key, c.Segments())
}

// Segments returns K, the number of leading segments that form a group key.
func (c Categorizer) Segments() int {
	if c.segments < 1 {
		return 1
	}
	return c.segments
}
