package flat

import (
	"fmt"
	"sort"

	"github.com/jacentio/strata/internal/keypath"
)

// Map is a flat configuration mapping from key to value. Keys are compared
// case-insensitively; the casing of the first insertion is preserved for
// enumeration. A nil value marks a key that is present but empty (an empty
// container or an explicit null in the source document).
type Map struct {
	entries map[string]entry
}

type entry struct {
	key   string
	value *string
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{entries: make(map[string]entry)}
}

// Set inserts a key. Inserting a key that is already present (under
// case-insensitive comparison) returns ErrDuplicateKey.
func (m *Map) Set(key string, value *string) error {
	fold := keypath.Fold(key)
	if existing, ok := m.entries[fold]; ok {
		return fmt.Errorf("%w: %q collides with %q", ErrDuplicateKey, key, existing.key)
	}
	m.entries[fold] = entry{key: key, value: value}
	return nil
}

// Get returns the value stored under key, if present.
func (m *Map) Get(key string) (value *string, found bool) {
	e, ok := m.entries[keypath.Fold(key)]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key string) bool {
	fold := keypath.Fold(key)
	if _, ok := m.entries[fold]; !ok {
		return false
	}
	delete(m.entries, fold)
	return true
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.entries)
}

// Keys returns all keys in their original casing, sorted.
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		keys = append(keys, e.key)
	}
	sort.Strings(keys)
	return keys
}

// Each calls fn for every entry until fn returns false. Iteration order is
// unspecified.
func (m *Map) Each(fn func(key string, value *string) bool) {
	for _, e := range m.entries {
		if !fn(e.key, e.value) {
			return
		}
	}
}
