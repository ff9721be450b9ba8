package grouped

import (
	"fmt"
	"sort"

	"github.com/jacentio/strata/flat"
	"github.com/jacentio/strata/internal/keypath"
)

// Store is a flat-key store partitioned into groups by a Categorizer.
//
// Invariants: every stored key categorizes to the group holding it, and a
// group is removed the moment it becomes empty, so readers never observe an
// empty group. The first invariant can only drift when the categorizer is
// replaced, which is what [Store.Reconcile] repairs.
//
// Store is not internally synchronized. A single writer at a time is
// assumed; callers mixing readers and writers must serialize access.
type Store struct {
	cat    Categorizer
	groups map[string]*group // keyed by folded group key
}

type group struct {
	key     string // original casing, for enumeration
	entries *flat.Map
}

// NewStore creates an empty Store partitioned by c.
func NewStore(c Categorizer) *Store {
	return &Store{
		cat:    c,
		groups: make(map[string]*group),
	}
}

// Categorizer returns the store's current categorizer.
func (s *Store) Categorizer() Categorizer {
	return s.cat
}

// Insert adds a single key. It fails with ErrCannotCategorize when the key
// has too few segments, and with flat.ErrDuplicateKey when the key is
// already present in its group.
func (s *Store) Insert(key string, value *string) error {
	groupKey, ok := s.cat.Categorize(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrCannotCategorize, key)
	}

	fold := keypath.Fold(groupKey)
	grp, exists := s.groups[fold]
	if !exists {
		grp = &group{key: groupKey, entries: flat.NewMap()}
		s.groups[fold] = grp
	}
	return grp.entries.Set(key, value)
}

// Lookup returns the value stored under key, if present.
func (s *Store) Lookup(key string) (value *string, found bool) {
	groupKey, ok := s.cat.Categorize(key)
	if !ok {
		return nil, false
	}
	grp, exists := s.groups[keypath.Fold(groupKey)]
	if !exists {
		return nil, false
	}
	return grp.entries.Get(key)
}

// Remove deletes key and reports whether it was present. A group emptied by
// the removal is discarded immediately.
func (s *Store) Remove(key string) bool {
	groupKey, ok := s.cat.Categorize(key)
	if !ok {
		return false
	}
	fold := keypath.Fold(groupKey)
	grp, exists := s.groups[fold]
	if !exists {
		return false
	}
	removed := grp.entries.Delete(key)
	if removed && grp.entries.Len() == 0 {
		delete(s.groups, fold)
	}
	return removed
}

// ReplaceGroup swaps the entire contents of a group. An empty (or nil)
// mapping removes the group instead of leaving it present and empty.
func (s *Store) ReplaceGroup(groupKey string, m *flat.Map) {
	fold := keypath.Fold(groupKey)
	if m == nil || m.Len() == 0 {
		delete(s.groups, fold)
		return
	}
	s.groups[fold] = &group{key: groupKey, entries: m}
}

// RemoveEmptyGroups discards every group with zero entries.
func (s *Store) RemoveEmptyGroups() {
	for fold, grp := range s.groups {
		if grp.entries.Len() == 0 {
			delete(s.groups, fold)
		}
	}
}

// Reconcile re-partitions the store under a replacement categorizer. Entries
// whose recomputed group differs from their current one are moved; entries
// already in place keep priority over moved ones. A moved entry that
// collides with an existing key, or that no longer categorizes at all, is
// dropped when continueOnDuplicate is true, and otherwise fails the whole
// operation with the store left completely unchanged (rollback, not partial
// application). Reconcile finishes by pruning empty groups.
func (s *Store) Reconcile(next Categorizer, continueOnDuplicate bool) error {
	staged := make(map[string]*group)

	ensure := func(groupKey string) *group {
		fold := keypath.Fold(groupKey)
		grp, exists := staged[fold]
		if !exists {
			grp = &group{key: groupKey, entries: flat.NewMap()}
			staged[fold] = grp
		}
		return grp
	}

	// First pass: keep entries whose group is unchanged, so they win any
	// collision against moved entries.
	type moved struct {
		key      string
		value    *string
		newGroup string
	}
	var moves []moved

	var err error
	for fold, grp := range s.groups {
		grp.entries.Each(func(key string, value *string) bool {
			newGroup, ok := next.Categorize(key)
			if !ok {
				if continueOnDuplicate {
					return true // dropped
				}
				err = fmt.Errorf("%w: %q", ErrCannotCategorize, key)
				return false
			}
			if keypath.Fold(newGroup) == fold {
				if setErr := ensure(grp.key).entries.Set(key, value); setErr != nil {
					if continueOnDuplicate {
						return true
					}
					err = setErr
					return false
				}
				return true
			}
			moves = append(moves, moved{key: key, value: value, newGroup: newGroup})
			return true
		})
		if err != nil {
			return err
		}
	}

	// Second pass: reinsert moved entries into their recomputed groups.
	for _, mv := range moves {
		if setErr := ensure(mv.newGroup).entries.Set(mv.key, mv.value); setErr != nil {
			if continueOnDuplicate {
				continue
			}
			return setErr
		}
	}

	s.cat = next
	s.groups = staged
	s.RemoveEmptyGroups()
	return nil
}

// Validate checks that every entry still categorizes to the group holding
// it, returning whether any misplacement exists and the offending keys.
// With failFast it stops at the first misplaced key.
func (s *Store) Validate(failFast bool) (invalid bool, misplaced []string) {
	for fold, grp := range s.groups {
		grp.entries.Each(func(key string, value *string) bool {
			newGroup, ok := s.cat.Categorize(key)
			if !ok || keypath.Fold(newGroup) != fold {
				misplaced = append(misplaced, key)
				return !failFast
			}
			return true
		})
		if failFast && len(misplaced) > 0 {
			break
		}
	}
	sort.Strings(misplaced)
	return len(misplaced) > 0, misplaced
}

// Len returns the total number of entries across all groups.
func (s *Store) Len() int {
	n := 0
	for _, grp := range s.groups {
		n += grp.entries.Len()
	}
	return n
}

// GroupCount returns the number of groups.
func (s *Store) GroupCount() int {
	return len(s.groups)
}

// Groups returns all group keys in their original casing, sorted.
func (s *Store) Groups() []string {
	keys := make([]string, 0, len(s.groups))
	for _, grp := range s.groups {
		keys = append(keys, grp.key)
	}
	sort.Strings(keys)
	return keys
}

// Group returns the entries of one group, or found=false if it does not
// exist. The returned map is the live group content; callers must not
// mutate it.
func (s *Store) Group(groupKey string) (entries *flat.Map, found bool) {
	grp, exists := s.groups[keypath.Fold(groupKey)]
	if !exists {
		return nil, false
	}
	return grp.entries, true
}

// Each calls fn for every entry in every group until fn returns false.
// Iteration order is unspecified.
func (s *Store) Each(fn func(key string, value *string) bool) {
	for _, grp := range s.groups {
		stop := false
		grp.entries.Each(func(key string, value *string) bool {
			if !fn(key, value) {
				stop = true
				return false
			}
			return true
		})
		if stop {
			return
		}
	}
}
