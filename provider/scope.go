package provider

// Scope selects which documents a provider loads.
type Scope int

const (
	// ScopeDocument loads a single document by id. The result is a plain
	// flat mapping with no grouping.
	ScopeDocument Scope = iota

	// ScopeCollection loads every document in a named collection.
	ScopeCollection

	// ScopePrefix loads every document whose id starts with a given string.
	ScopePrefix

	// ScopeAll loads every document in the table.
	ScopeAll
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeDocument:
		return "document"
	case ScopeCollection:
		return "collection"
	case ScopePrefix:
		return "prefix"
	case ScopeAll:
		return "all"
	default:
		return "unknown"
	}
}
