package dynamo

// Config holds configuration for a document Source.
type Config struct {
	// Table is the name of the DynamoDB table holding configuration
	// documents. Default: "strata_documents"
	Table string

	// CollectionIndex is the name of the GSI keyed on the "collection"
	// attribute, used for collection-scoped loads.
	// Default: "collection-index"
	CollectionIndex string
}

// DefaultConfig returns the default table and index names.
func DefaultConfig() Config {
	return Config{
		Table:           "strata_documents",
		CollectionIndex: "collection-index",
	}
}

// validate fills in defaults for empty fields.
func (c *Config) validate() {
	if c.Table == "" {
		c.Table = "strata_documents"
	}
	if c.CollectionIndex == "" {
		c.CollectionIndex = "collection-index"
	}
}
