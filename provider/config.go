package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/strata/dynamo"
)

// Source is the document store a provider reads from. *dynamo.Source
// satisfies it.
type Source interface {
	// Get returns one document body by id, or dynamo.ErrNotFound.
	Get(ctx context.Context, id string) (types.AttributeValue, error)

	// ByCollection returns all documents in a named collection.
	ByCollection(ctx context.Context, collection string) ([]dynamo.Entry, error)

	// ByPrefix returns all documents whose id starts with prefix.
	ByPrefix(ctx context.Context, prefix string) ([]dynamo.Entry, error)

	// All returns every document.
	All(ctx context.Context) ([]dynamo.Entry, error)
}

// Config holds configuration for a Provider.
type Config struct {
	// Source is the document store to load from. Required.
	Source Source

	// Scope selects which documents to load.
	Scope Scope

	// DocumentID is the document to load. Required for ScopeDocument.
	DocumentID string

	// Collection is the collection to load. Required for ScopeCollection.
	Collection string

	// IDPrefix is the document id prefix. Required for ScopePrefix.
	IDPrefix string

	// KeyPrefix is placed in front of every flat key the provider exposes.
	// May be empty.
	KeyPrefix string

	// Optional makes a load that finds no documents succeed with an empty
	// view instead of failing with ErrMandatoryMissing.
	Optional bool

	// Logger receives load and update diagnostics.
	// Default: slog.Default()
	Logger *slog.Logger
}

// validate checks required fields and fills in defaults.
func (c *Config) validate() error {
	if c.Source == nil {
		return errors.New("strata: provider requires a Source")
	}
	switch c.Scope {
	case ScopeDocument:
		if c.DocumentID == "" {
			return errors.New("strata: ScopeDocument requires DocumentID")
		}
	case ScopeCollection:
		if c.Collection == "" {
			return errors.New("strata: ScopeCollection requires Collection")
		}
	case ScopePrefix:
		if c.IDPrefix == "" {
			return errors.New("strata: ScopePrefix requires IDPrefix")
		}
	case ScopeAll:
	default:
		return fmt.Errorf("strata: unknown scope %d", c.Scope)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}
