package dynamo_test

import (
	"testing"

	"github.com/jacentio/strata/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := dynamo.DefaultConfig()

	if cfg.Table != "strata_documents" {
		t.Errorf("expected Table 'strata_documents', got %q", cfg.Table)
	}
	if cfg.CollectionIndex != "collection-index" {
		t.Errorf("expected CollectionIndex 'collection-index', got %q", cfg.CollectionIndex)
	}
}

func TestNew_FillsDefaults(t *testing.T) {
	s := dynamo.New(nil, dynamo.Config{})
	if s.Table() != "strata_documents" {
		t.Errorf("expected default table name, got %q", s.Table())
	}
}
