package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jacentio/strata/dynamo"
	"github.com/jacentio/strata/flat"
	"github.com/jacentio/strata/grouped"
	"github.com/jacentio/strata/internal/keypath"
	"github.com/jacentio/strata/watch"
)

var _ Source = (*dynamo.Source)(nil)

// Provider loads documents from a Source and exposes them as a flat
// configuration view.
//
// ScopeDocument holds one document's flattened keys directly. The other
// scopes hold a grouped store with one group per document, so an
// incremental update replaces only the changed document's group.
//
// Load, Apply and the view accessors serialize on an internal mutex; the
// network fetch of an update runs outside it.
type Provider struct {
	config Config
	cat    grouped.Categorizer

	mu     sync.Mutex
	flat   *flat.Map     // ScopeDocument only
	groups *grouped.Store // multi-document scopes only
}

// New creates a Provider. The categorizer granularity is fixed here from
// KeyPrefix and does not change for the provider's lifetime.
func New(config Config) (*Provider, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &Provider{
		config: config,
		cat:    grouped.NewCategorizer(config.KeyPrefix),
	}, nil
}

// Load fetches the scoped documents and replaces the provider's view
// wholesale. A failed load leaves the previous view in place.
func (p *Provider) Load(ctx context.Context) error {
	log := p.config.Logger.With(
		"loadID", uuid.NewString(),
		"scope", p.config.Scope.String(),
	)

	if p.config.Scope == ScopeDocument {
		return p.loadDocument(ctx, log)
	}
	return p.loadGrouped(ctx, log)
}

func (p *Provider) loadDocument(ctx context.Context, log *slog.Logger) error {
	body, err := p.config.Source.Get(ctx, p.config.DocumentID)
	if errors.Is(err, dynamo.ErrNotFound) {
		if !p.config.Optional {
			return fmt.Errorf("%w: document %q", ErrMandatoryMissing, p.config.DocumentID)
		}
		log.Info("optional document absent", "id", p.config.DocumentID)
		p.swap(flat.NewMap(), nil)
		return nil
	}
	if err != nil {
		return err
	}

	m, err := flat.FlattenRoot(body, p.config.KeyPrefix)
	if err != nil {
		return fmt.Errorf("flatten document %q: %w", p.config.DocumentID, err)
	}

	p.swap(m, nil)
	log.Info("document loaded", "id", p.config.DocumentID, "keys", m.Len())
	return nil
}

func (p *Provider) loadGrouped(ctx context.Context, log *slog.Logger) error {
	entries, err := p.fetch(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 && !p.config.Optional {
		return fmt.Errorf("%w: no documents in %s scope", ErrMandatoryMissing, p.config.Scope)
	}

	store := grouped.NewStore(p.cat)
	loaded := 0
	for _, entry := range entries {
		groupKey, m, err := p.flattenEntry(entry.ID, entry.Body)
		if err != nil {
			// Partial-failure tolerance: a bad document is skipped, the
			// load continues.
			log.Warn("skipping document", "id", entry.ID, "error", err)
			continue
		}
		store.ReplaceGroup(groupKey, m)
		loaded++
	}

	p.swap(nil, store)
	log.Info("documents loaded",
		"fetched", len(entries),
		"loaded", loaded,
		"groups", store.GroupCount(),
	)
	return nil
}

func (p *Provider) fetch(ctx context.Context) ([]dynamo.Entry, error) {
	switch p.config.Scope {
	case ScopeCollection:
		return p.config.Source.ByCollection(ctx, p.config.Collection)
	case ScopePrefix:
		return p.config.Source.ByPrefix(ctx, p.config.IDPrefix)
	default:
		return p.config.Source.All(ctx)
	}
}

// flattenEntry computes a document's group key and flattened content. An
// empty document yields a nil map: its group must not exist at all rather
// than hold a single empty marker for the document prefix.
func (p *Provider) flattenEntry(id string, body types.AttributeValue) (string, *flat.Map, error) {
	docPrefix := keypath.Combine(p.config.KeyPrefix, id)
	groupKey, ok := p.cat.Categorize(docPrefix)
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", grouped.ErrCannotCategorize, docPrefix)
	}
	if m, ok := body.(*types.AttributeValueMemberM); ok && len(m.Value) == 0 {
		return groupKey, nil, nil
	}
	m, err := flat.FlattenRoot(body, docPrefix)
	if err != nil {
		return "", nil, fmt.Errorf("flatten document %q: %w", id, err)
	}
	return groupKey, m, nil
}

func (p *Provider) swap(m *flat.Map, store *grouped.Store) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flat = m
	p.groups = store
}

// Get returns the value stored under key. A key that is present but empty
// reads as the empty string with found=true.
func (p *Provider) Get(key string) (value string, found bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var stored *string
	switch {
	case p.flat != nil:
		stored, found = p.flat.Get(key)
	case p.groups != nil:
		stored, found = p.groups.Lookup(key)
	}
	if !found {
		return "", false
	}
	if stored == nil {
		return "", true
	}
	return *stored, true
}

// Keys returns all keys starting with prefix (case-insensitive), sorted.
// An empty prefix enumerates the whole view.
func (p *Provider) Keys(prefix string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var keys []string
	visit := func(key string, _ *string) bool {
		if keypath.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return true
	}
	switch {
	case p.flat != nil:
		p.flat.Each(visit)
	case p.groups != nil:
		p.groups.Each(visit)
	}
	sort.Strings(keys)
	return keys
}

// Apply processes one document change event: re-fetch, re-flatten, and
// replace the affected part of the view. Events of kind watch.Other, and
// events for documents outside the provider's scope, are ignored.
//
// Apply must not run concurrently with itself or Load; the [Provider.Watch]
// loop guarantees this for stream-fed updates.
func (p *Provider) Apply(ctx context.Context, ev watch.Event) error {
	if ev.Kind == watch.Other {
		return nil
	}
	if p.config.Scope == ScopeDocument {
		return p.applyDocument(ctx, ev)
	}
	return p.applyGrouped(ctx, ev)
}

func (p *Provider) applyDocument(ctx context.Context, ev watch.Event) error {
	if ev.ID != p.config.DocumentID {
		return nil
	}

	m := flat.NewMap()
	if ev.Kind == watch.Put {
		body, err := p.config.Source.Get(ctx, ev.ID)
		switch {
		case errors.Is(err, dynamo.ErrNotFound):
			// Deleted between the event and the re-fetch; fall through to
			// the empty view.
		case err != nil:
			return err
		default:
			if m, err = flat.FlattenRoot(body, p.config.KeyPrefix); err != nil {
				return fmt.Errorf("flatten document %q: %w", ev.ID, err)
			}
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.flat == nil {
		return fmt.Errorf("%w: no document view loaded", ErrInternalState)
	}
	p.flat = m
	return nil
}

func (p *Provider) applyGrouped(ctx context.Context, ev watch.Event) error {
	// Document ids are matched byte-for-byte, same as the begins_with
	// condition used by the prefix-scope fetch.
	if p.config.Scope == ScopePrefix && !strings.HasPrefix(ev.ID, p.config.IDPrefix) {
		return nil
	}

	docPrefix := keypath.Combine(p.config.KeyPrefix, ev.ID)
	groupKey, ok := p.cat.Categorize(docPrefix)
	if !ok {
		return fmt.Errorf("%w: %q", grouped.ErrCannotCategorize, docPrefix)
	}

	var m *flat.Map
	if ev.Kind == watch.Put {
		body, err := p.config.Source.Get(ctx, ev.ID)
		switch {
		case errors.Is(err, dynamo.ErrNotFound):
			// Treat as deletion.
		case err != nil:
			return err
		default:
			if _, m, err = p.flattenEntry(ev.ID, body); err != nil {
				return err
			}
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.groups == nil {
		return fmt.Errorf("%w: no grouped view loaded", ErrInternalState)
	}
	p.groups.ReplaceGroup(groupKey, m)
	p.groups.RemoveEmptyGroups()
	return nil
}

// Watch consumes change events until ctx is cancelled or the channel
// closes. Apply failures are logged and the loop continues; a bad update
// never stops the watch.
func (p *Provider) Watch(ctx context.Context, events <-chan watch.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Kind == watch.Other {
				continue
			}
			if err := p.Apply(ctx, ev); err != nil {
				p.config.Logger.Error("update dropped",
					"id", ev.ID,
					"kind", ev.Kind.String(),
					"error", err,
				)
			}
		}
	}
}
