// Package provider exposes DynamoDB documents as a flat configuration view.
//
// Strata flattens nested documents into colon-delimited keys and keeps the
// result incrementally up to date from a DynamoDB stream.
//
// # Scopes
//
// A provider loads one of four document scopes:
//
//   - [ScopeDocument] - one document by id; the view is its flat mapping
//   - [ScopeCollection] - all documents in a named collection
//   - [ScopePrefix] - all documents whose id starts with a given string
//   - [ScopeAll] - every document in the table
//
// Multi-document scopes partition the view into one group per document
// (key prefix + document id), so a change to one document replaces only
// that document's keys.
//
// # Usage
//
//	source := dynamo.New(client, dynamo.DefaultConfig())
//	p, err := provider.New(provider.Config{
//	    Source:     source,
//	    Scope:      provider.ScopeCollection,
//	    Collection: "services",
//	    KeyPrefix:  "cfg",
//	})
//	if err != nil {
//	    return err
//	}
//	if err := p.Load(ctx); err != nil {
//	    return err
//	}
//	host, ok := p.Get("cfg:billing:db:host")
//
// # Live updates
//
// Feed the provider from a stream poller:
//
//	poller := watch.NewPoller(streamsClient, streamARN, watch.PollConfig{})
//	events, err := poller.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	go p.Watch(ctx, events)
//
// or, on Lambda, apply converted events directly:
//
//	for _, ev := range watch.FromLambdaEvent(lambdaEvent) {
//	    p.Apply(ctx, ev)
//	}
//
// The event stream is expected to carry only changes relevant to the
// provider's scope; ScopePrefix additionally filters by id on its own.
//
// # Errors
//
//   - [ErrMandatoryMissing] - a non-optional load found no documents
//   - [ErrInternalState] - an update arrived before any load completed
//   - flat.ErrInvalidRoot, flat.ErrUnsupportedLeafKind, flat.ErrDuplicateKey -
//     a document could not be flattened (skipped during multi-document loads)
//   - grouped.ErrCannotCategorize - a document id produced an ungroupable key
package provider
