package dynamo

import "errors"

// ErrNotFound is returned when a document doesn't exist or is soft-deleted
// (has TTL <= now).
var ErrNotFound = errors.New("strata: document not found")
