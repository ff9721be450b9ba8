package flat

import "errors"

var (
	// ErrInvalidRoot is returned when a document root is not a map.
	ErrInvalidRoot = errors.New("strata: document root is not a map")

	// ErrUnsupportedLeafKind is returned when a document contains a leaf
	// value outside the scalar set (string, number, boolean, null).
	ErrUnsupportedLeafKind = errors.New("strata: unsupported leaf kind")

	// ErrDuplicateKey is returned when two paths flatten to the same key.
	// Keys are compared case-insensitively.
	ErrDuplicateKey = errors.New("strata: duplicate flat key")
)
