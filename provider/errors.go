package provider

import "errors"

var (
	// ErrMandatoryMissing is returned when a non-optional load finds no
	// documents. It aborts the whole load.
	ErrMandatoryMissing = errors.New("strata: mandatory configuration missing")

	// ErrInternalState is returned when an incremental update arrives
	// before the provider holds a loaded view. This signals a contract bug
	// in the caller; the update is dropped.
	ErrInternalState = errors.New("strata: provider state does not match scope")
)
