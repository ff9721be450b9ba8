package grouped

import "errors"

// ErrCannotCategorize is returned when a key has too few segments to be
// assigned to a group.
var ErrCannotCategorize = errors.New("strata: key cannot be categorized")
