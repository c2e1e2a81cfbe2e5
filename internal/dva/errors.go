package dva

import "errors"

// Failure kinds. Callers match them with errors.Is; the wrapped message
// carries the detail.
var (
	// ErrMissingInput means no table was supplied.
	ErrMissingInput = errors.New("missing input")
	// ErrInvalidParameter means vehicle mass or friction coefficient is not > 0.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrMalformedTable means required columns are absent or non-numeric.
	ErrMalformedTable = errors.New("malformed table")
	// ErrEmptyResult means no sample survived the start-gate or the cutoff.
	ErrEmptyResult = errors.New("empty result")
)
