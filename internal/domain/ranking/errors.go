package ranking

import "errors"

// Sentinel kinds for ranking state errors.
var (
	ErrOverrideNotFound = errors.New("override not found")
	ErrInvalidPosition  = errors.New("invalid override position")
	ErrInvalidBoost     = errors.New("invalid seasonal boost")
)
