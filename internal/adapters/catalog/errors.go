package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrLoad          = errors.New("catalog load failed")
	ErrUnknownSource = errors.New("unknown catalog source")
	ErrDuplicate     = errors.New("duplicate product name")
)
