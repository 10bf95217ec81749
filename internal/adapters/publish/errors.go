package publish

import "errors"

// Sentinel kinds for publish errors.
var (
	ErrPublish  = errors.New("publish rankings failed")
	ErrNotFound = errors.New("no published rankings")
)
