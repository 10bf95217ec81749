package repository

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrInvalidTTL = errors.New("invalid cache ttl")
	ErrCompute    = errors.New("ranking computation failed")
)
