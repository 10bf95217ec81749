package model

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrMalformedRecord = errors.New("malformed product record")
	ErrInvalidWeights  = errors.New("invalid scoring weights")
	ErrInvalidConfig   = errors.New("invalid touchpoint config")
)
