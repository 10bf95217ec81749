package service

import (
	"errors"

	"github.com/okian/merch/internal/domain/ranking"
)

// Sentinel kinds for service errors.
var (
	ErrUnknownTouchpoint = errors.New("unknown touchpoint")
	ErrCatalogNotLoaded  = errors.New("catalog not loaded")
	ErrOverridesDisabled = errors.New("manual overrides disabled for touchpoint")
	ErrNoCatalogSource   = errors.New("no catalog source configured")
	ErrNoTouchpoints     = errors.New("no touchpoints configured")

	// Engine state errors surface unchanged.
	ErrInvalidPosition  = ranking.ErrInvalidPosition
	ErrOverrideNotFound = ranking.ErrOverrideNotFound
	ErrInvalidBoost     = ranking.ErrInvalidBoost
)
