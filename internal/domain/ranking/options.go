package ranking

import (
	"github.com/okian/merch/internal/domain/scoring"
	"github.com/okian/merch/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithScorer replaces the composite scorer.
func WithScorer(s scoring.Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
