package catalog

import (
	"github.com/okian/merch/pkg/logger"
)

// Option applies a configuration option to a catalog source.
type Option func(*loader)

// WithSkipMalformed drops malformed records instead of failing the load.
func WithSkipMalformed(skip bool) Option {
	return func(l *loader) {
		l.skipMalformed = skip
	}
}

// WithLogger sets a custom logger for the source.
func WithLogger(lg logger.Logger) Option {
	return func(l *loader) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// WithQuery replaces the catalog query of a PostgreSQL source. The query
// must return the nine catalog fields in RecordFields order.
func WithQuery(query string) Option {
	return func(l *loader) {
		if query != "" {
			l.query = query
		}
	}
}
