package repository

import (
	"time"

	"github.com/okian/merch/pkg/logger"
)

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSweepInterval sets how often Run evicts expired entries.
func WithSweepInterval(interval time.Duration) Option {
	return func(c *Cache) {
		if interval > 0 {
			c.sweepInterval = interval
		}
	}
}

// WithLogger sets a custom logger for the cache.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}
