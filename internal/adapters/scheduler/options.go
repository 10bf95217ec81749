package scheduler

import (
	"time"

	"github.com/okian/merch/internal/domain/analytics"
	"github.com/okian/merch/pkg/logger"
)

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithTick overrides every touchpoint's refresh interval.
func WithTick(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithCatalogReloader reloads the catalog on its own worker. The reload
// interval is the tick when set, else the shortest refresh interval.
func WithCatalogReloader(r CatalogReloader) Option {
	return func(s *Scheduler) {
		s.reloader = r
	}
}

// WithAlertThresholds sets the inventory alert thresholds.
func WithAlertThresholds(t analytics.Thresholds) Option {
	return func(s *Scheduler) {
		s.thresholds = t
	}
}

// WithAlertLimit caps how many alerts are logged per refresh.
func WithAlertLimit(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.alertLimit = n
		}
	}
}

// WithLogger sets a custom logger for the scheduler.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}
