package service

import (
	"time"

	"github.com/okian/merch/internal/adapters/repository"
	"github.com/okian/merch/internal/domain/analytics"
	"github.com/okian/merch/internal/domain/model"
	"github.com/okian/merch/internal/domain/scoring"
	"github.com/okian/merch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTouchpoints replaces the default touchpoint configurations.
func WithTouchpoints(cfgs map[string]model.TouchpointConfig) Option {
	return func(s *Service) {
		if cfgs != nil {
			s.configs = cfgs
		}
	}
}

// WithScorer replaces the composite scorer used by the ranking engine.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithCatalogSource sets where ReloadCatalog reads the catalog from.
func WithCatalogSource(src CatalogSource) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithPublisher hands every freshly computed ranking to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithCache replaces the ranking cache.
func WithCache(c repository.Store) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithMonitor replaces the performance monitor.
func WithMonitor(m *analytics.Monitor) Option {
	return func(s *Service) {
		if m != nil {
			s.monitor = m
		}
	}
}

// WithClock overrides the time source of the service and its default cache.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
