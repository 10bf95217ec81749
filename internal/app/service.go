// Package service provides the merchandising service: per-touchpoint engine
// state and cached rankings behind the operations consumed by the HTTP API
// and the scheduler.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/merch/internal/adapters/repository"
	"github.com/okian/merch/internal/domain/analytics"
	"github.com/okian/merch/internal/domain/model"
	"github.com/okian/merch/internal/domain/ranking"
	"github.com/okian/merch/internal/domain/scoring"
	"github.com/okian/merch/internal/domain/types"
	"github.com/okian/merch/pkg/logger"
	"github.com/okian/merch/pkg/metrics"
)

// CatalogSource produces catalog snapshots.
type CatalogSource interface {
	Name() string
	Load(ctx context.Context) ([]model.Product, error)
}

// Publisher receives every freshly computed ranking.
type Publisher interface {
	Publish(ctx context.Context, r types.Rankings, ttl time.Duration) error
}

// touchpoint owns the mutable state of one placement surface. mu guards
// cfg, state and the touchpoint's cache entry together: every mutation
// invalidates the entry before releasing mu, and reads compute under mu.
type touchpoint struct {
	mu    sync.Mutex
	cfg   model.TouchpointConfig
	state *ranking.State
}

// Service implements the merchandising operations.
type Service struct {
	configs     map[string]model.TouchpointConfig
	touchpoints map[string]*touchpoint
	ids         []string

	engine    *ranking.Engine
	scorer    scoring.Scorer
	cache     repository.Store
	monitor   *analytics.Monitor
	source    CatalogSource
	publisher Publisher

	catalogMu     sync.RWMutex
	catalog       []model.Product
	catalogLoaded bool
	catalogAt     time.Time

	now    func() time.Time
	logger logger.Logger
}

// New constructs a Service. Touchpoint configurations are validated; the
// defaults are the homepage carousel and the collection page.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		configs: model.DefaultTouchpoints(),
		scorer:  scoring.NewWeightedScorer(),
		now:     time.Now,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.configs) == 0 {
		return nil, ErrNoTouchpoints
	}

	s.touchpoints = make(map[string]*touchpoint, len(s.configs))
	for id, cfg := range s.configs {
		if cfg.ID == "" {
			cfg.ID = id
		}
		if cfg.ID != id {
			return nil, fmt.Errorf("%w: touchpoint key %q carries id %q", model.ErrInvalidConfig, id, cfg.ID)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		s.touchpoints[id] = &touchpoint{cfg: cfg, state: ranking.NewState()}
		s.ids = append(s.ids, id)
	}
	sort.Strings(s.ids)

	s.engine = ranking.NewEngine(
		ranking.WithScorer(s.scorer),
		ranking.WithLogger(s.logger.Named("ranking")),
	)
	if s.cache == nil {
		s.cache = repository.NewCache(
			repository.WithClock(s.now),
			repository.WithLogger(s.logger.Named("cache")),
		)
	}
	if s.monitor == nil {
		s.monitor = analytics.NewMonitor(analytics.WithClock(s.now))
	}
	return s, nil
}

func (s *Service) touchpoint(id string) (*touchpoint, error) {
	tp, ok := s.touchpoints[id]
	if !ok {
		metrics.RecordErrorByComponent("service", "unknown_touchpoint")
		return nil, fmt.Errorf("%w: %s", ErrUnknownTouchpoint, id)
	}
	return tp, nil
}

// Touchpoints returns the configured touchpoint ids in lexical order.
func (s *Service) Touchpoints() []string {
	return append([]string(nil), s.ids...)
}

// Config returns the current configuration of a touchpoint.
func (s *Service) Config(_ context.Context, id string) (model.TouchpointConfig, error) {
	tp, err := s.touchpoint(id)
	if err != nil {
		return model.TouchpointConfig{}, err
	}
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.cfg, nil
}

// RefreshIntervals returns each touchpoint's refresh interval.
func (s *Service) RefreshIntervals() map[string]time.Duration {
	out := make(map[string]time.Duration, len(s.touchpoints))
	for id, tp := range s.touchpoints {
		tp.mu.Lock()
		out[id] = tp.cfg.RefreshInterval()
		tp.mu.Unlock()
	}
	return out
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) types.Stats {
	s.catalogMu.RLock()
	stats := types.Stats{
		CatalogLoaded: s.catalogLoaded,
		CatalogSize:   len(s.catalog),
		CatalogAt:     s.catalogAt,
		Touchpoints:   make(map[string]types.TouchpointStats, len(s.ids)),
	}
	s.catalogMu.RUnlock()

	for _, id := range s.ids {
		tp := s.touchpoints[id]
		tp.mu.Lock()
		ts := types.TouchpointStats{
			ManualOverrides: tp.state.OverrideCount(),
			Blacklisted:     tp.state.BlacklistCount(),
			SeasonalBoosts:  tp.state.BoostCount(),
		}
		if e, ok := s.cache.Peek(ctx, id); ok && !e.Expired(s.now()) {
			ts.Cached = true
			ts.ExpiresAt = e.ExpiresAt
		}
		tp.mu.Unlock()
		stats.Touchpoints[id] = ts
	}
	return stats
}
