package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/merch/internal/domain/analytics"
	"github.com/okian/merch/internal/domain/model"
	"github.com/okian/merch/internal/domain/types"
	"github.com/okian/merch/pkg/logger"
	"github.com/okian/merch/pkg/metrics"
)

// Rankings returns the ranked products of a touchpoint. A cached result is
// returned verbatim unless it expired or force is set.
func (s *Service) Rankings(ctx context.Context, id string, force bool) (types.Rankings, error) {
	v, err := s.view(ctx, id, force)
	if err != nil {
		return types.Rankings{}, err
	}
	return v.rankings, nil
}

// Refresh recomputes the rankings of a touchpoint regardless of the cache.
func (s *Service) Refresh(ctx context.Context, id string) (types.Rankings, error) {
	return s.Rankings(ctx, id, true)
}

// rankingView is a ranking together with the curation counts observed
// under the same touchpoint lock.
type rankingView struct {
	rankings    types.Rankings
	overrides   int
	blacklisted int
}

// view computes the rankings and publishes them when they were recomputed.
func (s *Service) view(ctx context.Context, id string, force bool) (rankingView, error) {
	v, ttl, fresh, err := s.rankings(ctx, id, force)
	if err != nil {
		return rankingView{}, err
	}
	if fresh {
		s.publish(ctx, v.rankings, ttl)
	}
	return v, nil
}

func (s *Service) rankings(ctx context.Context, id string, force bool) (rankingView, time.Duration, bool, error) {
	tp, err := s.touchpoint(id)
	if err != nil {
		return rankingView{}, 0, false, err
	}

	tp.mu.Lock()
	defer tp.mu.Unlock()

	products, ok := s.snapshot()
	if !ok {
		return rankingView{}, 0, false, fmt.Errorf("%w: %s", ErrCatalogNotLoaded, id)
	}

	cfg := tp.cfg
	ttl := cfg.RefreshInterval()
	entry, hit, err := s.cache.GetOrCompute(ctx, id, ttl, force, func(ctx context.Context) ([]model.RankedEntry, error) {
		return s.engine.GenerateRankings(ctx, products, cfg, tp.state), nil
	})
	if err != nil {
		return rankingView{}, 0, false, err
	}
	if !hit {
		metrics.RecordRankingComputed(id, len(entry.Rankings))
		s.logger.Debug(ctx, "rankings computed",
			logger.String("touchpoint", id),
			logger.Int("products", len(entry.Rankings)),
			logger.Bool("forced", force),
		)
	}

	return rankingView{
		rankings: types.Rankings{
			TouchpointID: id,
			GeneratedAt:  entry.ComputedAt,
			TotalCount:   len(entry.Rankings),
			MaxProducts:  cfg.MaxProducts,
			Weights:      cfg.Weights,
			Generation:   entry.Generation,
			Cached:       hit,
			Products:     entry.Rankings,
		},
		overrides:   tp.state.OverrideCount(),
		blacklisted: tp.state.BlacklistCount(),
	}, ttl, !hit, nil
}

func (s *Service) publish(ctx context.Context, r types.Rankings, ttl time.Duration) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, r, ttl); err != nil {
		metrics.RecordErrorByComponent("service", "publish")
		s.logger.Warn(ctx, "publishing rankings failed",
			logger.String("touchpoint", r.TouchpointID),
			logger.Error(err),
		)
	}
}

// Analytics summarizes the current rankings of a touchpoint.
func (s *Service) Analytics(ctx context.Context, id string) (types.Analytics, error) {
	v, err := s.view(ctx, id, false)
	if err != nil {
		return types.Analytics{}, err
	}

	return types.Analytics{
		TouchpointID:        id,
		Summary:             analytics.Summarize(v.rankings.Products),
		ManualOverrides:     v.overrides,
		BlacklistedProducts: v.blacklisted,
		GeneratedAt:         s.now(),
	}, nil
}

// RecordPerformance stores a performance snapshot of the touchpoint's
// current analytics.
func (s *Service) RecordPerformance(ctx context.Context, id string) (analytics.Snapshot, error) {
	a, err := s.Analytics(ctx, id)
	if err != nil {
		return analytics.Snapshot{}, err
	}
	return s.monitor.Record(id, a.Summary, a.ManualOverrides), nil
}

// Performance reports the recorded performance history of a touchpoint.
func (s *Service) Performance(_ context.Context, id string) (analytics.Report, error) {
	if _, err := s.touchpoint(id); err != nil {
		return analytics.Report{}, err
	}
	return s.monitor.Report(id)
}
