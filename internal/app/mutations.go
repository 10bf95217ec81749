package service

import (
	"context"
	"fmt"

	"github.com/okian/merch/internal/domain/ranking"
	"github.com/okian/merch/pkg/logger"
	"github.com/okian/merch/pkg/metrics"
)

// Mutation kinds, as recorded in metrics.
const (
	mutationSetOverride   = "set_override"
	mutationClearOverride = "clear_override"
	mutationBlacklist     = "blacklist"
	mutationBoost         = "seasonal_boost"
	mutationWeights       = "weights"
)

// mutate runs fn under the touchpoint lock and, when it succeeds,
// invalidates the touchpoint's cached rankings before the lock is released.
func (s *Service) mutate(ctx context.Context, id, kind string, fn func(tp *touchpoint) error) error {
	tp, err := s.touchpoint(id)
	if err != nil {
		return err
	}

	tp.mu.Lock()
	defer tp.mu.Unlock()

	if err := fn(tp); err != nil {
		metrics.RecordErrorByComponent("service", kind)
		return err
	}
	s.cache.Invalidate(ctx, id)
	metrics.RecordMutation(id, kind)
	return nil
}

// SetOverride pins product to a 1-based position on the touchpoint.
// Re-pinning a product moves it.
func (s *Service) SetOverride(ctx context.Context, id, product string, position int) error {
	err := s.mutate(ctx, id, mutationSetOverride, func(tp *touchpoint) error {
		if !tp.cfg.AllowManualOverrides {
			return fmt.Errorf("%w: %s", ErrOverridesDisabled, id)
		}
		if position < 1 {
			return fmt.Errorf("%w: position must be at least 1, got %d", ErrInvalidPosition, position)
		}
		return tp.state.SetOverride(product, position-1)
	})
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "manual override set",
		logger.String("touchpoint", id),
		logger.String("product", product),
		logger.Int("position", position),
	)
	return nil
}

// ClearOverride removes the override of product.
func (s *Service) ClearOverride(ctx context.Context, id, product string) error {
	err := s.mutate(ctx, id, mutationClearOverride, func(tp *touchpoint) error {
		return tp.state.ClearOverride(product)
	})
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "manual override cleared",
		logger.String("touchpoint", id),
		logger.String("product", product),
	)
	return nil
}

// Blacklist excludes product from the touchpoint. Repeated calls succeed.
func (s *Service) Blacklist(ctx context.Context, id, product string) error {
	err := s.mutate(ctx, id, mutationBlacklist, func(tp *touchpoint) error {
		tp.state.Blacklist(product)
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "product blacklisted",
		logger.String("touchpoint", id),
		logger.String("product", product),
	)
	return nil
}

// SetSeasonalBoost registers a score multiplier for product. It only takes
// effect on touchpoints with seasonal boosts enabled.
func (s *Service) SetSeasonalBoost(ctx context.Context, id, product string, multiplier float64) error {
	enabled := false
	err := s.mutate(ctx, id, mutationBoost, func(tp *touchpoint) error {
		enabled = tp.cfg.SeasonalBoostEnabled
		return tp.state.SetSeasonalBoost(product, multiplier)
	})
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "seasonal boost set",
		logger.String("touchpoint", id),
		logger.String("product", product),
		logger.Float64("multiplier", multiplier),
		logger.Bool("enabled", enabled),
	)
	return nil
}

// UpdateWeights merges updates into the touchpoint's weights. The merged
// weights must sum to one within tolerance; on error nothing changes.
func (s *Service) UpdateWeights(ctx context.Context, id string, updates map[string]float64) error {
	return s.mutate(ctx, id, mutationWeights, func(tp *touchpoint) error {
		next, err := tp.cfg.Weights.Apply(updates)
		if err != nil {
			return err
		}
		tp.cfg.Weights = next
		s.logger.Info(ctx, "scoring weights updated",
			logger.String("touchpoint", id),
			logger.Any("weights", next),
		)
		return nil
	})
}

// Overrides returns the active overrides of a touchpoint in registration
// order, with 1-based positions.
func (s *Service) Overrides(_ context.Context, id string) ([]ranking.Override, error) {
	tp, err := s.touchpoint(id)
	if err != nil {
		return nil, err
	}
	tp.mu.Lock()
	out := tp.state.Overrides()
	tp.mu.Unlock()
	for i := range out {
		out[i].Position++
	}
	return out, nil
}
