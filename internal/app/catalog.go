package service

import (
	"context"

	"github.com/okian/merch/internal/domain/model"
	"github.com/okian/merch/pkg/logger"
	"github.com/okian/merch/pkg/metrics"
)

func (s *Service) snapshot() ([]model.Product, bool) {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()
	return s.catalog, s.catalogLoaded
}

// LoadCatalog replaces the catalog snapshot and drops every cached ranking.
// All touchpoint locks are held across the swap so no ranking computed from
// the previous snapshot is stored afterwards.
func (s *Service) LoadCatalog(ctx context.Context, products []model.Product) {
	snap := append([]model.Product(nil), products...)

	for _, id := range s.ids {
		s.touchpoints[id].mu.Lock()
	}
	s.catalogMu.Lock()
	s.catalog = snap
	s.catalogLoaded = true
	s.catalogAt = s.now()
	s.catalogMu.Unlock()
	dropped := s.cache.InvalidateAll(ctx)
	for i := len(s.ids) - 1; i >= 0; i-- {
		s.touchpoints[s.ids[i]].mu.Unlock()
	}

	metrics.UpdateCatalogProducts(len(snap))
	s.logger.Info(ctx, "catalog replaced",
		logger.Int("products", len(snap)),
		logger.Int("invalidated", dropped),
	)
}

// ReloadCatalog loads a fresh snapshot from the configured source. On
// failure the current snapshot stays in effect.
func (s *Service) ReloadCatalog(ctx context.Context) error {
	if s.source == nil {
		return ErrNoCatalogSource
	}
	products, err := s.source.Load(ctx)
	if err != nil {
		return err
	}
	s.LoadCatalog(ctx, products)
	return nil
}
