// Package scheduler refreshes touchpoint rankings on a timer.
package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/okian/merch/internal/domain/analytics"
	"github.com/okian/merch/internal/domain/types"
	"github.com/okian/merch/pkg/logger"
	"github.com/okian/merch/pkg/metrics"
)

const defaultAlertLimit = 5

// ErrAlreadyStarted is returned by Start on a running scheduler.
var ErrAlreadyStarted = errors.New("scheduler already started")

// Refresher recomputes rankings and records their performance.
type Refresher interface {
	Refresh(ctx context.Context, touchpointID string) (types.Rankings, error)
	RecordPerformance(ctx context.Context, touchpointID string) (analytics.Snapshot, error)
}

// CatalogReloader replaces the catalog snapshot from its source.
type CatalogReloader interface {
	ReloadCatalog(ctx context.Context) error
}

// Scheduler runs one Worker per touchpoint plus an optional catalog worker.
type Scheduler struct {
	refresher  Refresher
	reloader   CatalogReloader
	intervals  map[string]time.Duration
	tick       time.Duration
	thresholds analytics.Thresholds
	alertLimit int
	logger     logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	workers []*Worker
}

// New creates a Scheduler refreshing each touchpoint at its interval.
func New(refresher Refresher, intervals map[string]time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		refresher:  refresher,
		intervals:  intervals,
		thresholds: analytics.DefaultThresholds(),
		alertLimit: defaultAlertLimit,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the workers. They stop when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.workers = s.buildWorkers()
	for _, w := range s.workers {
		s.wg.Add(1)
		go func(w *Worker) {
			defer s.wg.Done()
			w.Run(ctx)
		}(w)
	}
	s.logger.Info(ctx, "scheduler started", logger.Int("workers", len(s.workers)))
	return nil
}

// Stop cancels every worker and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
}

// Shutdown is Stop bounded by ctx.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	workers := s.workers
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	var errs []error
	for _, w := range workers {
		if err := w.Wait(ctx); err != nil {
			s.logger.Warn(ctx, "worker shutdown timed out", logger.String("worker", w.Name()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Workers returns the running workers.
func (s *Scheduler) Workers() []*Worker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Worker(nil), s.workers...)
}

func (s *Scheduler) buildWorkers() []*Worker {
	ids := make([]string, 0, len(s.intervals))
	for id := range s.intervals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	workers := make([]*Worker, 0, len(ids)+1)
	shortest := time.Duration(0)
	for _, id := range ids {
		interval := s.intervals[id]
		if s.tick > 0 {
			interval = s.tick
		}
		if interval <= 0 {
			s.logger.Warn(context.Background(), "touchpoint has no refresh interval; not scheduled", logger.String("touchpoint", id))
			continue
		}
		if shortest == 0 || interval < shortest {
			shortest = interval
		}
		id := id
		workers = append(workers, newWorker("refresh-"+id, interval, func(ctx context.Context) {
			s.refresh(ctx, id)
		}, s.logger))
	}
	if s.reloader != nil && shortest > 0 {
		workers = append(workers, newWorker("catalog", shortest, s.reload, s.logger))
	}
	return workers
}

func (s *Scheduler) reload(ctx context.Context) {
	if err := s.reloader.ReloadCatalog(ctx); err != nil {
		metrics.RecordErrorByComponent("scheduler", "catalog_reload")
		s.logger.Error(ctx, "catalog reload failed", logger.Error(err))
	}
}

func (s *Scheduler) refresh(ctx context.Context, id string) {
	s.logger.Info(ctx, "auto-refreshing rankings", logger.String("touchpoint", id))
	r, err := s.refresher.Refresh(ctx, id)
	if err != nil {
		metrics.RecordRefresh(id, "error")
		s.logger.Error(ctx, "refresh failed", logger.String("touchpoint", id), logger.Error(err))
		return
	}
	metrics.RecordRefresh(id, "ok")
	s.logger.Info(ctx, "rankings refreshed",
		logger.String("touchpoint", id),
		logger.Int("products", r.TotalCount),
	)

	s.checkInventory(ctx, id, r)

	if _, err := s.refresher.RecordPerformance(ctx, id); err != nil {
		s.logger.Warn(ctx, "performance snapshot failed", logger.String("touchpoint", id), logger.Error(err))
	}
}

func (s *Scheduler) checkInventory(ctx context.Context, id string, r types.Rankings) {
	alerts := analytics.InventoryAlerts(r.Products, s.thresholds)
	if len(alerts) == 0 {
		return
	}
	counts := make(map[string]int, 2)
	for _, a := range alerts {
		counts[a.Kind]++
	}
	for kind, n := range counts {
		metrics.RecordInventoryAlerts(id, kind, n)
	}

	s.logger.Warn(ctx, "inventory alerts", logger.String("touchpoint", id), logger.Int("count", len(alerts)))
	if len(alerts) > s.alertLimit {
		alerts = alerts[:s.alertLimit]
	}
	for _, a := range alerts {
		s.logger.Warn(ctx, "inventory alert",
			logger.String("touchpoint", id),
			logger.String("kind", a.Kind),
			logger.String("product", a.Product),
			logger.Int("value", a.Value),
		)
	}
}
