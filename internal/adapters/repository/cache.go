package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/merch/pkg/logger"
	"github.com/okian/merch/pkg/metrics"
)

const defaultSweepInterval = time.Minute

// Cache is the in-memory Store. Callers that need compute and invalidate
// to be atomic with respect to their own state hold their own lock around
// both; the cache only guards its map.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry

	now           func() time.Time
	sweepInterval time.Duration
	logger        logger.Logger
}

var _ Store = (*Cache)(nil)

// NewCache creates an empty Cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		entries:       make(map[string]Entry),
		now:           time.Now,
		sweepInterval: defaultSweepInterval,
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute implements Store.
func (c *Cache) GetOrCompute(ctx context.Context, id string, ttl time.Duration, force bool, compute ComputeFunc) (Entry, bool, error) {
	if ttl <= 0 {
		return Entry{}, false, fmt.Errorf("%w: %s", ErrInvalidTTL, ttl)
	}

	if !force {
		c.mu.RLock()
		e, ok := c.entries[id]
		c.mu.RUnlock()
		if ok && !e.Expired(c.now()) {
			metrics.RecordCacheHit(id)
			return e, true, nil
		}
	}
	metrics.RecordCacheMiss(id, force)

	start := time.Now()
	rankings, err := compute(ctx)
	metrics.RecordRankingLatency(id, time.Since(start).Seconds())
	if err != nil {
		return Entry{}, false, fmt.Errorf("%w: %s: %w", ErrCompute, id, err)
	}

	now := c.now()
	e := Entry{
		TouchpointID: id,
		Rankings:     rankings,
		ComputedAt:   now,
		ExpiresAt:    now.Add(ttl),
		Generation:   uuid.NewString(),
	}

	c.mu.Lock()
	c.entries[id] = e
	n := len(c.entries)
	c.mu.Unlock()

	metrics.UpdateCacheEntries(n)
	return e, false, nil
}

// Peek implements Store.
func (c *Cache) Peek(_ context.Context, id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

// Invalidate implements Store.
func (c *Cache) Invalidate(_ context.Context, id string) bool {
	c.mu.Lock()
	_, ok := c.entries[id]
	delete(c.entries, id)
	n := len(c.entries)
	c.mu.Unlock()

	if ok {
		metrics.RecordCacheInvalidation(id)
	}
	metrics.UpdateCacheEntries(n)
	return ok
}

// InvalidateAll implements Store.
func (c *Cache) InvalidateAll(_ context.Context) int {
	c.mu.Lock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	for _, id := range ids {
		metrics.RecordCacheInvalidation(id)
	}
	metrics.UpdateCacheEntries(0)
	return len(ids)
}

// Len implements Store.
func (c *Cache) Len(_ context.Context) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep evicts expired entries and returns how many were removed.
func (c *Cache) Sweep(_ context.Context) int {
	now := c.now()
	c.mu.Lock()
	removed := 0
	for id, e := range c.entries {
		if e.Expired(now) {
			delete(c.entries, id)
			removed++
		}
	}
	n := len(c.entries)
	c.mu.Unlock()

	metrics.UpdateCacheEntries(n)
	return removed
}

// Run sweeps expired entries periodically until ctx is cancelled.
func (c *Cache) Run(ctx context.Context) {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(ctx); n > 0 {
				c.logger.Debug(ctx, "evicted expired rankings", logger.Int("count", n))
			}
		}
	}
}
