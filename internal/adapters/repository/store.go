// Package repository holds computed rankings per touchpoint with a TTL.
package repository

import (
	"context"
	"time"

	"github.com/okian/merch/internal/domain/model"
)

// Entry is one cached ranking.
type Entry struct {
	TouchpointID string
	Rankings     []model.RankedEntry
	ComputedAt   time.Time
	ExpiresAt    time.Time
	// Generation identifies the computation that produced Rankings.
	Generation string
}

// Expired reports whether the entry is stale at now.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// ComputeFunc produces a fresh ranking on a cache miss.
type ComputeFunc func(ctx context.Context) ([]model.RankedEntry, error)

// Store provides TTL-bound access to computed rankings.
type Store interface {
	// GetOrCompute returns the cached entry for id when it exists, has not
	// expired and force is false. Otherwise it calls compute, stores the
	// result for ttl and returns it. The boolean reports a cache hit.
	GetOrCompute(ctx context.Context, id string, ttl time.Duration, force bool, compute ComputeFunc) (Entry, bool, error)

	// Peek returns the entry for id without computing or checking expiry.
	Peek(ctx context.Context, id string) (Entry, bool)

	// Invalidate drops the entry for id. It reports whether one existed.
	Invalidate(ctx context.Context, id string) bool

	// InvalidateAll drops every entry and returns how many were removed.
	InvalidateAll(ctx context.Context) int

	// Len returns the number of stored entries, expired ones included.
	Len(ctx context.Context) int
}
