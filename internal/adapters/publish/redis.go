// Package publish pushes freshly computed rankings to downstream consumers.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/merch/internal/domain/types"
	"github.com/okian/merch/pkg/logger"
	"github.com/okian/merch/pkg/metrics"
)

const defaultPrefix = "merch"

// Client connection settings.
const (
	dialTimeout  = 5 * time.Second
	readTimeout  = 3 * time.Second
	writeTimeout = 3 * time.Second
	poolSize     = 10
)

// Update is the message announced on the updates channel.
type Update struct {
	TouchpointID string    `json:"touchpoint_id"`
	Generation   string    `json:"generation"`
	GeneratedAt  time.Time `json:"generated_at"`
	TotalCount   int       `json:"total_count"`
}

// RedisPublisher stores the latest rankings of each touchpoint under
// <prefix>:rankings:<touchpoint> and announces them on
// <prefix>:rankings:updates.
type RedisPublisher struct {
	client *redis.Client
	prefix string
	logger logger.Logger
}

// NewRedisClient creates a client with the service's timeouts.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		PoolSize:     poolSize,
	})
}

// NewRedisPublisher creates a publisher over client.
func NewRedisPublisher(client *redis.Client, opts ...Option) *RedisPublisher {
	p := &RedisPublisher{
		client: client,
		prefix: defaultPrefix,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Key returns the key holding the rankings of a touchpoint.
func (p *RedisPublisher) Key(touchpointID string) string {
	return p.prefix + ":rankings:" + touchpointID
}

// Channel returns the channel announcing updates.
func (p *RedisPublisher) Channel() string {
	return p.prefix + ":rankings:updates"
}

// Ping verifies the connection.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrPublish, err)
	}
	return nil
}

// Publish stores r for ttl and announces it.
func (p *RedisPublisher) Publish(ctx context.Context, r types.Rankings, ttl time.Duration) error {
	payload, err := json.Marshal(r)
	if err != nil {
		metrics.RecordPublish(r.TouchpointID, "error")
		return fmt.Errorf("%w: encode %s: %w", ErrPublish, r.TouchpointID, err)
	}
	update, err := json.Marshal(Update{
		TouchpointID: r.TouchpointID,
		Generation:   r.Generation,
		GeneratedAt:  r.GeneratedAt,
		TotalCount:   r.TotalCount,
	})
	if err != nil {
		metrics.RecordPublish(r.TouchpointID, "error")
		return fmt.Errorf("%w: encode update %s: %w", ErrPublish, r.TouchpointID, err)
	}

	_, err = p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.Key(r.TouchpointID), payload, ttl)
		pipe.Publish(ctx, p.Channel(), update)
		return nil
	})
	if err != nil {
		metrics.RecordPublish(r.TouchpointID, "error")
		return fmt.Errorf("%w: %s: %w", ErrPublish, r.TouchpointID, err)
	}

	metrics.RecordPublish(r.TouchpointID, "ok")
	p.logger.Debug(ctx, "rankings published",
		logger.String("touchpoint", r.TouchpointID),
		logger.String("generation", r.Generation),
		logger.Duration("ttl", ttl),
	)
	return nil
}

// Latest returns the rankings last published for a touchpoint.
func (p *RedisPublisher) Latest(ctx context.Context, touchpointID string) (types.Rankings, error) {
	raw, err := p.client.Get(ctx, p.Key(touchpointID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.Rankings{}, fmt.Errorf("%w: %s", ErrNotFound, touchpointID)
	}
	if err != nil {
		return types.Rankings{}, fmt.Errorf("%w: read %s: %w", ErrPublish, touchpointID, err)
	}
	var r types.Rankings
	if err := json.Unmarshal(raw, &r); err != nil {
		return types.Rankings{}, fmt.Errorf("%w: decode %s: %w", ErrPublish, touchpointID, err)
	}
	return r, nil
}

// Close closes the underlying client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
