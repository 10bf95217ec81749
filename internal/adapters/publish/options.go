package publish

import (
	"github.com/okian/merch/pkg/logger"
)

// Option applies a configuration option to the RedisPublisher.
type Option func(*RedisPublisher)

// WithKeyPrefix sets the prefix of every key and channel.
func WithKeyPrefix(prefix string) Option {
	return func(p *RedisPublisher) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

// WithLogger sets a custom logger for the publisher.
func WithLogger(l logger.Logger) Option {
	return func(p *RedisPublisher) {
		if l != nil {
			p.logger = l
		}
	}
}
