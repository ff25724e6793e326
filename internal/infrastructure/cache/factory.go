package cache

import (
	"fmt"

	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IdempotencyStoreFactory picks the idempotency store for the deployment
type IdempotencyStoreFactory struct {
	client                *redis.Client
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// IdempotencyStoreFactoryOption configures the factory
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the factory logger
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether a missing Redis client falls back to
// the in-memory store. Enabled by default.
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewIdempotencyStoreFactory creates a factory; client may be nil when Redis is disabled
func NewIdempotencyStoreFactory(client *redis.Client, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		client:                client,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store when a client is available, otherwise the in-memory store
func (f *IdempotencyStoreFactory) CreateStore() (shared.IdempotencyStore, error) {
	if f.client != nil {
		f.logger.Info("Using Redis idempotency store")
		return NewRedisIdempotencyStore(f.client, ""), nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis is required for idempotency keys but is not configured")
	}
	f.logger.Warn("Using in-memory idempotency store; keys are not shared between instances")
	return NewInMemoryIdempotencyStore(), nil
}
