package cache

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIdempotencyStoreFactory(t *testing.T) {
	t.Run("in-memory without a client", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(nil, WithLogger(zap.NewNop())).CreateStore()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
		assert.NoError(t, store.Close())
	})

	t.Run("fallback disabled", func(t *testing.T) {
		_, err := NewIdempotencyStoreFactory(nil, WithInMemoryFallback(false)).CreateStore()
		assert.Error(t, err)
	})

	t.Run("redis with a client", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
		t.Cleanup(func() { _ = client.Close() })

		store, err := NewIdempotencyStoreFactory(client).CreateStore()
		require.NoError(t, err)
		assert.IsType(t, &RedisIdempotencyStore{}, store)
	})
}
