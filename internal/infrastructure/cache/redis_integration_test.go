//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	store := NewRedisIdempotencyStore(newRedisClient(t), "test:")

	ok, err := store.Reserve(ctx, "user-a:k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, "user-a:k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	reserved, err := store.IsReserved(ctx, "user-a:k1")
	require.NoError(t, err)
	assert.True(t, reserved)

	require.NoError(t, store.Release(ctx, "user-a:k1"))
	reserved, err = store.IsReserved(ctx, "user-a:k1")
	require.NoError(t, err)
	assert.False(t, reserved)
}

func TestRedisChangeRelay_AcrossInstances(t *testing.T) {
	client := newRedisClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local := &recordingNotifier{}
	remote := &recordingNotifier{}
	publisher := NewRedisChangeRelay(client, local, WithInstanceID("node-1"))
	listener := NewRedisChangeRelay(client, remote, WithInstanceID("node-2"))

	go func() { _ = publisher.Run(ctx) }()
	go func() { _ = listener.Run(ctx) }()

	event := shared.NewBaseDomainEvent("SaleCreated", "Sale", uuid.New(), "user-a")
	assert.Eventually(t, func() bool {
		_ = publisher.Handle(ctx, &event)
		return len(remote.notified()) > 0
	}, 10*time.Second, 100*time.Millisecond)

	assert.Equal(t, "user-a", remote.notified()[0])
	assert.Empty(t, local.notified(), "an instance ignores its own changes")

	require.NoError(t, listener.Close())
	require.NoError(t, publisher.Close())
}
