//go:build integration

package revalidate

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())
	return rdb
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	rdb := startRedis(t)
	store := NewRedisStore(rdb)

	sub := rdb.Subscribe(ctx, Channel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.MarkStale(ctx, []string{"/wishlist", "/products/p1"}, at))

	stale, err := store.StalePaths(ctx)
	require.NoError(t, err)
	assert.Len(t, stale, 2)
	assert.True(t, at.Equal(stale["/wishlist"]))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/wishlist", msg.Payload)

	require.NoError(t, store.Clear(ctx, "/wishlist"))
	stale, err = store.StalePaths(ctx)
	require.NoError(t, err)
	assert.NotContains(t, stale, "/wishlist")
	assert.Contains(t, stale, "/products/p1")
}
