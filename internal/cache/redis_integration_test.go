//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis testcontainer and returns a connected cache
func setupRedis(t *testing.T) *RedisCache {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		Cmd:          []string{"redis-server", "--requirepass", "testpass"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	c, err := NewRedisClient(ctx, RedisOptions{
		Addr:     fmt.Sprintf("%s:%s", host, port.Port()),
		Password: "testpass",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisLocker(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()

	release, ok := c.TryLock(ctx, "auction:1", 5*time.Second, 0)
	require.True(t, ok)

	// second holder gives up after the bounded wait
	start := time.Now()
	_, ok = c.TryLock(ctx, "auction:1", 5*time.Second, 100*time.Millisecond)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)

	release()
	release2, ok := c.TryLock(ctx, "auction:1", 5*time.Second, 0)
	assert.True(t, ok)
	release2()
}

func TestRedisLockExpires(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()

	_, ok := c.TryLock(ctx, "auction:2", 100*time.Millisecond, 0)
	require.True(t, ok)

	// a crashed holder never releases; the ttl frees the key
	_, ok = c.TryLock(ctx, "auction:2", time.Second, time.Second)
	assert.True(t, ok)
}

func TestRedisTempImageList(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, c.AddImageNameToTempList(ctx, "a.png"))
	require.NoError(t, c.RemoveImageNameFromTempList(ctx, "a.png"))

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	v, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)

	assert.ErrorIs(t, c.Set(ctx, "k", "v", 0), ErrInvalidTTL)
}
