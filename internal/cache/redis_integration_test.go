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
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisClient_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := redis.Run(ctx,
		"redis:7.4-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	c, err := New(Options{Backend: BackendRedis, RedisURL: uri, Prefix: "test:"})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "answer:1", []byte("fever"), time.Minute))
	got, err := c.Get(ctx, "answer:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("fever"), got)

	for i := 2; i <= 4; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("answer:%d", i), []byte("x"), time.Minute))
	}
	require.NoError(t, c.Set(ctx, "other", []byte("keep"), time.Minute))

	require.NoError(t, c.DeleteByPrefix(ctx, "answer:"))
	_, err = c.Get(ctx, "answer:3")
	assert.ErrorIs(t, err, ErrCacheMiss)

	kept, err := c.Get(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, []byte("keep"), kept)

	require.NoError(t, c.Delete(ctx, "other"))
	_, err = c.Get(ctx, "other")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
