package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"aegis-secure/pkg/logger"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewFromClient(client, "test:", logger.NewNop()), mr
}

func TestSetExistsUsePrefix(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	require.True(t, mr.Exists("test:k"))
	val, err := mr.Get("test:k")
	require.NoError(t, err)
	require.Equal(t, "v", val)

	n, err := c.Exists(ctx, "k", "absent")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestDeleteByPattern(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for _, k := range []string{"dedup:sms:u1:a", "dedup:sms:u1:b", "dedup:sms:u2:a", "dedup:mail:u1:x"} {
		require.NoError(t, c.Set(ctx, k, "1", 0))
	}

	removed, err := c.DeleteByPattern(ctx, "dedup:sms:u1:*")
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)
	require.True(t, mr.Exists("test:dedup:sms:u2:a"))
	require.True(t, mr.Exists("test:dedup:mail:u1:x"))
	require.False(t, mr.Exists("test:dedup:sms:u1:a"))
}

func TestCheckRateLimit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, _, err := c.CheckRateLimit(ctx, "client", 3, time.Hour)
		require.NoError(t, err)
		require.True(t, allowed)
	}

	allowed, remaining, reset, err := c.CheckRateLimit(ctx, "client", 3, time.Hour)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)
	require.True(t, reset.After(time.Now()))
}

func TestLocks(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	ok, err := c.AcquireLock(ctx, "sync", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.AcquireLock(ctx, "sync", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.ReleaseLock(ctx, "sync"))
	ok, err = c.AcquireLock(ctx, "sync", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}
