package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newMiniredisCache(t *testing.T) *RedisCache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCacheFromClient(rdb, "test")
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c := newMiniredisCache(t)

	ok, found, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, ok)

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Minute))

	v, found, err := c.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("value"), v)
}

func TestRedisCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := newMiniredisCache(t)

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Minute))
	require.NoError(t, c.Delete(ctx, "key"))

	_, found, err := c.Get(ctx, "key")
	require.NoError(t, err)
	require.False(t, found)
}

func TestTieredCacheFallsBackToL2(t *testing.T) {
	ctx := context.Background()
	l1 := AsCache(NewTTLCache(time.Minute, 0, 100))
	l2 := newMiniredisCache(t)
	tc := NewTieredCache(l1, l2)

	require.NoError(t, l2.Set(ctx, "only-in-l2", []byte("data"), time.Minute))

	v, found, err := tc.Get(ctx, "only-in-l2")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("data"), v)

	v, found, err = l1.Get(ctx, "only-in-l2")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("data"), v)
}

func TestTieredCacheWithoutL2(t *testing.T) {
	ctx := context.Background()
	l1 := AsCache(NewTTLCache(time.Minute, 0, 100))
	tc := NewTieredCache(l1, nil)

	require.NoError(t, tc.Set(ctx, "key", []byte("value"), time.Minute))

	v, found, err := tc.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("value"), v)
}
