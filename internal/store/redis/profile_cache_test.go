package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillswap/internal/store/redis"
)

func newCache(t *testing.T) (*redis.ProfileCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := redis.Open(context.Background(), redis.Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return redis.NewProfileCache(client), mr
}

func TestProfileCache(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)

	_, ok, err := cache.Get(ctx, "skillswap_user")
	require.NoError(t, err)
	assert.False(t, ok, "a missing key reads as absent")

	require.NoError(t, cache.Set(ctx, "skillswap_user", `{"id":"1"}`))
	require.NoError(t, cache.Set(ctx, "skillswap_user", `{"id":"2"}`))

	v, ok, err := cache.Get(ctx, "skillswap_user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"2"}`, v)

	stored, err := mr.Get("skillswap_user")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"2"}`, stored)
	assert.Zero(t, mr.TTL("skillswap_user"), "profiles do not expire")

	require.NoError(t, cache.Delete(ctx, "skillswap_user"))
	require.NoError(t, cache.Delete(ctx, "skillswap_user"))
	_, ok, err = cache.Get(ctx, "skillswap_user")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("skillswap_user"))
}

func TestProfileCacheErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("WrongTypeIsAnError", func(t *testing.T) {
		cache, mr := newCache(t)
		_, err := mr.Lpush("skillswap_user", "x")
		require.NoError(t, err)

		_, ok, err := cache.Get(ctx, "skillswap_user")
		assert.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("ServerDown", func(t *testing.T) {
		cache, mr := newCache(t)
		mr.Close()

		_, ok, err := cache.Get(ctx, "skillswap_user")
		assert.Error(t, err, "connection failures are not reported as absent")
		assert.False(t, ok)
		assert.Error(t, cache.Set(ctx, "skillswap_user", "{}"))
	})

	t.Run("OpenFailsWithoutServer", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := redis.Open(ctx, redis.Options{Addr: addr})
		assert.Error(t, err)
	})
}
