package postgres_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillswap/internal/store/postgres"
)

// newCache connects to TEST_DATABASE_URL, skipping when it is not set or
// the server is unreachable.
func newCache(t *testing.T) *postgres.ProfileCache {
	t.Helper()

	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("..", "..", "..", ".env"))

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("skipping postgres test: TEST_DATABASE_URL is not set")
	}
	db, err := postgres.Open(dsn)
	if err != nil {
		t.Skipf("skipping postgres test: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	require.NoError(t, postgres.Migrate(db))
	require.NoError(t, postgres.Migrate(db), "migrations are idempotent")
	return postgres.NewProfileCache(db)
}

func TestProfileCache(t *testing.T) {
	ctx := context.Background()
	cache := newCache(t)
	key := fmt.Sprintf("skillswap_user:test-%d", time.Now().UnixNano())
	t.Cleanup(func() { _ = cache.Delete(context.Background(), key) })

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "missing rows read as absent")

	require.NoError(t, cache.Set(ctx, key, `{"id":"1"}`))
	require.NoError(t, cache.Set(ctx, key, `{"id":"2"}`), "second set upserts")

	v, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"2"}`, v)

	require.NoError(t, cache.Delete(ctx, key))
	require.NoError(t, cache.Delete(ctx, key))
	_, ok, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProfileCacheClosedDB(t *testing.T) {
	_ = newCache(t)

	db, err := postgres.Open(os.Getenv("TEST_DATABASE_URL"))
	require.NoError(t, err)
	cache := postgres.NewProfileCache(db)
	require.NoError(t, db.Close())

	_, ok, err := cache.Get(context.Background(), "skillswap_user")
	assert.Error(t, err, "infrastructure failures are not reported as absent")
	assert.False(t, ok)
}
