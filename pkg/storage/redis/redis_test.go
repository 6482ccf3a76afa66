package redis

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ExpressedAi/Sidechain/pkg/storage"
)

// newTestStore connects to a real Redis instance. The tests are skipped
// unless SIDECHAIN_TEST_REDIS_ADDR is set.
func newTestStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("SIDECHAIN_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SIDECHAIN_TEST_REDIS_ADDR not set; skipping Redis integration tests")
	}

	store, err := NewRedisStore(context.Background(), &Config{
		Address:   addr,
		KeyPrefix: "sidechain:test:" + t.Name() + ":",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisStore_SaveGetRemove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSetting(ctx, "memory_ratings_p1", []byte(`[]`)))

	value, err := store.GetSetting(ctx, "memory_ratings_p1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), value)

	require.NoError(t, store.RemoveSetting(ctx, "memory_ratings_p1"))
	_, err = store.GetSetting(ctx, "memory_ratings_p1")
	assert.True(t, storage.IsNotFound(err))
}

func TestRedisStore_Keys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSetting(ctx, "memory_ratings_p1", []byte(`[]`)))
	require.NoError(t, store.SaveSetting(ctx, "memory_interactions_p1", []byte(`[]`)))

	keys, err := store.Keys(ctx, "memory_ratings_")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"memory_ratings_p1"}, keys)
}
