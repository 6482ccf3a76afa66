package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ExpressedAi/Sidechain/pkg/storage"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(&Config{
		Path:       t.TempDir(),
		SyncWrites: false,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBadgerStore_SaveGetRemove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSetting(ctx, "memory_ratings_p1", []byte(`[{"mu":0.5}]`)))

	value, err := store.GetSetting(ctx, "memory_ratings_p1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"mu":0.5}]`), value)

	require.NoError(t, store.RemoveSetting(ctx, "memory_ratings_p1"))
	_, err = store.GetSetting(ctx, "memory_ratings_p1")
	assert.True(t, storage.IsNotFound(err))
}

func TestBadgerStore_GetMissingKey(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetSetting(context.Background(), "absent")
	assert.True(t, storage.IsNotFound(err))
}

func TestBadgerStore_Keys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSetting(ctx, "memory_ratings_p1", []byte(`[]`)))
	require.NoError(t, store.SaveSetting(ctx, "memory_ratings_p2", []byte(`[]`)))
	require.NoError(t, store.SaveSetting(ctx, "memory_chunks_p1", []byte(`[]`)))

	keys, err := store.Keys(ctx, "memory_ratings_")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"memory_ratings_p1", "memory_ratings_p2"}, keys)
}

func TestBadgerStore_Overwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSetting(ctx, "k", []byte("one")))
	require.NoError(t, store.SaveSetting(ctx, "k", []byte("two")))

	value, err := store.GetSetting(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), value)
}
