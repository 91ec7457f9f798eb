package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/verbatim/cache"
	"github.com/poiesic/verbatim/core"
)

func testEntry(key, response string) core.CacheEntry {
	created := time.Date(2025, 2, 3, 4, 5, 6, 7000, time.UTC)
	return core.CacheEntry{
		Key:          key,
		Response:     response,
		CreatedAt:    created,
		LastAccessed: created.Add(time.Minute),
		HitCount:     3,
	}
}

func TestSerialization_RoundTrip(t *testing.T) {
	e := testEntry("enflasyon nasıl etkiledi", "Yanıt 📄 ep1.txt")

	got, err := UnmarshalCacheEntry(MarshalCacheEntry(e))
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestSerialization_Truncated(t *testing.T) {
	data := MarshalCacheEntry(testEntry("question", "answer"))
	_, err := UnmarshalCacheEntry(data[:3])
	assert.Error(t, err)
}

func TestOpenBackend(t *testing.T) {
	t.Run("in memory", func(t *testing.T) {
		backend, err := OpenBackend("", true, nil)
		require.NoError(t, err)
		assert.False(t, backend.IsClosed())
		require.NoError(t, backend.Close())
		assert.True(t, backend.IsClosed())
	})

	t.Run("file system", func(t *testing.T) {
		backend, err := OpenBackend(t.TempDir()+"/cache", false, nil)
		require.NoError(t, err)
		defer backend.Close()
		assert.False(t, backend.IsClosed())
	})
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	entries := map[string]core.CacheEntry{
		"first":  testEntry("first", "one"),
		"second": testEntry("second", "two"),
	}
	require.NoError(t, store.Save(ctx, entries))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, entries, loaded)

	// A later snapshot replaces the earlier one.
	delete(entries, "first")
	entries["second"] = testEntry("second", "two, revised")
	require.NoError(t, store.Save(ctx, entries))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, entries, loaded)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, map[string]core.CacheEntry{"q": testEntry("q", "a")}))
	require.NoError(t, store.Clear(ctx))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, map[string]core.CacheEntry{"q": testEntry("q", "a")}))
	require.NoError(t, store.Close())

	store, err = Open(dir, nil)
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, loaded, "q")
	assert.Equal(t, "a", loaded["q"].Response)
}

func TestStore_WithCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(dir, nil)
	require.NoError(t, err)
	c, err := cache.New(ctx, store)
	require.NoError(t, err)
	for i := range 3 {
		require.NoError(t, c.Put(ctx, fmt.Sprintf("question %d", i), "answer"))
	}
	// Close saves even though the save interval was not reached.
	require.NoError(t, c.Close())

	store, err = Open(dir, nil)
	require.NoError(t, err)
	c, err = cache.New(ctx, store)
	require.NoError(t, err)
	defer c.Close()

	got, ok := c.Get("Question 1")
	require.True(t, ok)
	assert.Equal(t, "answer", got)
	assert.Equal(t, 3, c.Stats().Durable)
}
