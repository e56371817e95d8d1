package badger

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utkarshchauhan26/CivicConnect/core"
	"github.com/utkarshchauhan26/CivicConnect/storage"
)

func testSnapshot(names ...string) *storage.Snapshot {
	vectors := make([][]float32, len(names))
	for i := range names {
		vectors[i] = []float32{1, float32(i), 0.5}
	}
	return &storage.Snapshot{Names: names, Vectors: vectors, Digest: storage.NamesDigest(names)}
}

func TestEmbeddingStore_Empty(t *testing.T) {
	store, backend, err := NewMemoryEmbeddingStore()
	require.NoError(t, err)
	defer backend.Close()

	_, err = store.LoadEmbeddings(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEmbeddingStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store, backend, err := NewMemoryEmbeddingStore()
	require.NoError(t, err)
	defer backend.Close()

	want := testSnapshot("Ayushman Bharat", "Old Age Pension", "PM Kisan")
	require.NoError(t, store.SaveEmbeddings(ctx, want))

	got, err := store.LoadEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	replacement := testSnapshot("X")
	require.NoError(t, store.SaveEmbeddings(ctx, replacement))
	got, err = store.LoadEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, replacement, got)
}

func TestEmbeddingStore_PersistsOnDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	store, err := NewEmbeddingStore(backend)
	require.NoError(t, err)
	require.NoError(t, store.SaveEmbeddings(ctx, testSnapshot("A", "B")))
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()
	store, err = NewEmbeddingStore(backend)
	require.NoError(t, err)

	got, err := store.LoadEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, got.Names)
}

func TestEmbeddingStore_Inconsistent(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		store, backend, err := NewMemoryEmbeddingStore()
		require.NoError(t, err)
		defer backend.Close()
		require.NoError(t, store.SaveEmbeddings(ctx, testSnapshot("A", "B")))

		require.NoError(t, backend.WithTx(func(tx *badger.Txn) error {
			return tx.Delete(vectorsKey)
		}, true))

		_, err = store.LoadEmbeddings(ctx)
		assert.ErrorIs(t, err, core.ErrCacheInconsistency)
	})

	t.Run("names replaced", func(t *testing.T) {
		store, backend, err := NewMemoryEmbeddingStore()
		require.NoError(t, err)
		defer backend.Close()
		require.NoError(t, store.SaveEmbeddings(ctx, testSnapshot("A", "B")))

		require.NoError(t, backend.WithTx(func(tx *badger.Txn) error {
			return tx.Set(namesKey, storage.MarshalNames([]string{"A", "C"}))
		}, true))

		_, err = store.LoadEmbeddings(ctx)
		assert.ErrorIs(t, err, core.ErrCacheInconsistency)
	})

	t.Run("corrupt vectors", func(t *testing.T) {
		store, backend, err := NewMemoryEmbeddingStore()
		require.NoError(t, err)
		defer backend.Close()
		require.NoError(t, store.SaveEmbeddings(ctx, testSnapshot("A")))

		require.NoError(t, backend.WithTx(func(tx *badger.Txn) error {
			return tx.Set(vectorsKey, []byte{0x09})
		}, true))

		_, err = store.LoadEmbeddings(ctx)
		assert.ErrorIs(t, err, core.ErrCacheInconsistency)
	})
}

func TestEmbeddingStore_RejectsInvalidSnapshot(t *testing.T) {
	store, backend, err := NewMemoryEmbeddingStore()
	require.NoError(t, err)
	defer backend.Close()

	bad := testSnapshot("A")
	bad.Digest = "wrong"
	assert.ErrorIs(t, store.SaveEmbeddings(context.Background(), bad), storage.ErrInvalidSnapshot)
}

func TestEmbeddingStore_ClosedBackend(t *testing.T) {
	store, backend, err := NewMemoryEmbeddingStore()
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	_, err = store.LoadEmbeddings(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestMakeEmbeddingCacheKey(t *testing.T) {
	assert.Equal(t, []byte("embcache:names"), namesKey)
	assert.Equal(t, []byte("embcache:vectors"), vectorsKey)
	assert.Equal(t, []byte("embcache:digest"), digestKey)
}
