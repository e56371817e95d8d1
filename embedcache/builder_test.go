package embedcache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utkarshchauhan26/CivicConnect/ai/mock"
	"github.com/utkarshchauhan26/CivicConnect/core"
	"github.com/utkarshchauhan26/CivicConnect/storage"
	"github.com/utkarshchauhan26/CivicConnect/storage/badger"
	"github.com/utkarshchauhan26/CivicConnect/storage/file"
)

var schemeNames = []string{
	"PM Kisan",
	"Ayushman Bharat",
	"Old Age Pension",
	"Post Matric Scholarship",
	"PM Awas Yojana",
}

// failingStore wraps a store and fails saves.
type failingStore struct {
	storage.EmbeddingStore
	saveErr error
	saves   int
}

func (f *failingStore) SaveEmbeddings(ctx context.Context, s *storage.Snapshot) error {
	f.saves++
	return f.saveErr
}

func newFileStore(t *testing.T) (storage.EmbeddingStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := file.NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, dir
}

func newBuilder(t *testing.T, store storage.EmbeddingStore, embedder *mock.MockEmbedder, opts ...Option) *Builder {
	t.Helper()
	b, err := NewBuilder(store, embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(b.Release)
	return b
}

func TestNewBuilder_Validation(t *testing.T) {
	store, _ := newFileStore(t)

	_, err := NewBuilder(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewBuilder(store, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewBuilder(store, mock.NewMockEmbedder(), WithBatchSize(0))
	assert.Error(t, err)
}

func TestCanonical(t *testing.T) {
	got := Canonical([]string{"B", "A", "B", "C", "A"})
	assert.Equal(t, []string{"A", "B", "C"}, got)
}

func TestEnsure_MissThenHit(t *testing.T) {
	ctx := context.Background()
	store, _ := newFileStore(t)
	embedder := mock.NewMockEmbedder()
	b := newBuilder(t, store, embedder)

	first, err := b.Ensure(ctx, schemeNames)
	require.NoError(t, err)
	assert.False(t, first.CacheHit())
	assert.Equal(t, Canonical(schemeNames), first.Names())
	assert.Equal(t, mock.DefaultDimension, first.Dimension())
	for _, name := range schemeNames {
		assert.Equal(t, 1, embedder.EmbedCount(name), name)
		v, ok := first.Vector(name)
		require.True(t, ok)
		assert.Equal(t, mock.GenerateDeterministicVector(name, mock.DefaultDimension), v)
	}

	embedder.Reset()

	second, err := b.Ensure(ctx, schemeNames)
	require.NoError(t, err)
	assert.True(t, second.CacheHit())
	assert.Equal(t, 0, embedder.CallCount())
	assert.Equal(t, first.Names(), second.Names())
	first.Each(func(name string, vector []float32) {
		v, ok := second.Vector(name)
		require.True(t, ok)
		assert.Equal(t, vector, v)
	})
}

func TestEnsure_OrderAndDuplicatesDoNotMatter(t *testing.T) {
	ctx := context.Background()
	store, _ := newFileStore(t)
	embedder := mock.NewMockEmbedder()
	b := newBuilder(t, store, embedder)

	_, err := b.Ensure(ctx, schemeNames)
	require.NoError(t, err)
	embedder.Reset()

	shuffled := []string{"PM Awas Yojana", "Ayushman Bharat", "PM Kisan", "Old Age Pension", "Post Matric Scholarship", "PM Kisan"}
	got, err := b.Ensure(ctx, shuffled)
	require.NoError(t, err)
	assert.True(t, got.CacheHit())
	assert.Equal(t, 0, embedder.CallCount())
}

func TestEnsure_SchemeListChanged(t *testing.T) {
	ctx := context.Background()
	store, _ := newFileStore(t)
	embedder := mock.NewMockEmbedder()
	b := newBuilder(t, store, embedder)

	_, err := b.Ensure(ctx, schemeNames)
	require.NoError(t, err)
	embedder.Reset()

	updated := append([]string{"National Scholarship Portal"}, schemeNames...)
	got, err := b.Ensure(ctx, updated)
	require.NoError(t, err)
	assert.False(t, got.CacheHit())
	assert.Equal(t, 6, got.Len())
	assert.Equal(t, 1, embedder.EmbedCount("National Scholarship Portal"))

	// the rewritten snapshot now matches
	embedder.Reset()
	again, err := b.Ensure(ctx, updated)
	require.NoError(t, err)
	assert.True(t, again.CacheHit())
}

func TestEnsure_InconsistentCacheIsRebuilt(t *testing.T) {
	ctx := context.Background()
	store, dir := newFileStore(t)
	embedder := mock.NewMockEmbedder()
	b := newBuilder(t, store, embedder)

	_, err := b.Ensure(ctx, schemeNames)
	require.NoError(t, err)

	// Simulate a name list written by a different build.
	require.NoError(t, os.WriteFile(filepath.Join(dir, file.NamesFile), []byte(`["Only One"]`), 0644))
	embedder.Reset()

	got, err := b.Ensure(ctx, schemeNames)
	require.NoError(t, err)
	assert.False(t, got.CacheHit())
	assert.Equal(t, len(schemeNames), got.Len())

	snapshot, err := store.LoadEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, Canonical(schemeNames), snapshot.Names)
}

func TestEnsure_BadgerStore(t *testing.T) {
	ctx := context.Background()
	store, backend, err := badger.NewMemoryEmbeddingStore()
	require.NoError(t, err)
	defer backend.Close()

	embedder := mock.NewMockEmbedder()
	b := newBuilder(t, store, embedder)

	_, err = b.Ensure(ctx, schemeNames)
	require.NoError(t, err)
	embedder.Reset()

	got, err := b.Ensure(ctx, schemeNames)
	require.NoError(t, err)
	assert.True(t, got.CacheHit())
}

func TestEnsure_EncoderFailure(t *testing.T) {
	ctx := context.Background()
	store, _ := newFileStore(t)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("connection refused")
	}
	b := newBuilder(t, store, embedder)

	_, err := b.Ensure(ctx, schemeNames)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEncoder)
	assert.Contains(t, err.Error(), "connection refused")

	_, err = store.LoadEmbeddings(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound, "nothing should be persisted")
}

func TestEnsure_EncoderReturnsWrongCount(t *testing.T) {
	store, _ := newFileStore(t)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 2}}, nil
	}
	b := newBuilder(t, store, embedder, WithBatchSize(2))

	_, err := b.Ensure(context.Background(), schemeNames)
	assert.ErrorIs(t, err, core.ErrEncoder)
}

func TestEnsure_EncoderReturnsMixedDimensions(t *testing.T) {
	store, _ := newFileStore(t)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = make([]float32, 2+len(text)%3)
			out[i][0] = 1
		}
		return out, nil
	}
	b := newBuilder(t, store, embedder, WithBatchSize(1))

	_, err := b.Ensure(context.Background(), []string{"a", "bb", "ccc"})
	assert.ErrorIs(t, err, core.ErrEncoder)
}

func TestEnsure_Batching(t *testing.T) {
	store, _ := newFileStore(t)
	embedder := mock.NewMockEmbedder()
	b := newBuilder(t, store, embedder, WithBatchSize(2), WithPoolSize(3))

	got, err := b.Ensure(context.Background(), schemeNames)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Len())
	assert.Equal(t, 3, embedder.CallCount())
	for _, name := range schemeNames {
		assert.Equal(t, 1, embedder.EmbedCount(name), name)
	}
}

func TestEnsure_EmptyList(t *testing.T) {
	store, _ := newFileStore(t)
	b := newBuilder(t, store, mock.NewMockEmbedder())

	_, err := b.Ensure(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrData)
	assert.ErrorIs(t, err, ErrEmptySchemeList)
}

func TestEnsure_SaveFailureStillReturnsEmbeddings(t *testing.T) {
	inner, _ := newFileStore(t)
	store := &failingStore{EmbeddingStore: inner, saveErr: errors.New("disk full")}
	b := newBuilder(t, store, mock.NewMockEmbedder())

	got, err := b.Ensure(context.Background(), schemeNames)
	require.NoError(t, err)
	assert.Equal(t, len(schemeNames), got.Len())
	assert.Equal(t, 1, store.saves)
}

func TestEnsure_CanceledContext(t *testing.T) {
	store, _ := newFileStore(t)
	b := newBuilder(t, store, mock.NewMockEmbedder())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Ensure(ctx, schemeNames)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRebuild_IgnoresValidCache(t *testing.T) {
	ctx := context.Background()
	store, _ := newFileStore(t)
	embedder := mock.NewMockEmbedder()
	b := newBuilder(t, store, embedder)

	_, err := b.Ensure(ctx, schemeNames)
	require.NoError(t, err)
	embedder.Reset()

	got, err := b.Rebuild(ctx, schemeNames)
	require.NoError(t, err)
	assert.False(t, got.CacheHit())
	assert.Equal(t, 1, embedder.EmbedCount("PM Kisan"))
}

func TestEnsure_ReportsProgress(t *testing.T) {
	store, _ := newFileStore(t)
	var buf bytes.Buffer
	b := newBuilder(t, store, mock.NewMockEmbedder(), WithProgress(&buf), WithPoolSize(1))

	_, err := b.Ensure(context.Background(), schemeNames)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "5/5")
}

func TestEnsure_RateLimited(t *testing.T) {
	store, _ := newFileStore(t)
	embedder := mock.NewMockEmbedder()
	b := newBuilder(t, store, embedder, WithBatchSize(1), WithPoolSize(4), WithRateLimit(50))

	start := time.Now()
	got, err := b.Ensure(context.Background(), schemeNames)
	require.NoError(t, err)
	assert.Equal(t, len(schemeNames), got.Len())
	assert.Equal(t, len(schemeNames), embedder.CallCount())

	// five calls at 50/s with a burst of one take at least 80ms
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
}

func TestWithRateLimit_ZeroIsUnlimited(t *testing.T) {
	store, _ := newFileStore(t)
	b := newBuilder(t, store, mock.NewMockEmbedder(), WithRateLimit(0))
	assert.Nil(t, b.limiter)
}
