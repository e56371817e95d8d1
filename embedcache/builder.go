package embedcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/utkarshchauhan26/CivicConnect/ai"
	"github.com/utkarshchauhan26/CivicConnect/core"
	"github.com/utkarshchauhan26/CivicConnect/storage"
	"golang.org/x/time/rate"
)

const defaultBatchSize = 64

// Builder loads or rebuilds the scheme embedding cache.
type Builder struct {
	store     storage.EmbeddingStore
	embedder  ai.Embedder
	pool      *ants.Pool
	batchSize int
	limiter   *rate.Limiter
	progress  io.Writer
	logger    *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithPoolSize sets the number of concurrent encoder calls.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if b.pool != nil {
			b.pool.Release()
		}
		b.pool = pool
		return nil
	}
}

// WithBatchSize sets how many names are sent to the encoder per call.
func WithBatchSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			return fmt.Errorf("batch size must be greater than 0, got %d", size)
		}
		b.batchSize = size
		return nil
	}
}

// WithRateLimit caps encoder calls at perSecond requests per second across
// all workers. Zero or less means unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(b *Builder) error {
		if perSecond <= 0 {
			b.limiter = nil
			return nil
		}
		b.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		return nil
	}
}

// WithProgress reports rebuild progress to w.
func WithProgress(w io.Writer) Option {
	return func(b *Builder) error {
		if w == nil {
			w = io.Discard
		}
		b.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates a new cache builder.
func NewBuilder(store storage.EmbeddingStore, embedder ai.Embedder, opts ...Option) (*Builder, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		store:     store,
		embedder:  embedder,
		pool:      pool,
		batchSize: defaultBatchSize,
		progress:  io.Discard,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(b); optErr != nil {
			b.Release()
			return nil, optErr
		}
	}
	b.logger = b.logger.With("component", "embedcache")

	return b, nil
}

// Release stops the worker pool.
func (b *Builder) Release() {
	if b.pool != nil {
		b.pool.Release()
	}
}

// Canonical returns names deduplicated and sorted ascending.
func Canonical(names []string) []string {
	canonical := slices.Clone(names)
	slices.Sort(canonical)
	return slices.Compact(canonical)
}

// Ensure returns embeddings for the canonical form of names, reusing the
// persisted snapshot when it was built from exactly that list.
func (b *Builder) Ensure(ctx context.Context, names []string) (*Embeddings, error) {
	canonical := Canonical(names)
	if len(canonical) == 0 {
		return nil, fmt.Errorf("%w: %w", core.ErrData, ErrEmptySchemeList)
	}
	digest := storage.NamesDigest(canonical)

	snapshot, err := b.store.LoadEmbeddings(ctx)
	switch {
	case err == nil:
		if snapshot.Digest == digest && slices.Equal(snapshot.Names, canonical) {
			b.logger.Info("embedding cache hit", "schemes", len(canonical))
			return newEmbeddings(snapshot.Names, snapshot.Vectors, digest, true), nil
		}
		b.logger.Info("embedding cache built from a different scheme list, rebuilding",
			"cached", len(snapshot.Names), "current", len(canonical))
	case errors.Is(err, storage.ErrNotFound):
		b.logger.Info("embedding cache miss, building", "schemes", len(canonical))
	case errors.Is(err, core.ErrCacheInconsistency):
		b.logger.Warn("embedding cache inconsistent, rebuilding", "err", err)
	default:
		b.logger.Warn("embedding cache unreadable, rebuilding", "err", err)
	}

	return b.rebuild(ctx, canonical, digest)
}

// Rebuild encodes every name and replaces the persisted snapshot
// regardless of its current state.
func (b *Builder) Rebuild(ctx context.Context, names []string) (*Embeddings, error) {
	canonical := Canonical(names)
	if len(canonical) == 0 {
		return nil, fmt.Errorf("%w: %w", core.ErrData, ErrEmptySchemeList)
	}
	return b.rebuild(ctx, canonical, storage.NamesDigest(canonical))
}

func (b *Builder) rebuild(ctx context.Context, names []string, digest string) (*Embeddings, error) {
	vectors, err := b.encode(ctx, names)
	if err != nil {
		return nil, err
	}

	snapshot := &storage.Snapshot{Names: names, Vectors: vectors, Digest: digest}
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrEncoder, err)
	}

	if err := b.store.SaveEmbeddings(ctx, snapshot); err != nil {
		b.logger.Error("failed to persist embedding cache", "err", err)
	} else {
		b.logger.Info("embedding cache written", "schemes", len(names), "dimension", len(vectors[0]))
	}

	return newEmbeddings(names, vectors, digest, false), nil
}

// encode embeds names in batches on the worker pool. Every name is sent to
// the encoder exactly once; the first failure cancels outstanding batches.
func (b *Builder) encode(ctx context.Context, names []string) ([][]float32, error) {
	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(names))
	tracker := NewProgressTracker(b.progress, len(names), b.batchSize)
	tracker.Start()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for start := 0; start < len(names); start += b.batchSize {
		end := min(start+b.batchSize, len(names))
		batch := names[start:end]

		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			if workCtx.Err() != nil {
				return
			}
			if b.limiter != nil {
				if err := b.limiter.Wait(workCtx); err != nil {
					if workCtx.Err() == nil {
						fail(err)
					}
					return
				}
			}
			out, err := b.embedder.EmbedTexts(workCtx, batch)
			if err != nil {
				fail(err)
				return
			}
			if len(out) != len(batch) {
				fail(fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(out)))
				return
			}
			copy(vectors[start:end], out)
			tracker.Increment(len(batch))
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		b.logger.Error("encoding scheme names failed", "err", firstErr)
		return nil, fmt.Errorf("%w: %w", core.ErrEncoder, firstErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tracker.Finish()

	return vectors, nil
}

func newEmbeddings(names []string, vectors [][]float32, digest string, hit bool) *Embeddings {
	byName := make(map[string][]float32, len(names))
	for i, name := range names {
		byName[name] = vectors[i]
	}
	return &Embeddings{
		names:   slices.Clone(names),
		vectors: byName,
		digest:  digest,
		hit:     hit,
	}
}
