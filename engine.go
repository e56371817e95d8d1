// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package civicconnect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/utkarshchauhan26/CivicConnect/ai"
	"github.com/utkarshchauhan26/CivicConnect/ai/openai"
	"github.com/utkarshchauhan26/CivicConnect/core"
	"github.com/utkarshchauhan26/CivicConnect/dataset"
	"github.com/utkarshchauhan26/CivicConnect/eligibility"
	"github.com/utkarshchauhan26/CivicConnect/embedcache"
	"github.com/utkarshchauhan26/CivicConnect/metadata"
	"github.com/utkarshchauhan26/CivicConnect/recommend"
	"github.com/utkarshchauhan26/CivicConnect/storage"
	"github.com/utkarshchauhan26/CivicConnect/storage/badger"
	"github.com/utkarshchauhan26/CivicConnect/storage/file"
)

// Embedding cache backends.
const (
	CacheBackendFile   = "file"
	CacheBackendBadger = "badger"
)

// Default artifact locations, relative to the dataset directory.
const (
	DefaultMetadataFile = "scheme_metadata.json"
	DefaultCacheDir     = "embedding_cache"
)

// ErrUnknownCacheBackend is returned for a cache backend other than file or badger.
var ErrUnknownCacheBackend = errors.New("unknown cache backend")

// Engine owns everything a recommendation needs: the dataset, its
// metadata catalog, the scheme embeddings and the recommender.
type Engine struct {
	dataset  *dataset.Dataset
	catalog  metadata.Catalog
	backend  *badger.Backend
	store    storage.EmbeddingStore
	provider ai.AIProvider
	builder  *embedcache.Builder
	filter   *eligibility.Filter
	options  *engineOptions

	// guards embeddings and recommender, which RebuildCache replaces
	mu          sync.RWMutex
	embeddings  *embedcache.Embeddings
	recommender *recommend.Recommender

	logger *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig     *ai.Config
	provider     ai.AIProvider
	metadataPath string
	cacheDir     string
	cacheBackend string
	filterConfig *eligibility.Config
	logger       *slog.Logger
	progress     io.Writer
	poolSize     int
	embedWorkers int
	batchSize    int
	embedRate    float64
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(cfg *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider uses provider instead of an OpenAI-compatible one built from
// the AI configuration. The engine closes it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithMetadataPath sets the metadata artifact path.
func WithMetadataPath(path string) EngineOption {
	return func(o *engineOptions) {
		o.metadataPath = path
	}
}

// WithCacheDir sets the embedding cache directory.
func WithCacheDir(dir string) EngineOption {
	return func(o *engineOptions) {
		o.cacheDir = dir
	}
}

// WithCacheBackend selects CacheBackendFile (default) or CacheBackendBadger.
func WithCacheBackend(backend string) EngineOption {
	return func(o *engineOptions) {
		o.cacheBackend = backend
	}
}

// WithFilterConfig sets the eligibility thresholds.
func WithFilterConfig(cfg *eligibility.Config) EngineOption {
	return func(o *engineOptions) {
		o.filterConfig = cfg
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithProgress reports embedding cache rebuild progress to w.
func WithProgress(w io.Writer) EngineOption {
	return func(o *engineOptions) {
		o.progress = w
	}
}

// WithPoolSize sets the candidate pool size handed to the filter.
func WithPoolSize(size int) EngineOption {
	return func(o *engineOptions) {
		o.poolSize = size
	}
}

// WithEmbedWorkers sets the number of concurrent encoder calls during a
// cache rebuild.
func WithEmbedWorkers(workers int) EngineOption {
	return func(o *engineOptions) {
		o.embedWorkers = workers
	}
}

// WithEmbedRateLimit caps encoder calls per second during a cache rebuild.
func WithEmbedRateLimit(perSecond float64) EngineOption {
	return func(o *engineOptions) {
		o.embedRate = perSecond
	}
}

// WithBatchSize sets how many scheme names go to the encoder per call.
func WithBatchSize(size int) EngineOption {
	return func(o *engineOptions) {
		o.batchSize = size
	}
}

// NewEngine loads the dataset at datasetPath, loads or rebuilds the
// metadata artifact and the embedding cache, and wires the recommender.
func NewEngine(ctx context.Context, datasetPath string, opts ...EngineOption) (_ *Engine, err error) {
	options := &engineOptions{
		aiConfig:     ai.DefaultConfig(),
		cacheBackend: CacheBackendFile,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	dir := filepath.Dir(datasetPath)
	if options.metadataPath == "" {
		options.metadataPath = filepath.Join(dir, DefaultMetadataFile)
	}
	if options.cacheDir == "" {
		options.cacheDir = filepath.Join(dir, DefaultCacheDir)
	}

	e := &Engine{
		options:  options,
		provider: options.provider,
		logger:   options.logger.With("component", "engine"),
	}
	defer func() {
		if err != nil {
			e.Close()
		}
	}()

	ds, err := dataset.Load(datasetPath)
	if err != nil {
		return nil, err
	}
	e.dataset = ds
	e.logger.Info("dataset loaded", "path", datasetPath, "records", len(ds.Records))

	catalog, _, err := metadata.LoadOrBuild(options.metadataPath, ds, options.logger)
	if err != nil {
		return nil, err
	}
	e.catalog = catalog

	filter, err := eligibility.NewFilter(options.filterConfig, catalog, eligibility.WithLogger(options.logger))
	if err != nil {
		return nil, err
	}
	e.filter = filter

	if err := e.openStore(options); err != nil {
		return nil, err
	}

	if e.provider == nil {
		provider, err := openai.NewProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
		e.provider = provider
	}

	builderOpts := []embedcache.Option{embedcache.WithLogger(options.logger)}
	if options.progress != nil {
		builderOpts = append(builderOpts, embedcache.WithProgress(options.progress))
	}
	if options.embedWorkers > 0 {
		builderOpts = append(builderOpts, embedcache.WithPoolSize(options.embedWorkers))
	}
	if options.batchSize > 0 {
		builderOpts = append(builderOpts, embedcache.WithBatchSize(options.batchSize))
	}
	if options.embedRate > 0 {
		builderOpts = append(builderOpts, embedcache.WithRateLimit(options.embedRate))
	}
	builder, err := embedcache.NewBuilder(e.store, e.provider.Embedder(), builderOpts...)
	if err != nil {
		return nil, err
	}
	e.builder = builder

	embeddings, err := builder.Ensure(ctx, dataset.SchemeNames(ds.Records))
	if err != nil {
		return nil, err
	}

	if err := e.wire(embeddings); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Engine) openStore(options *engineOptions) error {
	switch options.cacheBackend {
	case CacheBackendFile, "":
		store, err := file.NewStore(options.cacheDir)
		if err != nil {
			return err
		}
		e.store = store
	case CacheBackendBadger:
		backend, err := badger.OpenBackend(options.cacheDir, false)
		if err != nil {
			return err
		}
		store, err := badger.NewEmbeddingStore(backend)
		if err != nil {
			backend.Close()
			return err
		}
		e.backend = backend
		e.store = store
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCacheBackend, options.cacheBackend)
	}
	return nil
}

func (e *Engine) wire(embeddings *embedcache.Embeddings) error {
	recOpts := []recommend.Option{recommend.WithLogger(e.options.logger)}
	if e.options.poolSize > 0 {
		recOpts = append(recOpts, recommend.WithPoolSize(e.options.poolSize))
	}
	recommender, err := recommend.NewRecommender(e.provider.Embedder(), embeddings, e.filter, recOpts...)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.embeddings = embeddings
	e.recommender = recommender
	e.mu.Unlock()
	return nil
}

// Recommend returns up to topK eligible schemes for profile.
func (e *Engine) Recommend(ctx context.Context, profile *core.UserProfile, topK int) (*core.RecommendationResult, error) {
	return e.current().Recommend(ctx, profile, topK)
}

// RecommendWithMonitor is Recommend with a monitor observing each stage.
func (e *Engine) RecommendWithMonitor(ctx context.Context, profile *core.UserProfile, topK int, monitor recommend.Monitor) (*core.RecommendationResult, error) {
	return e.current().RecommendWithMonitor(ctx, profile, topK, monitor)
}

func (e *Engine) current() *recommend.Recommender {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.recommender
}

// RebuildCache re-encodes every scheme name regardless of the cache state
// and swaps the new embeddings in.
func (e *Engine) RebuildCache(ctx context.Context) error {
	embeddings, err := e.builder.Rebuild(ctx, dataset.SchemeNames(e.dataset.Records))
	if err != nil {
		return err
	}
	return e.wire(embeddings)
}

// Dataset returns the loaded dataset.
func (e *Engine) Dataset() *dataset.Dataset {
	return e.dataset
}

// Catalog returns the scheme metadata catalog.
func (e *Engine) Catalog() metadata.Catalog {
	return e.catalog
}

// Embeddings returns the scheme embeddings in use.
func (e *Engine) Embeddings() *embedcache.Embeddings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.embeddings
}

// Filter returns the eligibility filter.
func (e *Engine) Filter() *eligibility.Filter {
	return e.filter
}

// Close releases the worker pool, the provider and the cache store. Every
// resource is closed even when an earlier one fails; the errors are joined.
func (e *Engine) Close() error {
	if e.builder != nil {
		e.builder.Release()
	}

	var errs []error
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}

	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Error("error closing embedding store", "err", err)
			errs = append(errs, err)
		}
	}

	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
