package recommend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utkarshchauhan26/CivicConnect/ai"
	"github.com/utkarshchauhan26/CivicConnect/core"
	"github.com/utkarshchauhan26/CivicConnect/eligibility"
	"github.com/utkarshchauhan26/CivicConnect/ranking"
)

// DefaultPoolSize is the number of ranked candidates handed to the filter.
const DefaultPoolSize = 50

// Recommender produces filtered scheme recommendations for a profile.
type Recommender struct {
	embedder ai.Embedder
	schemes  ranking.VectorSource
	filter   *eligibility.Filter
	poolSize int
	logger   *slog.Logger
}

// Option configures a Recommender.
type Option func(*Recommender) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recommender) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithPoolSize sets the candidate pool size passed to the filter.
// Default is DefaultPoolSize. A request for more results than the pool
// size widens the pool to the request.
func WithPoolSize(size int) Option {
	return func(r *Recommender) error {
		if size < 1 {
			return fmt.Errorf("pool size must be greater than 0, got %d", size)
		}
		r.poolSize = size
		return nil
	}
}

// NewRecommender creates a new recommender.
func NewRecommender(
	embedder ai.Embedder,
	schemes ranking.VectorSource,
	filter *eligibility.Filter,
	opts ...Option,
) (*Recommender, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if schemes == nil {
		return nil, ErrEmbeddingsRequired
	}
	if filter == nil {
		return nil, ErrFilterRequired
	}

	r := &Recommender{
		embedder: embedder,
		schemes:  schemes,
		filter:   filter,
		poolSize: DefaultPoolSize,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "recommend")

	return r, nil
}

// Recommend returns up to topK eligible schemes for profile, ordered by
// descending score.
func (r *Recommender) Recommend(ctx context.Context, profile *core.UserProfile, topK int) (*core.RecommendationResult, error) {
	return r.RecommendWithMonitor(ctx, profile, topK, nil)
}

// RecommendWithMonitor is Recommend with a monitor receiving callbacks at
// each stage of the request.
func (r *Recommender) RecommendWithMonitor(ctx context.Context, profile *core.UserProfile, topK int, monitor Monitor) (*core.RecommendationResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if err := core.ValidateUserProfile(profile); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: %w, got %d", core.ErrInvalidInput, core.ErrInvalidTopK, topK)
	}

	isBPL := r.filter.IsBPL(profile)
	text := profile.Describe(isBPL)
	monitor.Start(profile, text, isBPL)

	// 1. Embed the profile
	embedding, err := r.embedder.EmbedText(ctx, text)
	if err != nil {
		r.logger.Error("error generating embedding for profile", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrEncoder, err)
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: empty profile embedding", core.ErrEncoder)
	}

	// 2. Rank an over-generous pool
	pool := ranking.Rank(embedding, r.schemes, max(r.poolSize, topK))
	monitor.AfterRanking(pool)

	// 3. Filter
	verdicts := r.filter.Evaluate(profile, isBPL, pool)
	for _, v := range verdicts {
		switch {
		case !v.Included:
			monitor.Excluded(v)
		case len(v.Adjustments) > 0:
			monitor.Adjusted(v)
		}
	}

	// 4. Deduplicate, re-sort and truncate
	survivors := dedupe(eligibility.Included(verdicts))
	ranking.SortByScore(survivors)
	if len(survivors) > topK {
		survivors = survivors[:topK]
	}

	result := &core.RecommendationResult{
		Schemes: make([]core.Recommendation, len(survivors)),
	}
	for i, c := range survivors {
		result.Schemes[i] = core.Recommendation{
			Name:     c.Name,
			Score:    c.Score,
			Category: core.DisplayCategory,
		}
	}

	r.logger.Debug("recommendation complete",
		"pool", len(pool), "eligible", len(survivors), "top_k", topK)
	monitor.Finish(result)

	return result, nil
}

// dedupe keeps the first occurrence of each scheme name.
func dedupe(candidates []core.Candidate) []core.Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c)
	}
	return out
}
