package storage

import (
	"context"
)

// Snapshot is a persisted embedding cache.
type Snapshot struct {
	// Names is the canonical scheme list the vectors were built from.
	Names []string
	// Vectors holds one embedding per name, aligned by index.
	Vectors [][]float32
	// Digest identifies Names; see NamesDigest.
	Digest string
}

// EmbeddingStore persists embedding cache snapshots.
// Implementations must be thread-safe.
type EmbeddingStore interface {
	// LoadEmbeddings returns the stored snapshot.
	// Returns ErrNotFound when nothing has been stored yet and an error
	// wrapping core.ErrCacheInconsistency when the stored halves disagree.
	LoadEmbeddings(ctx context.Context) (*Snapshot, error)

	// SaveEmbeddings replaces the stored snapshot. Names and vectors are
	// written together; a reader never observes one without the other.
	SaveEmbeddings(ctx context.Context, snapshot *Snapshot) error

	// Close releases resources held by the store.
	Close() error
}
