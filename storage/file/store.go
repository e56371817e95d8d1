// Package file implements storage.EmbeddingStore with two flat files in a
// directory: the scheme list as JSON and the vectors as a binary blob that
// also carries the digest of the scheme list it was built from.
package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/utkarshchauhan26/CivicConnect/core"
	"github.com/utkarshchauhan26/CivicConnect/storage"
)

// File names inside the cache directory.
const (
	NamesFile   = "scheme_list.json"
	VectorsFile = "scheme_embeddings.bin"
)

// Store keeps an embedding snapshot in a directory.
type Store struct {
	dir    string
	mu     sync.RWMutex
	closed bool
	logger *slog.Logger
}

// NewStore creates a store rooted at dir, creating the directory if needed.
//
// Returns storage.EmbeddingStore interface to enforce abstraction.
func NewStore(dir string) (storage.EmbeddingStore, error) {
	return newStore(dir)
}

func newStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: slog.Default().With("component", "file-store", "dir", dir),
	}, nil
}

// LoadEmbeddings reads both files and checks that they belong together.
func (s *Store) LoadEmbeddings(ctx context.Context) (*storage.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrStorageClosed
	}

	namesData, namesErr := os.ReadFile(s.path(NamesFile))
	vectorsData, vectorsErr := os.ReadFile(s.path(VectorsFile))
	switch {
	case errors.Is(namesErr, os.ErrNotExist) && errors.Is(vectorsErr, os.ErrNotExist):
		return nil, storage.ErrNotFound
	case errors.Is(namesErr, os.ErrNotExist) || errors.Is(vectorsErr, os.ErrNotExist):
		return nil, fmt.Errorf("%w: only one of %s and %s exists", core.ErrCacheInconsistency, NamesFile, VectorsFile)
	case namesErr != nil:
		return nil, namesErr
	case vectorsErr != nil:
		return nil, vectorsErr
	}

	var names []string
	if err := json.Unmarshal(namesData, &names); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", core.ErrCacheInconsistency, NamesFile, err)
	}

	digest, vectors, err := storage.UnmarshalVectors(vectorsData)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", core.ErrCacheInconsistency, VectorsFile, err)
	}

	snapshot := &storage.Snapshot{Names: names, Vectors: vectors, Digest: digest}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// SaveEmbeddings writes both files to temporary paths and renames them into
// place. The vectors file embeds the digest of the name list, so a reader
// that sees a half-replaced pair detects the mismatch.
func (s *Store) SaveEmbeddings(ctx context.Context, snapshot *storage.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrInvalidSnapshot, err)
	}

	namesData, err := json.Marshal(snapshot.Names)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	vectorsData := storage.MarshalVectors(snapshot.Digest, snapshot.Vectors)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStorageClosed
	}

	if err := writeTemp(s.path(VectorsFile), vectorsData); err != nil {
		return err
	}
	if err := writeTemp(s.path(NamesFile), namesData); err != nil {
		os.Remove(s.path(VectorsFile) + ".tmp")
		return err
	}
	if err := os.Rename(s.path(VectorsFile)+".tmp", s.path(VectorsFile)); err != nil {
		return fmt.Errorf("replace %s: %w", VectorsFile, err)
	}
	if err := os.Rename(s.path(NamesFile)+".tmp", s.path(NamesFile)); err != nil {
		return fmt.Errorf("replace %s: %w", NamesFile, err)
	}

	s.logger.Debug("embedding snapshot written", "schemes", len(snapshot.Names))
	return nil
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func writeTemp(path string, data []byte) error {
	if err := os.WriteFile(path+".tmp", data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
