package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/utkarshchauhan26/CivicConnect/core"
	"github.com/utkarshchauhan26/CivicConnect/storage"
)

// EmbeddingStore implements storage.EmbeddingStore for BadgerDB.
// The scheme list, the vectors and the list digest are written in a single
// transaction.
type EmbeddingStore struct {
	backend *Backend
}

var _ storage.EmbeddingStore = (*EmbeddingStore)(nil)

// NewEmbeddingStore creates a store on top of an open backend. The backend
// stays owned by the caller.
//
// Returns storage.EmbeddingStore interface to enforce abstraction.
func NewEmbeddingStore(backend *Backend) (storage.EmbeddingStore, error) {
	return newEmbeddingStore(backend)
}

func newEmbeddingStore(backend *Backend) (*EmbeddingStore, error) {
	if backend == nil {
		return nil, errors.New("badger backend is required")
	}
	return &EmbeddingStore{backend: backend}, nil
}

// LoadEmbeddings reads the stored snapshot.
func (s *EmbeddingStore) LoadEmbeddings(ctx context.Context) (*storage.Snapshot, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var namesData, vectorsData, digestData []byte
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		if namesData, err = readValue(tx, namesKey); err != nil {
			return err
		}
		if vectorsData, err = readValue(tx, vectorsKey); err != nil {
			return err
		}
		digestData, err = readValue(tx, digestKey)
		return err
	}, false)
	if err != nil {
		return nil, err
	}

	present := 0
	for _, v := range [][]byte{namesData, vectorsData, digestData} {
		if v != nil {
			present++
		}
	}
	switch present {
	case 0:
		return nil, storage.ErrNotFound
	case 3:
	default:
		return nil, fmt.Errorf("%w: incomplete snapshot (%d of 3 keys)", core.ErrCacheInconsistency, present)
	}

	names, err := storage.UnmarshalNames(namesData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrCacheInconsistency, err)
	}
	vectorDigest, vectors, err := storage.UnmarshalVectors(vectorsData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrCacheInconsistency, err)
	}
	if vectorDigest != string(digestData) {
		return nil, fmt.Errorf("%w: vectors belong to a different scheme list", core.ErrCacheInconsistency)
	}

	snapshot := &storage.Snapshot{Names: names, Vectors: vectors, Digest: string(digestData)}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// SaveEmbeddings replaces the stored snapshot in one transaction.
func (s *EmbeddingStore) SaveEmbeddings(ctx context.Context, snapshot *storage.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrInvalidSnapshot, err)
	}
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(namesKey, storage.MarshalNames(snapshot.Names)); err != nil {
			return err
		}
		if err := tx.Set(vectorsKey, storage.MarshalVectors(snapshot.Digest, snapshot.Vectors)); err != nil {
			return err
		}
		return tx.Set(digestKey, []byte(snapshot.Digest))
	}, true)
}

// Close is a no-op; the backend is closed by its owner.
func (s *EmbeddingStore) Close() error {
	return nil
}

// readValue returns a copy of the value at key, or nil if the key is absent.
func readValue(tx *badger.Txn, key []byte) ([]byte, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}
