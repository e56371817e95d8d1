package metadata

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/utkarshchauhan26/CivicConnect/dataset"
)

// ErrStaleArtifact indicates the artifact was built from a different dataset.
var ErrStaleArtifact = errors.New("metadata artifact does not match dataset")

// Artifact is the persisted form of a Catalog.
type Artifact struct {
	DatasetDigest string    `json:"dataset_digest"`
	GeneratedAt   time.Time `json:"generated_at"`
	Schemes       Catalog   `json:"schemes"`
}

// Save writes the artifact to path, replacing any existing file atomically.
func Save(path string, artifact *Artifact) error {
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create metadata dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace metadata: %w", err)
	}
	return nil
}

// Load reads an artifact from path.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", filepath.Base(path), err)
	}
	if artifact.Schemes == nil {
		return nil, fmt.Errorf("decode metadata %s: no schemes", filepath.Base(path))
	}
	return &artifact, nil
}

// LoadOrBuild returns the catalog for ds, reusing the artifact at path when
// it was built from the same dataset content. Otherwise the catalog is
// rebuilt and the artifact rewritten. A failed write is logged and the
// rebuilt catalog is still returned. The boolean reports a rebuild.
func LoadOrBuild(path string, ds *dataset.Dataset, logger *slog.Logger) (Catalog, bool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "metadata", "path", path)

	artifact, err := Load(path)
	switch {
	case err == nil && artifact.DatasetDigest == ds.Digest:
		logger.Debug("reusing metadata artifact", "schemes", len(artifact.Schemes))
		return artifact.Schemes, false, nil
	case err == nil:
		logger.Info("metadata artifact is stale, rebuilding", "err", ErrStaleArtifact)
	case errors.Is(err, os.ErrNotExist):
		logger.Info("metadata artifact not found, building")
	default:
		logger.Warn("metadata artifact unreadable, rebuilding", "err", err)
	}

	catalog, err := Build(ds.Records)
	if err != nil {
		return nil, false, err
	}

	fresh := &Artifact{
		DatasetDigest: ds.Digest,
		GeneratedAt:   time.Now().UTC(),
		Schemes:       catalog,
	}
	if err := Save(path, fresh); err != nil {
		logger.Error("failed to write metadata artifact", "err", err)
	} else {
		logger.Info("metadata artifact written", "schemes", len(catalog))
	}
	return catalog, true, nil
}
