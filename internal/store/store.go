// Package store persists versioned model artifacts with integrity
// metadata. Two backends share one interface: a local filesystem layout
// for single-node deployments and Redis for shared ones.
package store

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"time"

	"github.com/vsatops/linksight/pkg/models"
)

var (
	// ErrNotFound means the requested model, version, or category does
	// not exist.
	ErrNotFound = errors.New("model not found")
	// ErrChecksumMismatch means the stored artifact no longer matches
	// the checksum recorded at save time.
	ErrChecksumMismatch = errors.New("model checksum mismatch")
)

// Store saves and retrieves versioned model artifacts. Every Load
// verifies the artifact against its recorded checksum before returning
// it.
type Store interface {
	// Save persists the artifact under category/name. A blank
	// meta.Version gets a generated timestamp version. Returns the
	// final metadata including version and checksum.
	Save(ctx context.Context, category string, artifact []byte, meta models.ModelMetadata) (models.ModelMetadata, error)
	// Load fetches one exact version.
	Load(ctx context.Context, category, name, version string) ([]byte, models.ModelMetadata, error)
	// LoadLatest fetches the lexicographically newest version.
	LoadLatest(ctx context.Context, category, name string) ([]byte, models.ModelMetadata, error)
	// List returns the metadata of every stored version in a category.
	List(ctx context.Context, category string) ([]models.ModelMetadata, error)
	// Delete removes one version. Deleting a missing version is
	// ErrNotFound.
	Delete(ctx context.Context, category, name, version string) error
	// Verify re-reads one version and checks its integrity.
	Verify(ctx context.Context, category, name, version string) error
}

// Checksum is the integrity digest recorded alongside every artifact.
func Checksum(artifact []byte) string {
	sum := md5.Sum(artifact)
	return hex.EncodeToString(sum[:])
}

// newVersion generates a sortable timestamp version; newest versions
// compare lexicographically greatest.
func newVersion(now time.Time) string {
	return now.UTC().Format("20060102_150405")
}
