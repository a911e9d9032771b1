package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vsatops/linksight/pkg/models"
)

const (
	artifactFile = "model.bin"
	metadataFile = "metadata.json"
)

var _ Store = (*FSStore)(nil)

// FSStore lays models out as
// root/category/name_vVERSION/{model.bin,metadata.json}. A single
// RWMutex keeps deletes from racing concurrent reads; reads share the
// lock.
type FSStore struct {
	root string
	mu   sync.RWMutex
	now  func() time.Time
}

// NewFSStore creates the root directory if needed.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create model root %s: %w", root, err)
	}
	return &FSStore{root: root, now: time.Now}, nil
}

func (s *FSStore) versionDir(category, name, version string) string {
	return filepath.Join(s.root, category, fmt.Sprintf("%s_v%s", name, version))
}

// Save writes the artifact first and the metadata last, so a version
// directory with metadata present is always complete.
func (s *FSStore) Save(ctx context.Context, category string, artifact []byte, meta models.ModelMetadata) (models.ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return models.ModelMetadata{}, err
	}
	if meta.Version == "" {
		meta.Version = newVersion(s.now())
	}
	if meta.TrainedAt.IsZero() {
		meta.TrainedAt = s.now().UTC()
	}
	meta.Checksum = Checksum(artifact)

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.versionDir(category, meta.Name, meta.Version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return models.ModelMetadata{}, fmt.Errorf("create version dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, artifactFile), artifact, 0o644); err != nil {
		return models.ModelMetadata{}, fmt.Errorf("write artifact: %w", err)
	}
	encoded, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return models.ModelMetadata{}, fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), encoded, 0o644); err != nil {
		return models.ModelMetadata{}, fmt.Errorf("write metadata: %w", err)
	}

	slog.Info("model saved", "category", category, "name", meta.Name,
		"version", meta.Version, "bytes", len(artifact))
	return meta, nil
}

func (s *FSStore) Load(ctx context.Context, category, name, version string) ([]byte, models.ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ModelMetadata{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadLocked(category, name, version)
}

func (s *FSStore) loadLocked(category, name, version string) ([]byte, models.ModelMetadata, error) {
	dir := s.versionDir(category, name, version)
	meta, err := readMetadata(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, models.ModelMetadata{}, err
	}
	artifact, err := os.ReadFile(filepath.Join(dir, artifactFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ModelMetadata{}, fmt.Errorf("%s/%s v%s: %w", category, name, version, ErrNotFound)
		}
		return nil, models.ModelMetadata{}, fmt.Errorf("read artifact: %w", err)
	}
	if Checksum(artifact) != meta.Checksum {
		return nil, models.ModelMetadata{}, fmt.Errorf("%s/%s v%s: %w", category, name, version, ErrChecksumMismatch)
	}
	return artifact, meta, nil
}

func (s *FSStore) LoadLatest(ctx context.Context, category, name string) ([]byte, models.ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ModelMetadata{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions, err := s.versionsLocked(category, name)
	if err != nil {
		return nil, models.ModelMetadata{}, err
	}
	if len(versions) == 0 {
		return nil, models.ModelMetadata{}, fmt.Errorf("%s/%s: %w", category, name, ErrNotFound)
	}
	return s.loadLocked(category, name, versions[len(versions)-1])
}

// versionsLocked returns the sorted versions of one model name.
func (s *FSStore) versionsLocked(category, name string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, category))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read category %s: %w", category, err)
	}
	prefix := name + "_v"
	var versions []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			versions = append(versions, strings.TrimPrefix(e.Name(), prefix))
		}
	}
	sort.Strings(versions)
	return versions, nil
}

func (s *FSStore) List(ctx context.Context, category string) ([]models.ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.root, category))
	if err != nil {
		if os.IsNotExist(err) {
			return []models.ModelMetadata{}, nil
		}
		return nil, fmt.Errorf("read category %s: %w", category, err)
	}

	out := []models.ModelMetadata{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := readMetadata(filepath.Join(s.root, category, e.Name(), metadataFile))
		if err != nil {
			// Half-written or foreign directories are skipped, not fatal.
			slog.Warn("skipping unreadable model dir", "dir", e.Name(), "error", err)
			continue
		}
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version < out[j].Version
	})
	return out, nil
}

// Delete renames the version directory aside before removing it, so a
// reader that raced past the lock can never see a half-deleted version.
func (s *FSStore) Delete(ctx context.Context, category, name, version string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.versionDir(category, name, version)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s/%s v%s: %w", category, name, version, ErrNotFound)
		}
		return fmt.Errorf("stat version dir: %w", err)
	}

	tomb := dir + ".deleting"
	if err := os.Rename(dir, tomb); err != nil {
		return fmt.Errorf("rename aside: %w", err)
	}
	if err := os.RemoveAll(tomb); err != nil {
		return fmt.Errorf("remove version dir: %w", err)
	}
	slog.Info("model deleted", "category", category, "name", name, "version", version)
	return nil
}

func (s *FSStore) Verify(ctx context.Context, category, name, version string) error {
	_, _, err := s.Load(ctx, category, name, version)
	return err
}

func readMetadata(path string) (models.ModelMetadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.ModelMetadata{}, ErrNotFound
		}
		return models.ModelMetadata{}, fmt.Errorf("read metadata: %w", err)
	}
	var meta models.ModelMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return models.ModelMetadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	return meta, nil
}
