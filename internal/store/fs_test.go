package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsatops/linksight/internal/store"
	"github.com/vsatops/linksight/pkg/models"
)

func newFSStore(t *testing.T) *store.FSStore {
	t.Helper()
	s, err := store.NewFSStore(filepath.Join(t.TempDir(), "models"))
	require.NoError(t, err)
	return s
}

func sampleMeta(name, version string) models.ModelMetadata {
	return models.ModelMetadata{
		Name:        name,
		Version:     version,
		Type:        "isolation_forest",
		TrainedAt:   time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
		Description: "network scorer",
		Hyperparameters: map[string]any{
			"trees": 100.0,
			"seed":  42.0,
		},
		Metrics: map[string]float64{"training_rows": 512},
	}
}

func TestFSStore_SaveLoadRoundtrip(t *testing.T) {
	s := newFSStore(t)
	ctx := context.Background()
	artifact := []byte("serialized-forest-bytes")

	saved, err := s.Save(ctx, "anomaly", artifact, sampleMeta("network-scorer", "20260401_100000"))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.Checksum)

	got, meta, err := s.Load(ctx, "anomaly", "network-scorer", "20260401_100000")
	require.NoError(t, err)
	assert.Equal(t, artifact, got)
	assert.Equal(t, saved.Checksum, meta.Checksum)
	assert.Equal(t, "isolation_forest", meta.Type)
}

func TestFSStore_GeneratesVersionWhenBlank(t *testing.T) {
	s := newFSStore(t)
	meta := sampleMeta("scorer", "")

	saved, err := s.Save(context.Background(), "anomaly", []byte("x"), meta)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.Version)

	_, _, err = s.Load(context.Background(), "anomaly", "scorer", saved.Version)
	assert.NoError(t, err)
}

func TestFSStore_TamperedArtifactFailsChecksum(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	s, err := store.NewFSStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Save(ctx, "anomaly", []byte("original"), sampleMeta("scorer", "v1"))
	require.NoError(t, err)

	tampered := filepath.Join(dir, "anomaly", "scorer_vv1", "model.bin")
	require.NoError(t, os.WriteFile(tampered, []byte("corrupted"), 0o644))

	_, _, err = s.Load(ctx, "anomaly", "scorer", "v1")
	assert.ErrorIs(t, err, store.ErrChecksumMismatch)

	assert.ErrorIs(t, s.Verify(ctx, "anomaly", "scorer", "v1"), store.ErrChecksumMismatch)
}

func TestFSStore_LoadLatest(t *testing.T) {
	s := newFSStore(t)
	ctx := context.Background()

	for _, v := range []string{"20260401_100000", "20260403_090000", "20260402_120000"} {
		_, err := s.Save(ctx, "anomaly", []byte("artifact-"+v), sampleMeta("scorer", v))
		require.NoError(t, err)
	}

	artifact, meta, err := s.LoadLatest(ctx, "anomaly", "scorer")
	require.NoError(t, err)
	assert.Equal(t, "20260403_090000", meta.Version)
	assert.Equal(t, []byte("artifact-20260403_090000"), artifact)
}

func TestFSStore_LoadLatest_NotFound(t *testing.T) {
	s := newFSStore(t)
	_, _, err := s.LoadLatest(context.Background(), "anomaly", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFSStore_List(t *testing.T) {
	s := newFSStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "anomaly", []byte("a"), sampleMeta("link-scorer", "v1"))
	require.NoError(t, err)
	_, err = s.Save(ctx, "anomaly", []byte("b"), sampleMeta("network-scorer", "v1"))
	require.NoError(t, err)
	_, err = s.Save(ctx, "anomaly", []byte("c"), sampleMeta("network-scorer", "v2"))
	require.NoError(t, err)

	metas, err := s.List(ctx, "anomaly")
	require.NoError(t, err)
	require.Len(t, metas, 3)
	assert.Equal(t, "link-scorer", metas[0].Name)
	assert.Equal(t, "network-scorer", metas[1].Name)
	assert.Equal(t, "v1", metas[1].Version)
	assert.Equal(t, "v2", metas[2].Version)
}

func TestFSStore_List_EmptyCategory(t *testing.T) {
	s := newFSStore(t)
	metas, err := s.List(context.Background(), "nothing-here")
	require.NoError(t, err)
	assert.Empty(t, metas)
}

func TestFSStore_Delete(t *testing.T) {
	s := newFSStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "anomaly", []byte("a"), sampleMeta("scorer", "v1"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "anomaly", "scorer", "v1"))

	_, _, err = s.Load(ctx, "anomaly", "scorer", "v1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "anomaly", "scorer", "v1"), store.ErrNotFound)
}

func TestFSStore_CancelledContext(t *testing.T) {
	s := newFSStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Save(ctx, "anomaly", []byte("a"), sampleMeta("scorer", "v1"))
	assert.Error(t, err)
}

func TestChecksum_Stable(t *testing.T) {
	a := store.Checksum([]byte("payload"))
	b := store.Checksum([]byte("payload"))
	c := store.Checksum([]byte("payload2"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}
