package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vsatops/linksight/pkg/models"
)

// RedisStore keeps artifacts and metadata in Redis so multiple scoring
// nodes can share trained models. Artifact bytes and metadata live
// under separate keys; per-name and per-category sets act as the index.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects and pings before returning.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client, now: time.Now}, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func binKey(category, name, version string) string {
	return fmt.Sprintf("linksight:model:%s:%s:%s:bin", category, name, version)
}

func metaKey(category, name, version string) string {
	return fmt.Sprintf("linksight:model:%s:%s:%s:meta", category, name, version)
}

func versionsKey(category, name string) string {
	return fmt.Sprintf("linksight:model:%s:%s:versions", category, name)
}

func namesKey(category string) string {
	return fmt.Sprintf("linksight:models:%s", category)
}

func (s *RedisStore) Save(ctx context.Context, category string, artifact []byte, meta models.ModelMetadata) (models.ModelMetadata, error) {
	if meta.Version == "" {
		meta.Version = newVersion(s.now())
	}
	if meta.TrainedAt.IsZero() {
		meta.TrainedAt = s.now().UTC()
	}
	meta.Checksum = Checksum(artifact)

	encoded, err := json.Marshal(meta)
	if err != nil {
		return models.ModelMetadata{}, fmt.Errorf("encode metadata: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, binKey(category, meta.Name, meta.Version), artifact, 0)
	pipe.Set(ctx, metaKey(category, meta.Name, meta.Version), encoded, 0)
	pipe.SAdd(ctx, versionsKey(category, meta.Name), meta.Version)
	pipe.SAdd(ctx, namesKey(category), meta.Name)
	if _, err := pipe.Exec(ctx); err != nil {
		return models.ModelMetadata{}, fmt.Errorf("save model to redis: %w", err)
	}

	slog.Info("model saved", "backend", "redis", "category", category,
		"name", meta.Name, "version", meta.Version, "bytes", len(artifact))
	return meta, nil
}

func (s *RedisStore) Load(ctx context.Context, category, name, version string) ([]byte, models.ModelMetadata, error) {
	raw, err := s.client.Get(ctx, metaKey(category, name, version)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ModelMetadata{}, fmt.Errorf("%s/%s v%s: %w", category, name, version, ErrNotFound)
		}
		return nil, models.ModelMetadata{}, fmt.Errorf("load metadata: %w", err)
	}
	var meta models.ModelMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, models.ModelMetadata{}, fmt.Errorf("decode metadata: %w", err)
	}

	artifact, err := s.client.Get(ctx, binKey(category, name, version)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ModelMetadata{}, fmt.Errorf("%s/%s v%s: %w", category, name, version, ErrNotFound)
		}
		return nil, models.ModelMetadata{}, fmt.Errorf("load artifact: %w", err)
	}
	if Checksum(artifact) != meta.Checksum {
		return nil, models.ModelMetadata{}, fmt.Errorf("%s/%s v%s: %w", category, name, version, ErrChecksumMismatch)
	}
	return artifact, meta, nil
}

func (s *RedisStore) LoadLatest(ctx context.Context, category, name string) ([]byte, models.ModelMetadata, error) {
	versions, err := s.client.SMembers(ctx, versionsKey(category, name)).Result()
	if err != nil {
		return nil, models.ModelMetadata{}, fmt.Errorf("list versions: %w", err)
	}
	if len(versions) == 0 {
		return nil, models.ModelMetadata{}, fmt.Errorf("%s/%s: %w", category, name, ErrNotFound)
	}
	sort.Strings(versions)
	return s.Load(ctx, category, name, versions[len(versions)-1])
}

func (s *RedisStore) List(ctx context.Context, category string) ([]models.ModelMetadata, error) {
	names, err := s.client.SMembers(ctx, namesKey(category)).Result()
	if err != nil {
		return nil, fmt.Errorf("list model names: %w", err)
	}

	out := []models.ModelMetadata{}
	for _, name := range names {
		versions, err := s.client.SMembers(ctx, versionsKey(category, name)).Result()
		if err != nil {
			return nil, fmt.Errorf("list versions for %s: %w", name, err)
		}
		for _, version := range versions {
			raw, err := s.client.Get(ctx, metaKey(category, name, version)).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return nil, fmt.Errorf("load metadata for %s v%s: %w", name, version, err)
			}
			var meta models.ModelMetadata
			if err := json.Unmarshal(raw, &meta); err != nil {
				slog.Warn("skipping undecodable model metadata", "name", name, "version", version, "error", err)
				continue
			}
			out = append(out, meta)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version < out[j].Version
	})
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, category, name, version string) error {
	removed, err := s.client.Del(ctx, binKey(category, name, version), metaKey(category, name, version)).Result()
	if err != nil {
		return fmt.Errorf("delete model keys: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("%s/%s v%s: %w", category, name, version, ErrNotFound)
	}
	if err := s.client.SRem(ctx, versionsKey(category, name), version).Err(); err != nil {
		return fmt.Errorf("unindex version: %w", err)
	}
	remaining, err := s.client.SCard(ctx, versionsKey(category, name)).Result()
	if err == nil && remaining == 0 {
		_ = s.client.SRem(ctx, namesKey(category), name).Err()
	}
	slog.Info("model deleted", "backend", "redis", "category", category, "name", name, "version", version)
	return nil
}

func (s *RedisStore) Verify(ctx context.Context, category, name, version string) error {
	_, _, err := s.Load(ctx, category, name, version)
	return err
}
