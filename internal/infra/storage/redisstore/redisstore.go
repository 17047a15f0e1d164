// Package redisstore adapts the legacy, size-constrained record store to
// the Source port. Records live as plain string values under a namespace
// prefix; optional metadata lives in a companion hash at "<key>:meta".
package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coachbook/mover/internal/core/domain"
	"github.com/coachbook/mover/internal/infra/storage"
)

const metaSuffix = ":meta"

// Config holds connection configuration for the legacy store.
type Config struct {
	URL       string `yaml:"url"`
	Password  string `yaml:"password"`
	Namespace string `yaml:"namespace"`
}

// Store implements storage.Source on top of Redis.
type Store struct {
	rdb *redis.Client
	ns  string
}

// NewStore connects to the legacy store and verifies the connection.
func NewStore(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ns := cfg.Namespace
	if ns != "" && !strings.HasSuffix(ns, ":") {
		ns += ":"
	}
	return &Store{rdb: rdb, ns: ns}, nil
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// ListKeys enumerates every record in the namespace with its size estimate
// and companion metadata. Metadata hashes themselves are skipped.
func (s *Store) ListKeys(ctx context.Context) ([]storage.KeyInfo, error) {
	var infos []storage.KeyInfo

	iter := s.rdb.Scan(ctx, 0, s.ns+"*", 100).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		if strings.HasSuffix(full, metaSuffix) {
			continue
		}

		size, err := s.rdb.StrLen(ctx, full).Result()
		if err != nil {
			return nil, fmt.Errorf("strlen failed for %q: %w", full, err)
		}

		meta, err := s.readMeta(ctx, full)
		if err != nil {
			return nil, err
		}

		infos = append(infos, storage.KeyInfo{
			Key:       strings.TrimPrefix(full, s.ns),
			SizeBytes: size,
			Metadata:  meta,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return infos, nil
}

// Read returns the raw payload for a key.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, s.ns+key).Bytes()
	if err == redis.Nil {
		return nil, storage.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get failed for %q: %w", key, err)
	}
	return data, nil
}

func (s *Store) readMeta(ctx context.Context, fullKey string) (*domain.ItemMetadata, error) {
	fields, err := s.rdb.HGetAll(ctx, fullKey+metaSuffix).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall failed for %q: %w", fullKey, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	meta := &domain.ItemMetadata{}
	if raw, ok := fields["last_modified"]; ok {
		if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
			t := time.Unix(unix, 0)
			meta.LastModifiedAt = &t
		}
	}
	meta.IsActive = fields["is_active"] == "1"
	meta.IsCurrent = fields["is_current"] == "1"
	return meta, nil
}
