package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/theoseek/theoseek/internal/searcher"
	pkgredis "github.com/theoseek/theoseek/pkg/redis"
)

// RedisStore backs the response cache with Redis so cache entries are
// shared across searcher instances.
type RedisStore struct {
	client *pkgredis.Client
	logger *slog.Logger
}

// NewRedisStore wraps an established Redis client.
func NewRedisStore(client *pkgredis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		logger: slog.Default().With("component", "redis-cache"),
	}
}

// Get fetches and decodes the entry for key. Decode failures count as
// misses.
func (s *RedisStore) Get(ctx context.Context, key string) (*searcher.Result, bool) {
	data, err := s.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			s.logger.Error("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var result searcher.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		s.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return &result, true
}

// Set encodes and stores result under key with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key string, result *searcher.Result, ttl time.Duration) {
	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := s.client.Set(ctx, key, data, ttl); err != nil {
		s.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// Invalidate deletes every entry under the cache prefix.
func (s *RedisStore) Invalidate(ctx context.Context) error {
	deleted, err := s.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return err
	}
	s.logger.Info("cache entries flushed", "keys_deleted", deleted)
	return nil
}

// Close is a no-op; the underlying client is owned by the caller.
func (s *RedisStore) Close() error {
	return nil
}
