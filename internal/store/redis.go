// redis.go -- go-redis client for caching the public top-searches payload.
//
// The top-searches endpoint is unauthenticated and read-heavy; serving it
// from a short-TTL cache keeps popular-query reads off Postgres. Staleness is
// bounded by the TTL. If Redis is unavailable, callers fall back to Postgres.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore wraps a Redis client for cache operations.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to Redis and returns a ready-to-use cache store.
// It pings Redis to verify connectivity before returning.
// Call once at startup from main.go; the returned store is safe for concurrent use.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{rdb}, nil
}

// Close shuts down the Redis client and releases all resources.
// Call via defer in main.go after creating the store.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// CheckHealth pings Redis. Used by the /health endpoint.
func (s *RedisStore) CheckHealth(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// topSearchesKey keys the cache per requested limit -- limits are clamped to
// [1,50] before reaching here, so the key space is bounded.
func topSearchesKey(limit int) string {
	return fmt.Sprintf("top_searches:%d", limit)
}

// GetTopSearches retrieves a cached top-searches list for the given limit.
// Returns ErrCacheMiss when the key is absent; any other error is a Redis
// infrastructure failure.
func (s *RedisStore) GetTopSearches(ctx context.Context, limit int) ([]TopSearch, error) {
	raw, err := s.rdb.Get(ctx, topSearchesKey(limit)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("fetching top searches: %w", err)
	}

	var top []TopSearch
	if err := json.Unmarshal([]byte(raw), &top); err != nil {
		return nil, fmt.Errorf("parsing cached top searches: %w", err)
	}
	return top, nil
}

// SetTopSearches caches a top-searches list for the given limit with a TTL.
func (s *RedisStore) SetTopSearches(ctx context.Context, limit int, top []TopSearch, ttl time.Duration) error {
	payload, err := json.Marshal(top)
	if err != nil {
		return fmt.Errorf("marshaling top searches: %w", err)
	}
	if err := s.rdb.Set(ctx, topSearchesKey(limit), payload, ttl).Err(); err != nil {
		return fmt.Errorf("caching top searches: %w", err)
	}
	return nil
}
