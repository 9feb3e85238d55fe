package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is the default TTL for cached search responses (1 hour)
const DefaultCacheTTL = time.Hour

// CacheSearch stores an encoded search response for query under buildHash
func (s *Store) CacheSearch(ctx context.Context, buildHash, query string, body []byte, ttl time.Duration) error {
	key := CacheKey(s.ns, buildHash, query)
	if err := s.client.Set(ctx, key, body, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache search: %w", err)
	}
	return nil
}

// GetCachedSearch retrieves a cached response. A miss returns nil, nil.
func (s *Store) GetCachedSearch(ctx context.Context, buildHash, query string) ([]byte, error) {
	key := CacheKey(s.ns, buildHash, query)
	body, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get cached search: %w", err)
	}
	return body, nil
}

// FlushCache removes all cached responses of this namespace
func (s *Store) FlushCache(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, KeyPrefixCache+s.ns+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to flush cache: %w", err)
	}
	return nil
}
