package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/actuallystonmai/influencer-sync/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	defaultSearchTTL = 10 * time.Minute
	searchKeyPrefix  = "search:"
)

// SearchCache stores whole search results in redis. A nil *SearchCache, or
// one built without a client, is a no-op cache.
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSearchCache(client *redis.Client, ttl time.Duration) *SearchCache {
	if ttl <= 0 {
		ttl = defaultSearchTTL
	}
	return &SearchCache{client: client, ttl: ttl}
}

func buildKey(query string, limit int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return fmt.Sprintf("%sq:%s:limit:%d", searchKeyPrefix, normalized, limit)
}

func (c *SearchCache) enabled() bool {
	return c != nil && c.client != nil
}

// Get search result from cache
func (c *SearchCache) Get(ctx context.Context, query string, limit int) (*domain.SearchResult, bool, error) {
	if !c.enabled() {
		return nil, false, nil
	}

	key := buildKey(query, limit)
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get search result from cache: %w", err)
	}

	var result domain.SearchResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal search result %s: %w", key, err)
	}
	return &result, true, nil
}

// Store search result in cache
func (c *SearchCache) Set(ctx context.Context, query string, limit int, result *domain.SearchResult) error {
	if !c.enabled() {
		return nil
	}

	val, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal search result: %w", err)
	}

	if err := c.client.Set(ctx, buildKey(query, limit), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set search result in cache: %w", err)
	}
	return nil
}

// Clear drops every cached search result: used after a sync writes new records
func (c *SearchCache) Clear(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}

	iter := c.client.Scan(ctx, 0, searchKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// Ping connectivity
func (c *SearchCache) Ping(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Enabled reports whether a redis client backs the cache.
func (c *SearchCache) Enabled() bool {
	return c.enabled()
}
