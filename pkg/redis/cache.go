package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores raw payloads under a namespaced prefix
// ⭐ SSOT: Redis 키 네이밍은 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Key returns the full Redis key for a cache key
func (c *Cache) Key(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached payload; a missing key is (nil, false, nil)
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !c.client.Enabled() {
		return nil, false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

// Set stores a payload with TTL; ttl <= 0 keeps it until deleted
func (c *Cache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Redis().Set(ctx, c.Key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes a cached payload
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.Key(key)).Err()
}

// Clear removes every payload under the prefix
// SCAN is used instead of KEYS so a large keyspace does not block Redis.
func (c *Cache) Clear(ctx context.Context) error {
	if !c.client.Enabled() {
		return nil
	}

	rdb := c.client.Redis()
	iter := rdb.Scan(ctx, 0, c.Key("*"), 500).Iterator()

	batch := make([]string, 0, 500)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := rdb.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis clear: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) > 0 {
		if err := rdb.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis clear: %w", err)
		}
	}
	return nil
}
