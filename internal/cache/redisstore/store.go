// Package redisstore backs the provider cache with Redis so several volur
// processes share fetched data.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wonny/volur/internal/cache"
	"github.com/wonny/volur/pkg/redis"
)

// Store implements cache.Backend on top of pkg/redis
type Store struct {
	rc  *redis.Cache
	ttl time.Duration
}

// New creates a store. Redis expires keys after ttl as well, so stale
// entries do not pile up; freshness is still decided by cache.Fresh.
func New(client *redis.Client, prefix string, ttl time.Duration) *Store {
	return &Store{rc: redis.NewCache(client, prefix), ttl: ttl}
}

var _ cache.Backend = (*Store)(nil)

func (s *Store) Read(ctx context.Context, key string) (cache.Entry, bool, error) {
	data, ok, err := s.rc.Get(ctx, key)
	if err != nil || !ok {
		return cache.Entry{}, false, err
	}

	var e cache.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return cache.Entry{}, false, fmt.Errorf("redisstore: corrupt entry %s: %w", key, err)
	}
	return e, true, nil
}

func (s *Store) Write(ctx context.Context, key string, e cache.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("redisstore: encode %s: %w", key, err)
	}
	return s.rc.Set(ctx, key, data, s.ttl)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.rc.Delete(ctx, key)
}

func (s *Store) Clear(ctx context.Context) error {
	return s.rc.Clear(ctx)
}
