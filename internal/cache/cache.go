// Package cache is the TTL-bounded, single-flight store in front of every
// DataSource call.
//
// Entries are JSON payloads stamped with the time they were stored. An entry
// is served while it is younger than the TTL; after that the next caller
// refetches and replaces it. Concurrent callers for the same key share one
// fetch. Failed fetches are never stored.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/volur/pkg/logger"
)

// Entry is one stored payload
type Entry struct {
	Value    []byte    `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

func (e Entry) clone() Entry {
	v := make([]byte, len(e.Value))
	copy(v, e.Value)
	return Entry{Value: v, StoredAt: e.StoredAt}
}

// Backend persists entries. Implementations must be safe for concurrent use.
type Backend interface {
	// Read returns the entry and whether it exists
	Read(ctx context.Context, key string) (Entry, bool, error)
	Write(ctx context.Context, key string, e Entry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// FetchFunc loads a value on a cache miss
type FetchFunc func(ctx context.Context) (interface{}, error)

// Stats are cumulative counters since the cache was created
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Fetches uint64 `json:"fetches"`
}

// Cache wraps a Backend with TTL and single-flight semantics
// ⭐ SSOT: DataSource 호출 캐싱은 여기서만
type Cache struct {
	backend Backend
	ttl     time.Duration
	logger  *logger.Logger
	now     func() time.Time

	group singleflight.Group

	hits    atomic.Uint64
	misses  atomic.Uint64
	fetches atomic.Uint64
}

// New creates a cache over backend
func New(backend Backend, ttl time.Duration, log *logger.Logger) *Cache {
	if log == nil {
		log = logger.Nop()
	}
	return &Cache{
		backend: backend,
		ttl:     ttl,
		logger:  log,
		now:     time.Now,
	}
}

// WithClock replaces the time source (tests)
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// TTL returns the configured time to live
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Fresh reports whether an entry stored at storedAt is still servable at now
func Fresh(storedAt, now time.Time, ttl time.Duration) bool {
	return now.Sub(storedAt) < ttl
}

// GetOrFetch decodes the cached value for key into dest, calling fetch when
// the entry is missing or expired.
//
// The shared fetch runs detached from ctx so one caller giving up does not
// fail the others waiting on the same key; ctx still bounds how long this
// caller waits.
func (c *Cache) GetOrFetch(ctx context.Context, key Key, dest interface{}, fetch FetchFunc) error {
	k := key.String()
	log := c.logger.WithField("key", k)

	if data, ok := c.readFresh(ctx, k); ok {
		c.hits.Add(1)
		log.Debug("Cache hit")
		return decode(k, data, dest)
	}
	c.misses.Add(1)
	log.Debug("Cache miss")

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(k, func() (interface{}, error) {
		// A flight that finished between our read and DoChan may have stored it
		if data, ok := c.readFresh(fetchCtx, k); ok {
			return data, nil
		}

		c.fetches.Add(1)
		value, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("cache %s: encode: %w", k, err)
		}

		if err := c.backend.Write(fetchCtx, k, Entry{Value: data, StoredAt: c.now()}); err != nil {
			log.WithError(err).Warn("Cache write failed, serving uncached value")
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		if res.Shared {
			log.Debug("Joined in-flight fetch")
		}
		return decode(k, res.Val.([]byte), dest)
	}
}

// Invalidate drops a single entry
func (c *Cache) Invalidate(ctx context.Context, key Key) error {
	k := key.String()
	c.group.Forget(k)
	if err := c.backend.Delete(ctx, k); err != nil {
		return fmt.Errorf("cache invalidate %s: %w", k, err)
	}
	return nil
}

// Clear drops every entry
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.backend.Clear(ctx); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	c.logger.Info("Cache cleared")
	return nil
}

// Stats returns a snapshot of the counters
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Fetches: c.fetches.Load(),
	}
}

// readFresh treats backend read errors as misses
func (c *Cache) readFresh(ctx context.Context, k string) ([]byte, bool) {
	entry, ok, err := c.backend.Read(ctx, k)
	if err != nil {
		c.logger.WithError(err).WithField("key", k).Warn("Cache read failed")
		return nil, false
	}
	if !ok || !Fresh(entry.StoredAt, c.now(), c.ttl) {
		return nil, false
	}
	return entry.Value, true
}

func decode(k string, data []byte, dest interface{}) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache %s: decode: %w", k, err)
	}
	return nil
}
