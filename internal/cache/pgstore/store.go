// Package pgstore backs the provider cache with a PostgreSQL table.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wonny/volur/internal/cache"
)

// Querier is the subset of pgxpool.Pool the store uses
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Schema creates the cache table
const Schema = `
CREATE TABLE IF NOT EXISTS provider_cache (
    cache_key  TEXT PRIMARY KEY,
    payload    JSONB NOT NULL,
    stored_at  TIMESTAMPTZ NOT NULL
)`

// Store implements cache.Backend on a provider_cache table
type Store struct {
	db Querier
}

// New creates a store on db
func New(db Querier) *Store {
	return &Store{db: db}
}

var _ cache.Backend = (*Store)(nil)

// Migrate creates the table when missing
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("pgstore: migrate: %w", err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context, key string) (cache.Entry, bool, error) {
	query := `SELECT payload, stored_at FROM provider_cache WHERE cache_key = $1`

	var (
		payload  []byte
		storedAt time.Time
	)
	err := s.db.QueryRow(ctx, query, key).Scan(&payload, &storedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("pgstore: read %s: %w", key, err)
	}
	return cache.Entry{Value: payload, StoredAt: storedAt}, true, nil
}

func (s *Store) Write(ctx context.Context, key string, e cache.Entry) error {
	query := `
		INSERT INTO provider_cache (cache_key, payload, stored_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (cache_key) DO UPDATE SET
			payload = EXCLUDED.payload,
			stored_at = EXCLUDED.stored_at
	`
	if _, err := s.db.Exec(ctx, query, key, e.Value, e.StoredAt); err != nil {
		return fmt.Errorf("pgstore: write %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM provider_cache WHERE cache_key = $1`, key); err != nil {
		return fmt.Errorf("pgstore: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `TRUNCATE provider_cache`); err != nil {
		return fmt.Errorf("pgstore: clear: %w", err)
	}
	return nil
}

// Purge deletes entries stored before cutoff and returns how many were removed
func (s *Store) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM provider_cache WHERE stored_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pgstore: purge: %w", err)
	}
	return tag.RowsAffected(), nil
}
