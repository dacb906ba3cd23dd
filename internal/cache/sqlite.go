package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// sqliteSchema holds cache entries keyed by cache key.
// expires_at is UTC milliseconds; 0 means the entry never expires.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
  key        TEXT PRIMARY KEY,
  value      BLOB NOT NULL,
  expires_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at ON cache_entries (expires_at);
`

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// sqliteCache implements Cache using a local SQLite database.
// Entries survive process restarts. Expired entries are removed
// lazily when read.
type sqliteCache struct {
	db      *sql.DB
	log     zerolog.Logger
	path    string
	mu      sync.RWMutex
	closed  atomic.Bool
	hits    atomic.Uint64
	misses  atomic.Uint64
	expired atomic.Uint64
}

// Ensure sqliteCache implements the required interfaces.
var (
	_ Cache         = (*sqliteCache)(nil)
	_ StatsProvider = (*sqliteCache)(nil)
	_ Pinger        = (*sqliteCache)(nil)
)

// newSqliteCache opens (or creates) the database file and ensures the schema.
func newSqliteCache(ctx context.Context, cfg SqliteConfig) (*sqliteCache, error) {
	log := logger().With().Str("backend", "sqlite").Logger()

	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("cache: sqlite.path is required")
	}
	cleanPath := filepath.Clean(cfg.Path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Error().Err(err).Str("path", cleanPath).Msg("failed to open sqlite cache")
		return nil, fmt.Errorf("cache: open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		log.Error().Err(err).Str("path", cleanPath).Msg("failed to ping sqlite cache")
		return nil, fmt.Errorf("cache: ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		log.Error().Err(err).Str("path", cleanPath).Msg("failed to create sqlite cache schema")
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}

	log.Info().
		Str("path", cleanPath).
		Msg("sqlite cache created")

	return &sqliteCache{
		db:   db,
		log:  log,
		path: cleanPath,
	}, nil
}

// Get retrieves a value from the cache.
// Expired entries are deleted and reported as ErrNotFound.
// Returns ErrClosed if the cache has been closed.
func (s *sqliteCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.closed.Load() {
		return nil, ErrClosed
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed.Load() {
		return nil, ErrClosed
	}

	var value []byte
	var expiresAt int64
	err := s.db.QueryRowContext(
		ctx,
		`SELECT value, expires_at FROM cache_entries WHERE key = ?`,
		key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		s.misses.Add(1)
		s.log.Debug().
			Str("key", key).
			Bool("hit", false).
			Msg("cache get")
		return nil, ErrNotFound
	}
	if err != nil {
		s.log.Debug().
			Str("key", key).
			Err(err).
			Msg("cache get error")
		return nil, err
	}

	if expiresAt > 0 && expiresAt <= toMillis(time.Now()) {
		// Lazy expiry: the row stays on disk until the next read
		if _, delErr := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); delErr != nil {
			s.log.Debug().Str("key", key).Err(delErr).Msg("cache expiry delete error")
		}
		s.expired.Add(1)
		s.misses.Add(1)
		s.log.Debug().
			Str("key", key).
			Bool("hit", false).
			Bool("expired", true).
			Msg("cache get")
		return nil, ErrNotFound
	}

	s.hits.Add(1)
	s.log.Debug().
		Str("key", key).
		Bool("hit", true).
		Int("size", len(value)).
		Msg("cache get")

	return value, nil
}

// Set stores a value in the cache with no expiration.
// Returns ErrClosed if the cache has been closed.
func (s *sqliteCache) Set(ctx context.Context, key string, value []byte) error {
	return s.put(ctx, key, value, 0)
}

// SetWithTTL stores a value in the cache with a time-to-live.
// After the TTL expires, the key will no longer be retrievable.
// Returns ErrClosed if the cache has been closed.
func (s *sqliteCache) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.put(ctx, key, value, ttl)
}

// put upserts a cache entry. ttl <= 0 means no expiration.
func (s *sqliteCache) put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.closed.Load() {
		return ErrClosed
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed.Load() {
		return ErrClosed
	}

	var expiresAt int64
	if ttl > 0 {
		expiresAt = toMillis(time.Now().Add(ttl))
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key,
		value,
		expiresAt,
	)
	if err != nil {
		s.log.Debug().
			Str("key", key).
			Int("size", len(value)).
			Err(err).
			Msg("cache set error")
		return err
	}

	evt := s.log.Debug().
		Str("key", key).
		Int("size", len(value))
	if ttl > 0 {
		evt = evt.Dur("ttl", ttl)
	}
	evt.Msg("cache set")

	return nil
}

// Delete removes a key from the cache.
// Returns nil if the key does not exist (idempotent).
// Returns ErrClosed if the cache has been closed.
func (s *sqliteCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.closed.Load() {
		return ErrClosed
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed.Load() {
		return ErrClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		s.log.Debug().
			Str("key", key).
			Err(err).
			Msg("cache delete error")
		return err
	}

	s.log.Debug().
		Str("key", key).
		Msg("cache delete")

	return nil
}

// Exists checks if a key exists and has not expired.
// Returns ErrClosed if the cache has been closed.
func (s *sqliteCache) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if s.closed.Load() {
		return false, ErrClosed
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed.Load() {
		return false, ErrClosed
	}

	var expiresAt int64
	err := s.db.QueryRowContext(
		ctx,
		`SELECT expires_at FROM cache_entries WHERE key = ?`,
		key,
	).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if expiresAt > 0 && expiresAt <= toMillis(time.Now()) {
		return false, nil
	}
	return true, nil
}

// Close closes the database handle.
// After Close is called, all operations will return ErrClosed.
// Close is idempotent.
func (s *sqliteCache) Close() error {
	if s.closed.Load() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return nil
	}

	s.closed.Store(true)

	err := s.db.Close()
	if err != nil {
		s.log.Error().Err(err).Msg("sqlite cache close error")
		return err
	}

	s.log.Info().Msg("sqlite cache closed")
	return nil
}

// Stats returns current cache statistics.
// Hits, misses, and evictions count operations since the cache was opened;
// key count and bytes used reflect the database file.
func (s *sqliteCache) Stats() Stats {
	if s.closed.Load() {
		return Stats{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed.Load() {
		return Stats{}
	}

	stats := Stats{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.expired.Load(),
	}

	var keyCount, bytesUsed sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(value)), 0) FROM cache_entries`,
	).Scan(&keyCount, &bytesUsed)
	if err != nil {
		s.log.Debug().Err(err).Msg("cache stats query error")
	} else {
		stats.KeyCount = uint64(keyCount.Int64)
		stats.BytesUsed = uint64(bytesUsed.Int64)
	}

	s.log.Debug().
		Uint64("hits", stats.Hits).
		Uint64("misses", stats.Misses).
		Uint64("key_count", stats.KeyCount).
		Uint64("bytes_used", stats.BytesUsed).
		Uint64("evictions", stats.Evictions).
		Msg("cache stats")

	return stats
}

// Ping verifies the database connection is alive.
func (s *sqliteCache) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.closed.Load() {
		return ErrClosed
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed.Load() {
		return ErrClosed
	}

	if err := s.db.PingContext(ctx); err != nil {
		s.log.Debug().Err(err).Msg("cache ping: unhealthy")
		return err
	}

	s.log.Debug().Msg("cache ping: healthy")
	return nil
}
