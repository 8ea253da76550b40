// Package cache provides a remember-style TTL key-value cache backed by a
// local SQLite database. It keeps repeated upstream metadata lookups (genre
// list, per-movie credits) off the network for the configured TTL.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (or creates) the cache database at path and applies pending
// schema migrations.
func New(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// Single writer; avoids SQLITE_BUSY under concurrent chunk advances.
	db.SetMaxOpenConns(1)

	if _, _, err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{db: db, now: time.Now}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached value for key, reporting false when the key is
// absent or expired.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt int64

	err := c.db.QueryRow(`
		SELECT value, expires_at FROM cache_entries WHERE key = ?
	`, key).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if expiresAt < c.now().Unix() {
		return nil, false, nil
	}

	return value, true, nil
}

// Put stores a value under key with the given TTL, replacing any previous
// entry.
func (c *Cache) Put(key string, value []byte, ttl time.Duration) error {
	expiresAt := c.now().Add(ttl).Unix()

	_, err := c.db.Exec(`
		INSERT INTO cache_entries (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	return nil
}

// Remember returns the cached value for key or, when absent or expired, runs
// produce and caches its result. A produce failure is returned as-is and
// nothing is cached.
func (c *Cache) Remember(key string, ttl time.Duration, produce func() ([]byte, error)) ([]byte, error) {
	if value, ok, err := c.Get(key); err != nil {
		return nil, err
	} else if ok {
		return value, nil
	}

	value, err := produce()
	if err != nil {
		return nil, err
	}

	if err := c.Put(key, value, ttl); err != nil {
		return nil, err
	}

	return value, nil
}

// Prune removes expired entries. Called opportunistically; the cache stays
// correct without it since Get checks expiry.
func (c *Cache) Prune() (int64, error) {
	res, err := c.db.Exec(`DELETE FROM cache_entries WHERE expires_at < ?`, c.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return res.RowsAffected()
}
