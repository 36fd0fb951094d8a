package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/syssam/helix"
)

// SQLite is a Cache backed by a single-table SQLite database, for caches
// shared across process restarts. Expired rows are swept lazily on reads
// and writes.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS cache_entries_expiry ON cache_entries (expires_at);
`

// NewSQLite opens (and if needed creates) the cache database at path.
// Use ":memory:" for an in-memory database.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	// modernc.org/sqlite serializes access per connection; one connection
	// avoids table-lock errors under concurrent writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

// Close releases the underlying database handle.
func (c *SQLite) Close() error { return c.db.Close() }

// Get implements helix.Cache.
func (c *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	now := c.now().UnixMilli()
	var value []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT value FROM cache_entries WHERE key = ? AND (expires_at = 0 OR expires_at > ?)`,
		key, now,
	).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		c.sweep(ctx, now)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("cache: get %s: %w", key, err)
	}
	return value, nil
}

// Set implements helix.Cache.
func (c *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := c.now()
	var expires int64
	if ttl > 0 {
		expires = now.Add(ttl).UnixMilli()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, expires_at, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value,
		   expires_at = excluded.expires_at, created_at = excluded.created_at`,
		key, value, expires, now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	c.sweep(ctx, now.UnixMilli())
	return nil
}

// Delete implements helix.Cache.
func (c *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("cache: delete %s: %w", key, err)
	}
	return nil
}

// DeletePrefix implements helix.Cache.
func (c *SQLite) DeletePrefix(ctx context.Context, prefix string) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE key >= ? AND key < ?`,
		prefix, prefix+"￿",
	)
	if err != nil {
		return fmt.Errorf("cache: delete prefix %s: %w", prefix, err)
	}
	return nil
}

// Clear implements helix.Cache.
func (c *SQLite) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("cache: clear: %w", err)
	}
	return nil
}

// Len returns the number of unexpired rows.
func (c *SQLite) Len(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cache_entries WHERE expires_at = 0 OR expires_at > ?`,
		c.now().UnixMilli(),
	).Scan(&n)
	return n, err
}

// sweep removes expired rows. Failures are ignored; the rows stay
// invisible to Get either way.
func (c *SQLite) sweep(ctx context.Context, now int64) {
	_, _ = c.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at != 0 AND expires_at <= ?`, now)
}

var _ helix.Cache = (*SQLite)(nil)
