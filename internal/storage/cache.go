package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matsen/papermeta/internal/reference"
)

// Lookup kinds stored in the cache.
const (
	LookupDOI   = "doi"
	LookupTitle = "title"
)

// DefaultCacheTTL is how long a cached lookup stays valid.
const DefaultCacheTTL = 30 * 24 * time.Hour

// LookupCache memoizes successful registry lookups keyed by their input.
// Lookups are pure functions of the DOI or title, so entries only expire
// to pick up upstream corrections.
type LookupCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenCache opens or creates a lookup cache database at the given path.
// A non-positive ttl uses DefaultCacheTTL.
func OpenCache(path string, ttl time.Duration) (*LookupCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS lookups (
			kind TEXT NOT NULL,
			lookup_key TEXT NOT NULL,
			metadata_json TEXT NOT NULL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (kind, lookup_key)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &LookupCache{db: db, ttl: ttl, now: time.Now}, nil
}

// Close closes the cache database.
func (c *LookupCache) Close() error {
	return c.db.Close()
}

// cacheKey folds case and whitespace so equivalent inputs share an entry.
func cacheKey(key string) string {
	return strings.ToLower(strings.Join(strings.Fields(key), " "))
}

// Get returns a cached lookup result that has not expired.
func (c *LookupCache) Get(ctx context.Context, kind, key string) (reference.Metadata, bool, error) {
	var raw string
	var fetchedAt int64
	err := c.db.QueryRowContext(ctx, `
		SELECT metadata_json, fetched_at FROM lookups
		WHERE kind = ? AND lookup_key = ?
	`, kind, cacheKey(key)).Scan(&raw, &fetchedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return reference.Metadata{}, false, nil
		}
		return reference.Metadata{}, false, fmt.Errorf("reading cache: %w", err)
	}

	if c.now().Sub(time.Unix(fetchedAt, 0)) > c.ttl {
		return reference.Metadata{}, false, nil
	}

	var m reference.Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return reference.Metadata{}, false, fmt.Errorf("decoding cached %s %q: %w", kind, key, err)
	}
	return m, true, nil
}

// Put stores a lookup result, replacing any previous entry.
func (c *LookupCache) Put(ctx context.Context, kind, key string, m reference.Metadata) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO lookups (kind, lookup_key, metadata_json, fetched_at)
		VALUES (?, ?, ?, ?)
	`, kind, cacheKey(key), string(data), c.now().Unix())
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Clear removes every cached lookup and returns how many were removed.
func (c *LookupCache) Clear(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx, "DELETE FROM lookups")
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
