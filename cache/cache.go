// Package cache memoizes resolver output behind a content hash, so a
// cell's resolved text is recomputed only when the cell itself (or
// something it transitively depends on, through its own content hash)
// actually changes. It is purely an optimization: every lookup that
// misses or is disabled falls back to the caller recomputing from
// scratch, and the resolver's own semantics are untouched by whether a
// cache is wired in at all.
package cache

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/blake2b"

	_ "modernc.org/sqlite"
)

// Cache is a SQLite-backed store of (bank, reg, addr, contentHash) ->
// resolved text. The zero value is not usable; construct with Open.
type Cache struct {
	db *sql.DB
}

// Open creates (if needed) and opens the cache database at path. An
// empty path opens an in-memory cache, useful for tests and for
// one-shot tools that don't want a cache.db left on disk.
func Open(path string) (*Cache, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cache: open: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS resolution_cache (
	bank     INTEGER NOT NULL,
	reg      INTEGER NOT NULL,
	addr     INTEGER NOT NULL,
	hash     BLOB    NOT NULL,
	resolved TEXT    NOT NULL,
	PRIMARY KEY (bank, reg, addr, hash)
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: migrate: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// ContentHash returns the BLAKE2b-256 digest of raw, used as the
// cache key's content component so an edited cell invalidates its own
// entry without any explicit invalidation step.
func ContentHash(raw []byte) [32]byte {
	return blake2b.Sum256(raw)
}

// Lookup returns the cached resolved text for (bank, reg, addr, hash),
// if present.
func (c *Cache) Lookup(ctx context.Context, bank, reg, addr uint64, hash [32]byte) (string, bool, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT resolved FROM resolution_cache WHERE bank = ? AND reg = ? AND addr = ? AND hash = ?`,
		bank, reg, addr, hash[:])

	var resolved string
	if err := row.Scan(&resolved); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("cache: lookup: %w", err)
	}
	return resolved, true, nil
}

// Store records resolved as the result for (bank, reg, addr, hash),
// replacing any prior entry at that key (a changed hash is already a
// different key, so this only overwrites a true re-store of the same
// content).
func (c *Cache) Store(ctx context.Context, bank, reg, addr uint64, hash [32]byte, resolved string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO resolution_cache (bank, reg, addr, hash, resolved) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (bank, reg, addr, hash) DO UPDATE SET resolved = excluded.resolved`,
		bank, reg, addr, hash[:], resolved)
	if err != nil {
		return fmt.Errorf("cache: store: %w", err)
	}
	return nil
}
