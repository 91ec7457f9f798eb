// Package sqlite persists the durable answer cache in a SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/poiesic/verbatim/cache"
	"github.com/poiesic/verbatim/core"
)

const createEntriesTable = `
CREATE TABLE IF NOT EXISTS answer_cache (
	key TEXT NOT NULL PRIMARY KEY,
	response TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	last_accessed INTEGER NOT NULL,
	hit_count INTEGER NOT NULL DEFAULT 0
);
`

// Store implements cache.Store on a SQLite database.
type Store struct {
	db *sql.DB
}

var _ cache.Store = (*Store)(nil)

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(createEntriesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Store{db: db}, nil
}

// Load reads every entry.
func (s *Store) Load(ctx context.Context) (map[string]core.CacheEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, response, created_at, last_accessed, hit_count FROM answer_cache`)
	if err != nil {
		return nil, fmt.Errorf("cache load: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]core.CacheEntry)
	for rows.Next() {
		var (
			e               core.CacheEntry
			created, access int64
		)
		if err := rows.Scan(&e.Key, &e.Response, &created, &access, &e.HitCount); err != nil {
			return nil, fmt.Errorf("cache load: %w", err)
		}
		e.CreatedAt = time.UnixMicro(created).UTC()
		e.LastAccessed = time.UnixMicro(access).UTC()
		entries[e.Key] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache load: %w", err)
	}
	return entries, nil
}

// Save replaces the stored snapshot with entries in one transaction.
func (s *Store) Save(ctx context.Context, entries map[string]core.CacheEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM answer_cache`); err != nil {
		return fmt.Errorf("cache save: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO answer_cache (key, response, created_at, last_accessed, hit_count)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("cache save: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err := stmt.ExecContext(ctx, e.Key, e.Response, e.CreatedAt.UnixMicro(), e.LastAccessed.UnixMicro(), e.HitCount)
		if err != nil {
			return fmt.Errorf("cache save %q: %w", e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cache save: %w", err)
	}
	return nil
}

// Clear removes every stored entry.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM answer_cache`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
