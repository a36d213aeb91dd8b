// Package store persists catalog items in SQLite keyed on their stable
// content ID. Upsert-by-id makes replays of the same playlist import
// idempotent: re-importing an unchanged source rewrites rows in place
// instead of duplicating them.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/streamcat/stream-catalog/internal/catalog"
)

const schema = `
CREATE TABLE IF NOT EXISTS catalog_items (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	full_name   TEXT NOT NULL,
	logo_url    TEXT NOT NULL DEFAULT '',
	group_title TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL,
	season      INTEGER NOT NULL DEFAULT 0,
	episode     INTEGER NOT NULL DEFAULT 0,
	stream_url  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_catalog_items_type ON catalog_items(type);
CREATE INDEX IF NOT EXISTS idx_catalog_items_name ON catalog_items(name);
`

// Store wraps the SQLite catalog database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertItems inserts or replaces items keyed on id, in one transaction.
// Safe to call repeatedly with the same batch.
func (s *Store) UpsertItems(ctx context.Context, items []catalog.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store upsert: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO catalog_items (id, name, full_name, logo_url, group_title, type, season, episode, stream_url, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	full_name = excluded.full_name,
	logo_url = excluded.logo_url,
	group_title = excluded.group_title,
	type = excluded.type,
	season = excluded.season,
	episode = excluded.episode,
	stream_url = excluded.stream_url,
	updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("store upsert: prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, it := range items {
		if _, err := stmt.ExecContext(ctx, it.ID, it.Name, it.FullName, it.LogoURL,
			it.GroupTitle, string(it.Type), it.Season, it.Episode, it.StreamURL, now); err != nil {
			return fmt.Errorf("store upsert %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

// ItemsByType returns all items of one content type ordered by name.
func (s *Store) ItemsByType(ctx context.Context, typ catalog.Type) ([]catalog.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, full_name, logo_url, group_title, type, season, episode, stream_url
FROM catalog_items WHERE type = ? ORDER BY name, season, episode`, string(typ))
	if err != nil {
		return nil, fmt.Errorf("store query type %s: %w", typ, err)
	}
	defer rows.Close()

	var out []catalog.Item
	for rows.Next() {
		var it catalog.Item
		var t string
		if err := rows.Scan(&it.ID, &it.Name, &it.FullName, &it.LogoURL,
			&it.GroupTitle, &t, &it.Season, &it.Episode, &it.StreamURL); err != nil {
			return nil, fmt.Errorf("store scan: %w", err)
		}
		it.Type = catalog.Type(t)
		out = append(out, it)
	}
	return out, rows.Err()
}

// Count returns the number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog_items`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store count: %w", err)
	}
	return n, nil
}
