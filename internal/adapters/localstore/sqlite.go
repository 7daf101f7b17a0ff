package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/samirrijal/pawmatch/internal/core/domain"
	"github.com/samirrijal/pawmatch/internal/core/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS storage (
	owner TEXT NOT NULL,
	key   TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (owner, key)
)`

// SQLite keeps favorites in a SQLite file as one JSON array per owner
// under the "favoriteDogIds" key.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Name identifies the backend.
func (s *SQLite) Name() string { return "sqlite" }

// Load returns owner's favorites. Unparseable data is reported as
// ports.ErrCorruptFavorites.
func (s *SQLite) Load(ctx context.Context, owner string) ([]string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM storage WHERE owner = ? AND key = ?`,
		domain.NormalizeOwner(owner), ports.FavoritesStorageKey,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read favorites: %w", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrCorruptFavorites, err)
	}
	return ids, nil
}

// Save replaces owner's favorites.
func (s *SQLite) Save(ctx context.Context, owner string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO storage (owner, key, value) VALUES (?, ?, ?)
		ON CONFLICT (owner, key) DO UPDATE SET value = excluded.value
	`, domain.NormalizeOwner(owner), ports.FavoritesStorageKey, string(data))
	if err != nil {
		return fmt.Errorf("write favorites: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
