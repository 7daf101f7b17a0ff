package localstore

import (
	"context"

	"github.com/samirrijal/pawmatch/internal/core/ports"
)

// WriteRaw stores value verbatim so tests can plant unreadable data.
func WriteRaw(ctx context.Context, s *SQLite, owner, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO storage (owner, key, value) VALUES (?, ?, ?)`,
		owner, ports.FavoritesStorageKey, value)
	return err
}
