package ports

import (
	"context"
	"errors"
)

// FavoritesStorageKey names the favorites entry in every backend.
const FavoritesStorageKey = "favoriteDogIds"

// ErrCorruptFavorites is returned by Load when the stored value cannot be
// decoded. Callers treat it as an empty list.
var ErrCorruptFavorites = errors.New("corrupt favorites data")

// FavoritesBackend persists one ordered favorites list per owner.
type FavoritesBackend interface {
	// Load returns the stored IDs, or an empty slice if nothing was stored.
	Load(ctx context.Context, owner string) ([]string, error)
	// Save replaces the stored IDs.
	Save(ctx context.Context, owner string, ids []string) error
	// Name identifies the backend in logs and metrics.
	Name() string
}
