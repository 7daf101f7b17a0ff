package valkey

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/pawmatch/internal/core/domain"
	"github.com/samirrijal/pawmatch/internal/core/ports"
)

// Favorites implements ports.FavoritesBackend with one JSON-encoded
// string key per owner.
type Favorites struct {
	client valkey.Client
	prefix string
}

// Name identifies the backend.
func (f *Favorites) Name() string { return "valkey" }

// FavoritesKey is the key owner's favorites are stored under, relative to
// the cache namespace.
func FavoritesKey(owner string) string {
	return ports.FavoritesStorageKey + ":" + domain.OwnerKey(owner)
}

// Load reads owner's favorites. A missing key is an empty list.
func (f *Favorites) Load(ctx context.Context, owner string) ([]string, error) {
	data, err := f.client.Do(ctx, f.client.B().Get().Key(f.prefix+FavoritesKey(owner)).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("valkey get favorites: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrCorruptFavorites, err)
	}
	return ids, nil
}

// Save replaces owner's favorites.
func (f *Favorites) Save(ctx context.Context, owner string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	cmd := f.client.Do(ctx, f.client.B().Set().Key(f.prefix+FavoritesKey(owner)).Value(valkey.BinaryString(data)).Build())
	if err := cmd.Error(); err != nil {
		return fmt.Errorf("valkey set favorites: %w", err)
	}
	return nil
}
