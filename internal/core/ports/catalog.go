package ports

import (
	"context"

	"github.com/samirrijal/pawmatch/internal/core/domain"
)

// DogCatalog is the dog adoption API the service fronts. Calls other than
// Login expect the caller's upstream token in the context.
type DogCatalog interface {
	// Login starts an upstream session and returns its access token.
	Login(ctx context.Context, name, email string) (string, error)
	Logout(ctx context.Context) error
	Breeds(ctx context.Context) ([]string, error)
	SearchDogs(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error)
	// GetDogs accepts at most 100 IDs.
	GetDogs(ctx context.Context, ids []string) ([]domain.Dog, error)
	// Match picks one ID out of ids.
	Match(ctx context.Context, ids []string) (string, error)
	// GetLocations accepts at most 100 ZIP codes; unknown codes are omitted.
	GetLocations(ctx context.Context, zipCodes []string) ([]domain.Location, error)
	SearchLocations(ctx context.Context, q domain.LocationQuery) (*domain.LocationResult, error)
}
