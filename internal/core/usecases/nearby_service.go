package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/pawmatch/internal/core/domain"
	"github.com/samirrijal/pawmatch/internal/core/ports"
	"github.com/samirrijal/pawmatch/internal/pkg/geospatial"
	"github.com/samirrijal/pawmatch/internal/pkg/metrics"
)

// DefaultNearbyLimit is how many locations a nearby lookup asks for.
const DefaultNearbyLimit = 100

// NearbyService resolves "pets near me" searches: a point and a diagonal
// distance become a bounding box, the box becomes ZIP codes, and the ZIP
// codes feed a dog search.
type NearbyService struct {
	catalog ports.DogCatalog
	search  *SearchService
	limit   int
}

// NewNearbyService creates a new NearbyService.
func NewNearbyService(catalog ports.DogCatalog, search *SearchService, limit int) *NearbyService {
	if limit <= 0 || limit > 10000 {
		limit = DefaultNearbyLimit
	}
	return &NearbyService{catalog: catalog, search: search, limit: limit}
}

// Bounds computes the box whose corner-to-corner diagonal is miles long.
func (s *NearbyService) Bounds(lat, lon, miles float64) (domain.BoundingBox, error) {
	box, err := geospatial.DiagonalBounds(lat, lon, miles)
	if err != nil {
		return domain.BoundingBox{}, err
	}
	metrics.BoundsComputed.Inc()
	return box, nil
}

// NearbyZipCodes lists the locations inside the box around (lat, lon).
// Upstream results that fall outside the box are dropped.
func (s *NearbyService) NearbyZipCodes(ctx context.Context, lat, lon, miles float64) (*domain.Nearby, error) {
	box, err := s.Bounds(lat, lon, miles)
	if err != nil {
		return nil, err
	}

	res, err := s.catalog.SearchLocations(ctx, domain.LocationQuery{
		GeoBoundingBox: &box,
		Size:           s.limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search locations: %w", err)
	}

	nearby := &domain.Nearby{
		Center:    domain.GeoPoint{Lat: lat, Lon: lon},
		Miles:     miles,
		Bounds:    box,
		ZipCodes:  []string{},
		Locations: make([]domain.Location, 0, len(res.Results)),
	}
	seen := make(map[string]struct{}, len(res.Results))
	for _, loc := range res.Results {
		if !geospatial.Contains(box, loc.Point()) {
			continue
		}
		nearby.Locations = append(nearby.Locations, loc)
		if _, ok := seen[loc.ZipCode]; ok {
			continue
		}
		seen[loc.ZipCode] = struct{}{}
		nearby.ZipCodes = append(nearby.ZipCodes, loc.ZipCode)
	}
	return nearby, nil
}

// SearchNearby adds the ZIP codes near (lat, lon) to q and runs it. When no
// location falls inside the box the page is empty and no dog search is
// made.
func (s *NearbyService) SearchNearby(ctx context.Context, lat, lon, miles float64, q domain.SearchQuery) (*domain.SearchPage, *domain.Nearby, error) {
	nearby, err := s.NearbyZipCodes(ctx, lat, lon, miles)
	if err != nil {
		return nil, nil, err
	}
	if len(nearby.ZipCodes) == 0 {
		q, err := NormalizeQuery(q)
		if err != nil {
			return nil, nil, err
		}
		return &domain.SearchPage{
			Dogs: []domain.DogWithLocation{},
			Page: domain.NewPageInfo(q.From, q.Size, 0),
		}, nearby, nil
	}

	q.ZipCodes = append(append([]string{}, q.ZipCodes...), nearby.ZipCodes...)
	page, err := s.search.Search(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	return page, nearby, nil
}
