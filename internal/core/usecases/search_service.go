package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/pawmatch/internal/core/domain"
	"github.com/samirrijal/pawmatch/internal/core/ports"
)

const (
	// MaxBatch is the most IDs or ZIP codes the upstream accepts per lookup.
	MaxBatch = 100
	// MaxSearchSize caps a single search page.
	MaxSearchSize = 100

	breedsCacheKey = "dogs:breeds"
	breedsCacheTTL = 3600
)

// SearchService runs dog searches and joins results to dog details and
// locations.
type SearchService struct {
	catalog ports.DogCatalog
	cache   ports.CacheService
}

// NewSearchService creates a new SearchService. cache may be nil.
func NewSearchService(catalog ports.DogCatalog, cache ports.CacheService) *SearchService {
	return &SearchService{catalog: catalog, cache: cache}
}

// Breeds returns every known breed, served from cache for an hour.
func (s *SearchService) Breeds(ctx context.Context) ([]string, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, breedsCacheKey); err == nil {
			var breeds []string
			if err := json.Unmarshal(data, &breeds); err == nil {
				return breeds, nil
			}
		}
	}

	breeds, err := s.catalog.Breeds(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(breeds); err == nil {
			_ = s.cache.Set(ctx, breedsCacheKey, data, breedsCacheTTL)
		}
	}
	return breeds, nil
}

// NormalizeQuery applies defaults and rejects impossible filters.
func NormalizeQuery(q domain.SearchQuery) (domain.SearchQuery, error) {
	if q.Size <= 0 {
		q.Size = domain.PageSize
	}
	if q.Size > MaxSearchSize {
		q.Size = MaxSearchSize
	}
	if q.From < 0 {
		return q, domain.InvalidArgument("from must not be negative")
	}
	if q.Sort.IsZero() {
		q.Sort = domain.DefaultSort
	} else if err := q.Sort.Validate(); err != nil {
		return q, err
	}
	if q.AgeMin != nil && *q.AgeMin < 0 {
		return q, domain.InvalidArgument("ageMin must not be negative")
	}
	if q.AgeMax != nil && *q.AgeMax < 0 {
		return q, domain.InvalidArgument("ageMax must not be negative")
	}
	if q.AgeMin != nil && q.AgeMax != nil && *q.AgeMin > *q.AgeMax {
		return q, domain.InvalidArgument("ageMin %d is greater than ageMax %d", *q.AgeMin, *q.AgeMax)
	}

	q.Breeds = dedupe(q.Breeds)
	zips := make([]string, 0, len(q.ZipCodes))
	for _, raw := range q.ZipCodes {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		zip, err := domain.ValidateZipCode(raw)
		if err != nil {
			return q, err
		}
		zips = append(zips, zip)
	}
	q.ZipCodes = dedupe(zips)
	return q, nil
}

// Search runs q and returns the page of dogs with their locations.
func (s *SearchService) Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchPage, error) {
	q, err := NormalizeQuery(q)
	if err != nil {
		return nil, err
	}

	res, err := s.catalog.SearchDogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search dogs: %w", err)
	}

	page := &domain.SearchPage{
		Dogs:  []domain.DogWithLocation{},
		Total: res.Total,
		Next:  res.Next,
		Prev:  res.Prev,
		Page:  domain.NewPageInfo(q.From, q.Size, res.Total),
	}
	if len(res.ResultIDs) == 0 {
		return page, nil
	}

	dogs, err := s.Dogs(ctx, res.ResultIDs)
	if err != nil {
		return nil, err
	}
	page.Dogs, err = s.WithLocations(ctx, dogs)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Dogs fetches dog details in batches, preserving the order of ids.
func (s *SearchService) Dogs(ctx context.Context, ids []string) ([]domain.Dog, error) {
	return fetchDogs(ctx, s.catalog, ids)
}

// WithLocations joins each dog to the location of its ZIP code. Location
// batches are fetched concurrently.
func (s *SearchService) WithLocations(ctx context.Context, dogs []domain.Dog) ([]domain.DogWithLocation, error) {
	zips := make([]string, 0, len(dogs))
	for _, d := range dogs {
		zips = append(zips, d.ZipCode)
	}
	locations, err := s.Locations(ctx, zips)
	if err != nil {
		return nil, err
	}

	byZip := make(map[string]*domain.Location, len(locations))
	for i := range locations {
		byZip[locations[i].ZipCode] = &locations[i]
	}
	out := make([]domain.DogWithLocation, 0, len(dogs))
	for _, d := range dogs {
		out = append(out, domain.DogWithLocation{Dog: d, Location: byZip[d.ZipCode]})
	}
	return out, nil
}

// Locations looks up ZIP codes in concurrent batches of MaxBatch.
func (s *SearchService) Locations(ctx context.Context, zipCodes []string) ([]domain.Location, error) {
	batches := Chunk(dedupe(zipCodes), MaxBatch)
	if len(batches) == 0 {
		return []domain.Location{}, nil
	}

	results := make([][]domain.Location, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		g.Go(func() error {
			locs, err := s.catalog.GetLocations(gctx, batch)
			if err != nil {
				return fmt.Errorf("get locations: %w", err)
			}
			results[i] = locs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.Location
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func fetchDogs(ctx context.Context, catalog ports.DogCatalog, ids []string) ([]domain.Dog, error) {
	batches := Chunk(ids, MaxBatch)
	results := make([][]domain.Dog, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		g.Go(func() error {
			dogs, err := catalog.GetDogs(gctx, batch)
			if err != nil {
				return fmt.Errorf("get dogs: %w", err)
			}
			results[i] = dogs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Dog, len(ids))
	for _, batch := range results {
		for _, d := range batch {
			byID[d.ID] = d
		}
	}
	out := make([]domain.Dog, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
