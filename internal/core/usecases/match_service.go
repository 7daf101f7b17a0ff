package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/pawmatch/internal/core/domain"
	"github.com/samirrijal/pawmatch/internal/core/ports"
	"github.com/samirrijal/pawmatch/internal/pkg/metrics"
)

// MatchService picks an adoption match out of a user's favorites.
type MatchService struct {
	catalog   ports.DogCatalog
	favorites *FavoritesService
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewMatchService creates a new MatchService. publisher may be nil.
func NewMatchService(catalog ports.DogCatalog, favorites *FavoritesService, publisher ports.EventPublisher) *MatchService {
	return &MatchService{
		catalog:   catalog,
		favorites: favorites,
		publisher: publisher,
		now:       time.Now,
	}
}

// FavoriteDogs returns the details of owner's favorites in the order
// they were added.
func (s *MatchService) FavoriteDogs(ctx context.Context, owner string) ([]domain.Dog, error) {
	ids, err := s.favorites.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Dog{}, nil
	}
	return fetchDogs(ctx, s.catalog, ids)
}

// Candidates returns owner's favorites, failing if there are none.
func (s *MatchService) Candidates(ctx context.Context, owner string) ([]string, error) {
	ids, err := s.favorites.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, domain.InvalidArgument("add at least one favorite before asking for a match")
	}
	return ids, nil
}

// Pick asks the upstream to choose one of ids.
func (s *MatchService) Pick(ctx context.Context, ids []string) (string, error) {
	id, err := s.catalog.Match(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("match: %w", err)
	}
	if id == "" {
		return "", fmt.Errorf("match: %w", domain.ErrNotFound)
	}
	return id, nil
}

// Describe fetches the matched dog.
func (s *MatchService) Describe(ctx context.Context, id string) (*domain.Dog, error) {
	dogs, err := s.catalog.GetDogs(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("get dogs: %w", err)
	}
	if len(dogs) == 0 {
		return nil, fmt.Errorf("dog %s: %w", id, domain.ErrNotFound)
	}
	return &dogs[0], nil
}

// Announce records and publishes a match. Publishing is best effort.
func (s *MatchService) Announce(ctx context.Context, m *domain.Match) {
	metrics.MatchesMade.Inc()
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishMatch(ctx, m); err != nil {
		slog.Warn("failed to publish match",
			"owner_key", domain.OwnerKey(m.Owner),
			"dog_id", m.DogID,
			"error", err,
		)
	}
}

// Match runs the whole flow synchronously.
func (s *MatchService) Match(ctx context.Context, owner string) (*domain.Match, error) {
	owner = domain.NormalizeOwner(owner)
	ids, err := s.Candidates(ctx, owner)
	if err != nil {
		return nil, err
	}
	id, err := s.Pick(ctx, ids)
	if err != nil {
		return nil, err
	}
	dog, err := s.Describe(ctx, id)
	if err != nil {
		return nil, err
	}

	m := &domain.Match{
		DogID:     id,
		Dog:       dog,
		Owner:     owner,
		MatchedAt: s.now().UTC(),
	}
	s.Announce(ctx, m)
	return m, nil
}
