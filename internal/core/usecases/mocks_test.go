package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/pawmatch/internal/core/domain"
)

// --- Mock DogCatalog ---

type mockCatalog struct {
	loginFn           func(ctx context.Context, name, email string) (string, error)
	logoutFn          func(ctx context.Context) error
	breedsFn          func(ctx context.Context) ([]string, error)
	searchDogsFn      func(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error)
	getDogsFn         func(ctx context.Context, ids []string) ([]domain.Dog, error)
	matchFn           func(ctx context.Context, ids []string) (string, error)
	getLocationsFn    func(ctx context.Context, zips []string) ([]domain.Location, error)
	searchLocationsFn func(ctx context.Context, q domain.LocationQuery) (*domain.LocationResult, error)

	mu    sync.Mutex
	calls map[string]int
}

func (m *mockCatalog) count(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

func (m *mockCatalog) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockCatalog) Login(ctx context.Context, name, email string) (string, error) {
	m.count("Login")
	if m.loginFn != nil {
		return m.loginFn(ctx, name, email)
	}
	return "upstream-token", nil
}

func (m *mockCatalog) Logout(ctx context.Context) error {
	m.count("Logout")
	if m.logoutFn != nil {
		return m.logoutFn(ctx)
	}
	return nil
}

func (m *mockCatalog) Breeds(ctx context.Context) ([]string, error) {
	m.count("Breeds")
	if m.breedsFn != nil {
		return m.breedsFn(ctx)
	}
	return nil, nil
}

func (m *mockCatalog) SearchDogs(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error) {
	m.count("SearchDogs")
	if m.searchDogsFn != nil {
		return m.searchDogsFn(ctx, q)
	}
	return &domain.SearchResult{}, nil
}

func (m *mockCatalog) GetDogs(ctx context.Context, ids []string) ([]domain.Dog, error) {
	m.count("GetDogs")
	if m.getDogsFn != nil {
		return m.getDogsFn(ctx, ids)
	}
	return nil, nil
}

func (m *mockCatalog) Match(ctx context.Context, ids []string) (string, error) {
	m.count("Match")
	if m.matchFn != nil {
		return m.matchFn(ctx, ids)
	}
	return "", nil
}

func (m *mockCatalog) GetLocations(ctx context.Context, zips []string) ([]domain.Location, error) {
	m.count("GetLocations")
	if m.getLocationsFn != nil {
		return m.getLocationsFn(ctx, zips)
	}
	return nil, nil
}

func (m *mockCatalog) SearchLocations(ctx context.Context, q domain.LocationQuery) (*domain.LocationResult, error) {
	m.count("SearchLocations")
	if m.searchLocationsFn != nil {
		return m.searchLocationsFn(ctx, q)
	}
	return &domain.LocationResult{}, nil
}

// --- Mock FavoritesBackend ---

type mockBackend struct {
	loadFn func(ctx context.Context, owner string) ([]string, error)
	saveFn func(ctx context.Context, owner string, ids []string) error

	mu    sync.Mutex
	saved map[string][]string
	loads int
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Load(ctx context.Context, owner string) ([]string, error) {
	m.mu.Lock()
	m.loads++
	m.mu.Unlock()
	if m.loadFn != nil {
		return m.loadFn(ctx, owner)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.saved[owner]...), nil
}

func (m *mockBackend) Save(ctx context.Context, owner string, ids []string) error {
	if m.saveFn != nil {
		if err := m.saveFn(ctx, owner, ids); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = make(map[string][]string)
	}
	m.saved[owner] = append([]string(nil), ids...)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu        sync.Mutex
	favorites []*domain.FavoriteEvent
	matches   []*domain.Match
	err       error
}

func (m *mockPublisher) PublishFavoriteToggled(ctx context.Context, e *domain.FavoriteEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.favorites = append(m.favorites, e)
	return m.err
}

func (m *mockPublisher) PublishMatch(ctx context.Context, match *domain.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches = append(m.matches, match)
	return m.err
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
