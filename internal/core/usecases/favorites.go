package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samirrijal/pawmatch/internal/core/domain"
	"github.com/samirrijal/pawmatch/internal/core/ports"
	"github.com/samirrijal/pawmatch/internal/pkg/metrics"
)

// Listener receives a snapshot of a favorites set after every change.
// The slice is the listener's own copy.
type Listener func(ids []string)

type listenerEntry struct {
	id int
	fn Listener
}

// FavoriteSet is one owner's ordered set of favorite dog IDs. It loads
// from the backend on first use and writes through on every toggle.
type FavoriteSet struct {
	owner     string
	backend   ports.FavoritesBackend
	publisher ports.EventPublisher
	now       func() time.Time

	mu        sync.Mutex
	ids       []string
	loaded    bool
	listeners []listenerEntry
	nextID    int

	// notifyMu serializes listener delivery so every listener sees
	// snapshots in commit order. It is taken before mu is released.
	notifyMu sync.Mutex
}

func newFavoriteSet(owner string, backend ports.FavoritesBackend, publisher ports.EventPublisher) *FavoriteSet {
	return &FavoriteSet{
		owner:     owner,
		backend:   backend,
		publisher: publisher,
		now:       time.Now,
	}
}

// Owner returns the normalized owner the set belongs to.
func (s *FavoriteSet) Owner() string { return s.owner }

// hydrate must be called with mu held.
func (s *FavoriteSet) hydrate(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	ids, err := s.backend.Load(ctx, s.owner)
	switch {
	case errors.Is(err, ports.ErrCorruptFavorites):
		slog.Warn("discarding unreadable favorites",
			"owner_key", domain.OwnerKey(s.owner),
			"backend", s.backend.Name(),
			"error", err,
		)
		ids = nil
	case err != nil:
		return fmt.Errorf("load favorites: %w", err)
	}
	s.ids = dedupe(ids)
	s.loaded = true
	return nil
}

// Get returns a copy of the current IDs in insertion order.
func (s *FavoriteSet) Get(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrate(ctx); err != nil {
		return nil, err
	}
	return clone(s.ids), nil
}

// Has reports whether id is a favorite.
func (s *FavoriteSet) Has(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrate(ctx); err != nil {
		return false, err
	}
	return indexOf(s.ids, id) >= 0, nil
}

// Toggle adds id if absent or removes it if present, persists the new
// list and then notifies listeners. If the backend rejects the write the
// set is left unchanged, nobody is notified and the error is returned.
// It reports whether id is a favorite afterwards.
func (s *FavoriteSet) Toggle(ctx context.Context, id string) (bool, error) {
	added, _, err := s.toggle(ctx, id)
	return added, err
}

// toggle also returns the list it committed.
func (s *FavoriteSet) toggle(ctx context.Context, id string) (bool, []string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, nil, domain.InvalidArgument("dog id must not be empty")
	}

	s.mu.Lock()
	if err := s.hydrate(ctx); err != nil {
		s.mu.Unlock()
		return false, nil, err
	}

	next, added := toggled(s.ids, id)
	if err := s.backend.Save(ctx, s.owner, next); err != nil {
		s.mu.Unlock()
		metrics.FavoritePersistErrors.WithLabelValues(s.backend.Name()).Inc()
		return false, nil, fmt.Errorf("persist favorites: %w", err)
	}
	s.ids = next
	listeners := make([]listenerEntry, len(s.listeners))
	copy(listeners, s.listeners)

	s.notifyMu.Lock()
	s.mu.Unlock()
	for _, l := range listeners {
		l.fn(clone(next))
	}
	s.notifyMu.Unlock()

	action := "removed"
	if added {
		action = "added"
	}
	metrics.FavoriteToggles.WithLabelValues(action).Inc()

	if s.publisher != nil {
		event := &domain.FavoriteEvent{
			Owner: s.owner,
			DogID: id,
			Added: added,
			IDs:   clone(next),
			Time:  s.now().UTC(),
		}
		if err := s.publisher.PublishFavoriteToggled(ctx, event); err != nil {
			slog.Warn("failed to publish favorite event",
				"owner_key", domain.OwnerKey(s.owner),
				"dog_id", id,
				"error", err,
			)
		}
	}
	return added, clone(next), nil
}

// Subscribe registers fn for change notifications. Listeners run
// synchronously in subscription order and must not call Toggle. The
// returned function unsubscribes and is safe to call more than once.
func (s *FavoriteSet) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// FavoritesService hands out one FavoriteSet per owner so every caller
// working on the same owner shares state and listeners.
type FavoritesService struct {
	backend   ports.FavoritesBackend
	publisher ports.EventPublisher

	mu   sync.Mutex
	sets map[string]*FavoriteSet
}

// NewFavoritesService creates a new FavoritesService. publisher may be nil.
func NewFavoritesService(backend ports.FavoritesBackend, publisher ports.EventPublisher) *FavoritesService {
	return &FavoritesService{
		backend:   backend,
		publisher: publisher,
		sets:      make(map[string]*FavoriteSet),
	}
}

// For returns the set of owner, creating it on first use.
func (s *FavoritesService) For(owner string) (*FavoriteSet, error) {
	owner = domain.NormalizeOwner(owner)
	if owner == "" {
		return nil, domain.InvalidArgument("owner must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[owner]
	if !ok {
		set = newFavoriteSet(owner, s.backend, s.publisher)
		s.sets[owner] = set
	}
	return set, nil
}

// List returns owner's favorite IDs.
func (s *FavoritesService) List(ctx context.Context, owner string) ([]string, error) {
	set, err := s.For(owner)
	if err != nil {
		return nil, err
	}
	return set.Get(ctx)
}

// Toggle flips id in owner's favorites and returns the list that toggle
// committed.
func (s *FavoritesService) Toggle(ctx context.Context, owner, id string) (bool, []string, error) {
	set, err := s.For(owner)
	if err != nil {
		return false, nil, err
	}
	return set.toggle(ctx, id)
}

func toggled(ids []string, id string) ([]string, bool) {
	if i := indexOf(ids, id); i >= 0 {
		next := make([]string, 0, len(ids)-1)
		next = append(next, ids[:i]...)
		return append(next, ids[i+1:]...), false
	}
	next := make([]string, 0, len(ids)+1)
	next = append(next, ids...)
	return append(next, id), true
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func clone(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// dedupe drops blanks and repeats, keeping the first occurrence.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
