package ports

import (
	"context"

	"github.com/samirrijal/pawmatch/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishFavoriteToggled(ctx context.Context, event *domain.FavoriteEvent) error
	PublishMatch(ctx context.Context, match *domain.Match) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeMatches(ctx context.Context, owner string, handler func(ctx context.Context, match *domain.Match) error) (unsubscribe func(), err error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// MatchScheduler runs a match asynchronously and returns a run handle.
type MatchScheduler interface {
	ScheduleMatch(ctx context.Context, owner, upstreamToken string) (string, error)
}
