package workflows

import (
	"context"
	"errors"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/pawmatch/internal/adapters/dogapi"
	"github.com/samirrijal/pawmatch/internal/core/domain"
	"github.com/samirrijal/pawmatch/internal/core/usecases"
)

// Error types that are never retried.
const (
	ErrTypeInvalidArgument = "InvalidArgument"
	ErrTypeUnauthorized    = "Unauthorized"
)

// MatchActivities holds the activity implementations for the match workflow.
type MatchActivities struct {
	Matches *usecases.MatchService
}

// LoadFavorites returns the owner's favorite dog IDs.
func (a *MatchActivities) LoadFavorites(ctx context.Context, owner string) ([]string, error) {
	ids, err := a.Matches.Candidates(ctx, owner)
	return ids, classify(err)
}

// RequestMatch asks the upstream to pick one of ids.
func (a *MatchActivities) RequestMatch(ctx context.Context, token string, ids []string) (string, error) {
	id, err := a.Matches.Pick(dogapi.WithToken(ctx, token), ids)
	return id, classify(err)
}

// FetchDog returns the matched dog.
func (a *MatchActivities) FetchDog(ctx context.Context, token, id string) (*domain.Dog, error) {
	dog, err := a.Matches.Describe(dogapi.WithToken(ctx, token), id)
	return dog, classify(err)
}

// AnnounceMatch counts and publishes the match.
func (a *MatchActivities) AnnounceMatch(ctx context.Context, match domain.Match) error {
	a.Matches.Announce(ctx, &match)
	return nil
}

// classify marks errors no retry can fix.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidArgument, err)
	case errors.Is(err, domain.ErrUnauthorized):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeUnauthorized, err)
	default:
		return err
	}
}
