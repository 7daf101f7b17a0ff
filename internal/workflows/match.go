package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/pawmatch/internal/core/domain"
)

// TaskQueue is the queue the matcher worker polls.
const TaskQueue = "match-queue"

// MatchInput is the input for the match workflow.
type MatchInput struct {
	Owner         string
	UpstreamToken string
}

// MatchWorkflow loads the owner's favorites, asks the upstream for a
// match, fetches the matched dog and announces it. A match without its
// dog details is still announced.
func MatchWorkflow(ctx workflow.Context, input MatchInput) (*domain.Match, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting match workflow", "ownerKey", domain.OwnerKey(input.Owner))

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrTypeInvalidArgument, ErrTypeUnauthorized},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Load favorites
	var ids []string
	if err := workflow.ExecuteActivity(ctx, "LoadFavorites", input.Owner).Get(ctx, &ids); err != nil {
		return nil, err
	}

	// Step 2: Ask the upstream to pick one
	var dogID string
	if err := workflow.ExecuteActivity(ctx, "RequestMatch", input.UpstreamToken, ids).Get(ctx, &dogID); err != nil {
		return nil, err
	}

	match := &domain.Match{
		DogID:     dogID,
		Owner:     domain.NormalizeOwner(input.Owner),
		MatchedAt: workflow.Now(ctx).UTC(),
	}

	// Step 3: Fetch details
	var dog domain.Dog
	if err := workflow.ExecuteActivity(ctx, "FetchDog", input.UpstreamToken, dogID).Get(ctx, &dog); err != nil {
		logger.Warn("fetching matched dog failed, announcing without details", "error", err)
	} else {
		match.Dog = &dog
	}

	// Step 4: Announce
	if err := workflow.ExecuteActivity(ctx, "AnnounceMatch", *match).Get(ctx, nil); err != nil {
		return nil, err
	}

	logger.Info("Match announced", "dogID", dogID)
	return match, nil
}
