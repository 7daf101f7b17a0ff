package workflows

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/pawmatch/internal/core/domain"
)

// Scheduler implements ports.MatchScheduler by starting MatchWorkflow.
type Scheduler struct {
	client    client.Client
	taskQueue string
}

// NewScheduler creates a Scheduler on taskQueue (TaskQueue if empty).
func NewScheduler(c client.Client, taskQueue string) *Scheduler {
	if taskQueue == "" {
		taskQueue = TaskQueue
	}
	return &Scheduler{client: c, taskQueue: taskQueue}
}

// ScheduleMatch starts a match run and returns its workflow ID.
func (s *Scheduler) ScheduleMatch(ctx context.Context, owner, upstreamToken string) (string, error) {
	owner = domain.NormalizeOwner(owner)
	opts := client.StartWorkflowOptions{
		ID:        "match-" + domain.OwnerKey(owner) + "-" + uuid.NewString(),
		TaskQueue: s.taskQueue,
	}
	run, err := s.client.ExecuteWorkflow(ctx, opts, MatchWorkflow, MatchInput{
		Owner:         owner,
		UpstreamToken: upstreamToken,
	})
	if err != nil {
		return "", fmt.Errorf("start match workflow: %w", err)
	}
	return run.GetID(), nil
}
