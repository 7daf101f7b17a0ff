package workflows

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/pawmatch/internal/core/domain"
)

func newEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(MatchWorkflow)
	env.RegisterActivity(&MatchActivities{})
	return env
}

func TestMatchWorkflow_Success(t *testing.T) {
	env := newEnv(t)
	env.OnActivity("LoadFavorites", mock.Anything, "alice@example.com").Return([]string{"d1", "d2"}, nil)
	env.OnActivity("RequestMatch", mock.Anything, "tok", []string{"d1", "d2"}).Return("d2", nil)
	env.OnActivity("FetchDog", mock.Anything, "tok", "d2").Return(&domain.Dog{ID: "d2", Name: "Fido"}, nil)
	env.OnActivity("AnnounceMatch", mock.Anything, mock.Anything).Return(nil).Once()

	env.ExecuteWorkflow(MatchWorkflow, MatchInput{Owner: "Alice@Example.com", UpstreamToken: "tok"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var m domain.Match
	require.NoError(t, env.GetWorkflowResult(&m))
	require.Equal(t, "d2", m.DogID)
	require.NotNil(t, m.Dog)
	require.Equal(t, "Fido", m.Dog.Name)
	env.AssertExpectations(t)
}

func TestMatchWorkflow_AnnouncesWithoutDetails(t *testing.T) {
	env := newEnv(t)
	env.OnActivity("LoadFavorites", mock.Anything, mock.Anything).Return([]string{"d1"}, nil)
	env.OnActivity("RequestMatch", mock.Anything, mock.Anything, mock.Anything).Return("d1", nil)
	env.OnActivity("FetchDog", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, temporal.NewNonRetryableApplicationError("gone", ErrTypeInvalidArgument, nil))
	env.OnActivity("AnnounceMatch", mock.Anything, mock.Anything).Return(nil).Once()

	env.ExecuteWorkflow(MatchWorkflow, MatchInput{Owner: "a@example.com", UpstreamToken: "tok"})

	require.NoError(t, env.GetWorkflowError())
	var m domain.Match
	require.NoError(t, env.GetWorkflowResult(&m))
	require.Equal(t, "d1", m.DogID)
	require.Nil(t, m.Dog)
	env.AssertExpectations(t)
}

func TestMatchWorkflow_NoFavorites(t *testing.T) {
	env := newEnv(t)
	env.OnActivity("LoadFavorites", mock.Anything, mock.Anything).
		Return(nil, classify(domain.InvalidArgument("no favorites")))

	env.ExecuteWorkflow(MatchWorkflow, MatchInput{Owner: "a@example.com", UpstreamToken: "tok"})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, ErrTypeInvalidArgument, appErr.Type())
}

func TestClassify(t *testing.T) {
	require.NoError(t, classify(nil))

	var appErr *temporal.ApplicationError
	err := classify(domain.ErrUnauthorized)
	require.True(t, errors.As(err, &appErr))
	require.True(t, appErr.NonRetryable())
	require.Equal(t, ErrTypeUnauthorized, appErr.Type())

	plain := errors.New("timeout")
	require.Equal(t, plain, classify(plain))
}
