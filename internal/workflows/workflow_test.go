package workflows

import (
	"context"
	"errors"
	"testing"

	"coconet/internal/activities"
	"coconet/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func newRegistrationEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(MemberRegistrationWorkflow)
	registerActivityName(env, "CheckMemberNameActivity", func(context.Context, activities.CheckMemberNameInput) (activities.CheckMemberNameOutput, error) {
		return activities.CheckMemberNameOutput{}, nil
	})
	registerActivityName(env, "RegisterMemberActivity", func(context.Context, activities.RegisterMemberInput) (activities.RegisterMemberOutput, error) {
		return activities.RegisterMemberOutput{}, errors.New("unexpected register")
	})
	registerActivityName(env, "PersistMemberActivity", func(context.Context, activities.PersistMemberInput) error {
		return errors.New("unexpected persist")
	})
	return env
}

func registration() MemberRegistrationInput {
	return MemberRegistrationInput{
		Registration: models.MemberRegistration{Name: "gopher", Career: 2, Roles: []string{"BACKEND"}, Stacks: []string{"Go"}},
	}
}

func TestMemberRegistrationWorkflowSuccess(t *testing.T) {
	env := newRegistrationEnv(t)
	in := registration()
	env.OnActivity("CheckMemberNameActivity", mock.Anything, activities.CheckMemberNameInput{Name: "gopher"}).Return(activities.CheckMemberNameOutput{Taken: false}, nil)
	env.OnActivity("RegisterMemberActivity", mock.Anything, activities.RegisterMemberInput{Registration: in.Registration}).Return(activities.RegisterMemberOutput{MemberUUID: "m-42", Name: "gopher"}, nil)
	env.OnActivity("PersistMemberActivity", mock.Anything, activities.PersistMemberInput{MemberUUID: "m-42"}).Return(nil)

	env.ExecuteWorkflow(MemberRegistrationWorkflow, in)
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out RegistrationStatus
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, StatusRegistered, out.Status)
	require.Equal(t, "m-42", out.MemberUUID)
	require.Equal(t, map[string]string{"check_name": "done", "register": "done", "persist": "done"}, out.Steps)

	val, err := env.QueryWorkflow(QueryGetRegistrationStatus)
	require.NoError(t, err)
	var queried RegistrationStatus
	require.NoError(t, val.Get(&queried))
	require.Equal(t, StatusRegistered, queried.Status)
}

func TestMemberRegistrationWorkflowNameTaken(t *testing.T) {
	env := newRegistrationEnv(t)
	env.OnActivity("CheckMemberNameActivity", mock.Anything, mock.Anything).Return(activities.CheckMemberNameOutput{Taken: true}, nil)

	env.ExecuteWorkflow(MemberRegistrationWorkflow, registration())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out RegistrationStatus
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, StatusNameTaken, out.Status)
	require.Empty(t, out.MemberUUID)
	require.NotContains(t, out.Steps, "register")
}

func TestMemberRegistrationWorkflowRegisterFailsOnce(t *testing.T) {
	env := newRegistrationEnv(t)
	env.OnActivity("CheckMemberNameActivity", mock.Anything, mock.Anything).Return(activities.CheckMemberNameOutput{}, nil)
	env.OnActivity("RegisterMemberActivity", mock.Anything, mock.Anything).Return(activities.RegisterMemberOutput{}, errors.New("member-service 500")).Once()

	env.ExecuteWorkflow(MemberRegistrationWorkflow, registration())
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	require.ErrorContains(t, env.GetWorkflowError(), "member-service 500")
	env.AssertExpectations(t)
}

func TestWorkflowIDIsStablePerName(t *testing.T) {
	require.Equal(t, WorkflowID("Gopher"), WorkflowID(" gopher "))
	require.NotEqual(t, WorkflowID("gopher"), WorkflowID("rustacean"))
}
