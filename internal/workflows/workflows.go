package workflows

import (
	"strings"
	"time"

	"coconet/internal/activities"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const QueryGetRegistrationStatus = "GetRegistrationStatus"

// WorkflowID derives a registration workflow id from the member name, so two
// concurrent registrations of one name collide at start.
func WorkflowID(name string) string {
	return "member-register-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.ToLower(strings.TrimSpace(name)))).String()
}

// MemberRegistrationWorkflow checks the name, registers the member and
// records the returned uuid. Every activity gets exactly one attempt.
func MemberRegistrationWorkflow(ctx workflow.Context, input MemberRegistrationInput) (RegistrationStatus, error) {
	status := RegistrationStatus{
		Name:        input.Registration.Name,
		CurrentStep: "init",
		Status:      StatusProcessing,
		Steps:       map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetRegistrationStatus, func() (RegistrationStatus, error) {
		return status, nil
	}); err != nil {
		return status, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	fail := func(err error) (RegistrationStatus, error) {
		status.Status = StatusFailed
		status.FailReason = err.Error()
		status.Steps[status.CurrentStep] = StatusFailed
		return status, err
	}

	status.CurrentStep = "check_name"
	status.Steps[status.CurrentStep] = StatusProcessing
	var checkOut activities.CheckMemberNameOutput
	if err := workflow.ExecuteActivity(ctx, "CheckMemberNameActivity", activities.CheckMemberNameInput{Name: input.Registration.Name}).Get(ctx, &checkOut); err != nil {
		return fail(err)
	}
	if checkOut.Taken {
		status.Status = StatusNameTaken
		status.Steps[status.CurrentStep] = StatusNameTaken
		return status, nil
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "register"
	status.Steps[status.CurrentStep] = StatusProcessing
	var regOut activities.RegisterMemberOutput
	if err := workflow.ExecuteActivity(ctx, "RegisterMemberActivity", activities.RegisterMemberInput{
		Registration:     input.Registration,
		ImageName:        input.ImageName,
		ImageContentType: input.ImageContentType,
		Image:            input.Image,
	}).Get(ctx, &regOut); err != nil {
		return fail(err)
	}
	status.MemberUUID = regOut.MemberUUID
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "persist"
	status.Steps[status.CurrentStep] = StatusProcessing
	if err := workflow.ExecuteActivity(ctx, "PersistMemberActivity", activities.PersistMemberInput{MemberUUID: regOut.MemberUUID}).Get(ctx, nil); err != nil {
		return fail(err)
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "complete"
	status.Status = StatusRegistered
	return status, nil
}
