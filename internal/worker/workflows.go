package worker

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

type workflows struct{}

// Refresh is the body of the recurring refresh schedule: one cache cycle for
// every subscription. The activity owns failure isolation per topic; the
// workflow only retries whole-cycle failures.
func (workflows) Refresh(ctx workflow.Context, c Constraints) error {
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var updated []string
	if err := workflow.ExecuteActivity(ctx, acts.RunCycle, c).Get(ctx, &updated); err != nil {
		return err
	}

	workflow.GetLogger(ctx).Info("refresh cycle complete", "updated", updated)

	return nil
}
