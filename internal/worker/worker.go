package worker

import (
	"context"
	"fmt"
	"sync"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/ArturAbdullinITIS/newsd/internal/newsd"
	"github.com/ArturAbdullinITIS/newsd/internal/schedule"
	newssync "github.com/ArturAbdullinITIS/newsd/internal/sync"
)

const TaskQueue = "newsd"

// NewWorker sets up the worker with registration of workflows and activities.
func NewWorker(cli client.Client, syncer *newssync.Syncer, conditions schedule.Conditions) worker.Worker {
	if conditions == nil {
		conditions = schedule.PermitAll()
	}
	a := activities{
		syncer:     syncer,
		conditions: conditions,
	}

	w := worker.New(cli, TaskQueue, worker.Options{})

	wfs := workflows{}
	w.RegisterWorkflow(wfs.Refresh)
	w.RegisterActivity(&a)

	return w
}

var _ newsd.JobRuntime = (*ScheduleRuntime)(nil)

// ScheduleRuntime implements the job runtime on Temporal schedules. The
// schedule ID is the job name, which gives the unique-per-name guarantee;
// replacing means deleting the existing schedule and creating a fresh one
// with the new parameters.
type ScheduleRuntime struct {
	cli client.Client

	// Serializes replaces so the last ApplyPolicy wins.
	mu sync.Mutex
}

func NewScheduleRuntime(cli client.Client) *ScheduleRuntime {
	return &ScheduleRuntime{cli: cli}
}

func (r *ScheduleRuntime) EnqueueUniquePeriodic(ctx context.Context, spec newsd.JobSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	handle := r.cli.ScheduleClient().GetHandle(ctx, spec.Name)
	if _, err := handle.Describe(ctx); err == nil {
		if err := handle.Delete(ctx); err != nil {
			return fmt.Errorf("error deleting existing schedule %q: %s", spec.Name, err)
		}
	}

	_, err := r.cli.ScheduleClient().Create(ctx, client.ScheduleOptions{
		ID: spec.Name,
		Spec: client.ScheduleSpec{
			Intervals: []client.ScheduleIntervalSpec{{Every: spec.Period}},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        spec.Name,
			Workflow:  workflows{}.Refresh,
			TaskQueue: TaskQueue,
			Args: []interface{}{Constraints{
				Network:              string(spec.Network),
				RequireBatteryNotLow: spec.RequireBatteryNotLow,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("error creating schedule %q: %s", spec.Name, err)
	}

	return nil
}
