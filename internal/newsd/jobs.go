package newsd

import (
	"context"
	"time"
)

// NetworkConstraint restricts when a recurring job may run.
type NetworkConstraint string

const (
	NetworkAny       NetworkConstraint = "any"
	NetworkUnmetered NetworkConstraint = "unmetered"
)

// JobSpec describes a named recurring background job. Enqueueing a spec under
// a name that is already registered replaces the existing job.
type JobSpec struct {
	Name                 string
	Period               time.Duration
	Network              NetworkConstraint
	RequireBatteryNotLow bool
}

// JobRuntime runs named recurring jobs. Implementations must guarantee that
// at most one job exists per name: a second enqueue for the same name cancels
// the first and arms a fresh job with the new spec.
type JobRuntime interface {
	EnqueueUniquePeriodic(ctx context.Context, spec JobSpec) error
}
