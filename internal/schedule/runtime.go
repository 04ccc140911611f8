// Package schedule owns the recurring background refresh: a small in-process
// runtime for named periodic jobs, and the scheduler that derives the refresh
// job's spec from the current settings.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ArturAbdullinITIS/newsd/internal/newsd"
)

// Job is the body of a background job.
type Job func(ctx context.Context) error

// Conditions reports the host conditions that a job's constraints are checked
// against before each run. Deployments that can tell a metered uplink or a
// low battery apart plug their own probe in; the default permits everything.
type Conditions interface {
	Unmetered(ctx context.Context) bool
	BatteryNotLow(ctx context.Context) bool
}

type permitAll struct{}

func (permitAll) Unmetered(context.Context) bool     { return true }
func (permitAll) BatteryNotLow(context.Context) bool { return true }

// PermitAll is the default Conditions probe.
func PermitAll() Conditions { return permitAll{} }

var _ newsd.JobRuntime = (*Runtime)(nil)

// Runtime runs named recurring jobs in-process. Each name is a single slot:
// enqueueing a spec under an existing name cancels the running job before the
// replacement is armed, so two jobs with the same name never coexist.
type Runtime struct {
	baseCtx    context.Context
	conditions Conditions

	mu     sync.Mutex
	bodies map[string]Job
	slots  map[string]*slot
}

type slot struct {
	spec   newsd.JobSpec
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRuntime creates a runtime whose jobs live until ctx is done.
func NewRuntime(ctx context.Context, conditions Conditions) *Runtime {
	if conditions == nil {
		conditions = PermitAll()
	}
	return &Runtime{
		baseCtx:    ctx,
		conditions: conditions,
		bodies:     make(map[string]Job),
		slots:      make(map[string]*slot),
	}
}

// Register binds a job body to a name. Must happen before the name is
// enqueued.
func (r *Runtime) Register(name string, body Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies[name] = body
}

// EnqueueUniquePeriodic arms the named recurring job. Concurrent calls for
// the same name serialize; the last spec wins.
func (r *Runtime) EnqueueUniquePeriodic(_ context.Context, spec newsd.JobSpec) error {
	if spec.Period <= 0 {
		return fmt.Errorf("job %q has non-positive period", spec.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	body, ok := r.bodies[spec.Name]
	if !ok {
		return fmt.Errorf("no body registered for job %q", spec.Name)
	}

	if old, ok := r.slots[spec.Name]; ok {
		old.cancel()
		<-old.done
	}

	jobCtx, cancel := context.WithCancel(r.baseCtx)
	s := &slot{spec: spec, cancel: cancel, done: make(chan struct{})}
	r.slots[spec.Name] = s

	go r.run(jobCtx, s, body)

	slog.Info("scheduled recurring job",
		"name", spec.Name,
		"period", spec.Period,
		"network", spec.Network,
	)

	return nil
}

// Spec returns the spec of the armed job with the given name, if any.
func (r *Runtime) Spec(name string) (newsd.JobSpec, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[name]
	if !ok {
		return newsd.JobSpec{}, false
	}

	return s.spec, true
}

func (r *Runtime) run(ctx context.Context, s *slot, body Job) {
	defer close(s.done)

	ticker := time.NewTicker(s.spec.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !r.allowed(ctx, s.spec) {
			slog.Debug("skipping job run, constraints unmet", "name", s.spec.Name)
			continue
		}

		// A failed run is logged and the job stays armed for the next period.
		if err := body(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("job run failed", "name", s.spec.Name, "error", err)
		}
	}
}

func (r *Runtime) allowed(ctx context.Context, spec newsd.JobSpec) bool {
	if spec.Network == newsd.NetworkUnmetered && !r.conditions.Unmetered(ctx) {
		return false
	}
	if spec.RequireBatteryNotLow && !r.conditions.BatteryNotLow(ctx) {
		return false
	}

	return true
}
