package schedule

import (
	"context"
	"fmt"

	"github.com/ArturAbdullinITIS/newsd/internal/newsd"
)

// RefreshJobName is the single named slot for the recurring article refresh.
const RefreshJobName = "refresh-articles"

// Scheduler translates the user's refresh policy into the recurring job's
// spec and hands it to the job runtime under replace semantics.
type Scheduler struct {
	runtime newsd.JobRuntime
}

func NewScheduler(runtime newsd.JobRuntime) *Scheduler {
	return &Scheduler{runtime: runtime}
}

// ApplyPolicy (re)configures the refresh job. An existing job under the same
// name is replaced, never duplicated.
func (s *Scheduler) ApplyPolicy(ctx context.Context, interval newsd.Interval, wifiOnly bool) error {
	network := newsd.NetworkAny
	if wifiOnly {
		network = newsd.NetworkUnmetered
	}

	spec := newsd.JobSpec{
		Name:                 RefreshJobName,
		Period:               interval.Duration(),
		Network:              network,
		RequireBatteryNotLow: true,
	}
	if err := s.runtime.EnqueueUniquePeriodic(ctx, spec); err != nil {
		return fmt.Errorf("error scheduling refresh job: %s", err)
	}

	return nil
}

// FollowSettings applies the current policy once, then re-applies it whenever
// the interval or wifi-only setting changes. Blocks until ctx is done.
func (s *Scheduler) FollowSettings(ctx context.Context, settings newsd.SettingsService) error {
	updates := settings.Watch(ctx)

	var last *newsd.Settings
	for {
		select {
		case <-ctx.Done():
			return nil
		case current, ok := <-updates:
			if !ok {
				return nil
			}
			// Only interval and wifi-only feed the policy; reacting to other
			// settings would needlessly reset the job's timer.
			if last != nil && last.Interval == current.Interval && last.WifiOnly == current.WifiOnly {
				last = &current
				continue
			}
			if err := s.ApplyPolicy(ctx, current.Interval, current.WifiOnly); err != nil {
				return err
			}
			last = &current
		}
	}
}
