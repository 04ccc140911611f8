package schedule

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArturAbdullinITIS/newsd/internal/newsd"
)

func TestRuntime_RunsJobPeriodically(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := NewRuntime(ctx, nil)

	var runs atomic.Int32
	rt.Register("job", func(context.Context) error {
		runs.Add(1)
		return nil
	})

	require.NoError(t, rt.EnqueueUniquePeriodic(ctx, newsd.JobSpec{
		Name:   "job",
		Period: 10 * time.Millisecond,
	}))

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestRuntime_ReplaceLeavesSingleJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := NewRuntime(ctx, nil)

	var first, second atomic.Int32
	rt.Register("job", func(context.Context) error {
		first.Add(1)
		return nil
	})

	require.NoError(t, rt.EnqueueUniquePeriodic(ctx, newsd.JobSpec{Name: "job", Period: 10 * time.Millisecond}))
	assert.Eventually(t, func() bool { return first.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)

	// Replace with a new body; the old ticker must be fully stopped.
	rt.Register("job", func(context.Context) error {
		second.Add(1)
		return nil
	})
	require.NoError(t, rt.EnqueueUniquePeriodic(ctx, newsd.JobSpec{Name: "job", Period: 10 * time.Millisecond}))

	firstAtReplace := first.Load()
	assert.Eventually(t, func() bool { return second.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, firstAtReplace, first.Load(), "replaced job must not keep running")

	spec, ok := rt.Spec("job")
	require.True(t, ok)
	assert.Equal(t, 10*time.Millisecond, spec.Period)
}

func TestRuntime_UnmetConstraintsSkipRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := NewRuntime(ctx, deniedConditions{})

	var runs atomic.Int32
	rt.Register("job", func(context.Context) error {
		runs.Add(1)
		return nil
	})

	require.NoError(t, rt.EnqueueUniquePeriodic(ctx, newsd.JobSpec{
		Name:                 "job",
		Period:               10 * time.Millisecond,
		Network:              newsd.NetworkUnmetered,
		RequireBatteryNotLow: true,
	}))

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, runs.Load(), "constrained job must not run while conditions deny it")

	// The job stays armed: same name, same spec.
	spec, ok := rt.Spec("job")
	require.True(t, ok)
	assert.Equal(t, newsd.NetworkUnmetered, spec.Network)
}

type deniedConditions struct{}

func (deniedConditions) Unmetered(context.Context) bool     { return false }
func (deniedConditions) BatteryNotLow(context.Context) bool { return false }

func TestRuntime_FailedRunKeepsSchedule(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := NewRuntime(ctx, nil)

	var runs atomic.Int32
	rt.Register("job", func(context.Context) error {
		runs.Add(1)
		return errors.New("boom")
	})

	require.NoError(t, rt.EnqueueUniquePeriodic(ctx, newsd.JobSpec{Name: "job", Period: 10 * time.Millisecond}))

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestRuntime_UnknownJobName(t *testing.T) {
	ctx := context.Background()
	rt := NewRuntime(ctx, nil)

	err := rt.EnqueueUniquePeriodic(ctx, newsd.JobSpec{Name: "nope", Period: time.Minute})
	require.Error(t, err)
}

// specRuntime records the specs it was handed.
type specRuntime struct {
	mu    sync.Mutex
	specs []newsd.JobSpec
}

func (r *specRuntime) EnqueueUniquePeriodic(_ context.Context, spec newsd.JobSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs = append(r.specs, spec)
	return nil
}

func (r *specRuntime) all() []newsd.JobSpec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]newsd.JobSpec(nil), r.specs...)
}

func TestApplyPolicy_BuildsSpecFromPolicy(t *testing.T) {
	rt := &specRuntime{}
	s := NewScheduler(rt)

	require.NoError(t, s.ApplyPolicy(context.Background(), newsd.Interval30Min, true))
	require.NoError(t, s.ApplyPolicy(context.Background(), newsd.Interval1Hour, false))

	specs := rt.all()
	require.Len(t, specs, 2)

	assert.Equal(t, newsd.JobSpec{
		Name:                 RefreshJobName,
		Period:               30 * time.Minute,
		Network:              newsd.NetworkUnmetered,
		RequireBatteryNotLow: true,
	}, specs[0])
	assert.Equal(t, newsd.JobSpec{
		Name:                 RefreshJobName,
		Period:               time.Hour,
		Network:              newsd.NetworkAny,
		RequireBatteryNotLow: true,
	}, specs[1])
}

// staticSettings feeds a fixed sequence of settings to a watcher.
type staticSettings struct {
	newsd.SettingsService

	seq []newsd.Settings
}

func (s staticSettings) Watch(ctx context.Context) <-chan newsd.Settings {
	out := make(chan newsd.Settings, len(s.seq))
	for _, v := range s.seq {
		out <- v
	}
	close(out)
	return out
}

func TestFollowSettings_ReappliesOnPolicyChange(t *testing.T) {
	base := newsd.DefaultSettings()

	changedInterval := base
	changedInterval.Interval = newsd.Interval2Hours

	changedLanguage := changedInterval
	changedLanguage.Language = newsd.LanguageRussian

	changedWifi := changedLanguage
	changedWifi.WifiOnly = true

	rt := &specRuntime{}
	s := NewScheduler(rt)

	err := s.FollowSettings(context.Background(), staticSettings{
		seq: []newsd.Settings{base, changedInterval, changedLanguage, changedWifi},
	})
	require.NoError(t, err)

	// Initial apply, the interval change, and the wifi change. The language
	// change must not reset the job.
	specs := rt.all()
	require.Len(t, specs, 3)
	assert.Equal(t, 15*time.Minute, specs[0].Period)
	assert.Equal(t, 2*time.Hour, specs[1].Period)
	assert.Equal(t, newsd.NetworkUnmetered, specs[2].Network)
}
