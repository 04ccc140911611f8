package worker

import (
	"context"

	"go.temporal.io/sdk/activity"

	"github.com/ArturAbdullinITIS/newsd/internal/newsd"
	"github.com/ArturAbdullinITIS/newsd/internal/schedule"
	newssync "github.com/ArturAbdullinITIS/newsd/internal/sync"
)

type activities struct {
	syncer     *newssync.Syncer
	conditions schedule.Conditions
}

// Instance to make the workflow a bit more readable
var acts = activities{}

// Constraints travel from the schedule's job spec to the activity, which
// checks them against the host's conditions probe.
type Constraints struct {
	Network              string `json:"network"`
	RequireBatteryNotLow bool   `json:"requireBatteryNotLow"`
}

// RunCycle syncs every subscription and fires the notifier for updated
// topics. Constraints are checked first: an unmet network or battery
// requirement skips the run without failing the schedule.
func (a activities) RunCycle(ctx context.Context, c Constraints) ([]string, error) {
	l := activity.GetLogger(ctx)

	if c.Network == string(newsd.NetworkUnmetered) && !a.conditions.Unmetered(ctx) {
		l.Info("skipping cycle, metered network")
		return []string{}, nil
	}
	if c.RequireBatteryNotLow && !a.conditions.BatteryNotLow(ctx) {
		l.Info("skipping cycle, battery low")
		return []string{}, nil
	}

	updated, err := a.syncer.Cycle(ctx)
	if err != nil {
		return nil, err
	}

	l.Info("cycle finished", "updated", updated)

	return updated, nil
}
