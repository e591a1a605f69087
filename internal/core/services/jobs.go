package services

import (
	"context"
	"log/slog"
	"time"
)

// Job names
const (
	JobStateSweep   = "state_sweep"
	JobRefreshSweep = "refresh_sweep"
)

// StateSweepJob removes expired authorization states.
// It should only be exclusive when the state store is shared between instances.
func StateSweepJob(states *StateService, interval time.Duration, exclusive bool, logger *slog.Logger) Job {
	if logger == nil {
		logger = slog.Default()
	}
	return Job{
		Name:      JobStateSweep,
		Interval:  interval,
		Exclusive: exclusive,
		Run: func(ctx context.Context) error {
			n, err := states.SweepExpired(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Debug("swept expired authorization states", "count", n)
			}
			return nil
		},
	}
}

// RefreshSweepJob refreshes accounts whose tokens are about to expire.
func RefreshSweepJob(refresher *Refresher, interval time.Duration, logger *slog.Logger) Job {
	if logger == nil {
		logger = slog.Default()
	}
	return Job{
		Name:      JobRefreshSweep,
		Interval:  interval,
		Exclusive: true,
		Run: func(ctx context.Context) error {
			res, err := refresher.Sweep(ctx)
			if res.Checked > 0 {
				logger.Info("refresh sweep finished",
					"checked", res.Checked,
					"refreshed", res.Refreshed,
					"skipped", res.Skipped,
					"failed", res.Failed,
				)
			}
			return err
		},
	}
}
