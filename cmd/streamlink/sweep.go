package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/streamlink/internal/config"
	"github.com/custodia-labs/streamlink/internal/core/services"
)

// sweepTargets maps CLI arguments to scheduler job names.
var sweepTargets = map[string]string{
	"states":  services.JobStateSweep,
	"refresh": services.JobRefreshSweep,
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep [states|refresh]",
		Short: "Run the background sweeps once and exit",
		Long: `Runs a background sweep once, for use from cron or by operators.

  states   remove expired authorization states
  refresh  refresh every account whose access token is about to expire

Without an argument both sweeps run. Exclusive sweeps still take the distributed lock.`,
		ValidArgs: []string{"states", "refresh"},
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs := []string{services.JobStateSweep, services.JobRefreshSweep}
			if len(args) == 1 {
				jobs = []string{sweepTargets[args[0]]}
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			l := newLogger(cfg)

			a, err := newApp(cmd.Context(), cfg, l)
			if err != nil {
				return err
			}
			defer a.Close()

			scheduler, err := a.newScheduler()
			if err != nil {
				return err
			}
			for _, name := range jobs {
				if err := scheduler.RunOnce(cmd.Context(), name); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s finished\n", name)
			}
			return nil
		},
	}
}
