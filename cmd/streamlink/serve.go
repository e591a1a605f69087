package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/streamlink/internal/adapters/driving/http"
	"github.com/custodia-labs/streamlink/internal/config"
)

func newServeCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background sweeps",
		Long: `Runs streamlink in one of three modes:

  all     HTTP API and background sweeps (default)
  api     HTTP API only
  worker  background sweeps only (expired states, due token refreshes)

The mode comes from --mode, falling back to RUN_MODE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), mode)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "run mode: all, api or worker (overrides RUN_MODE)")
	return cmd
}

// loadServeConfig applies the --mode override before validation.
func loadServeConfig(mode string) (*config.Config, error) {
	cfg, err := config.LoadUnvalidated()
	if err != nil {
		return nil, err
	}
	if mode != "" {
		cfg.RunMode = strings.ToLower(mode)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(ctx context.Context, mode string) error {
	cfg, err := loadServeConfig(mode)
	if err != nil {
		return err
	}

	l := newLogger(cfg)
	l.Info("streamlink starting", "mode", cfg.RunMode)

	a, err := newApp(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.RunsWorker() {
		if cfg.SchedulerEnabled {
			scheduler, err := a.newScheduler()
			if err != nil {
				return err
			}
			if err := scheduler.Start(gctx); err != nil {
				return fmt.Errorf("start scheduler: %w", err)
			}
			defer scheduler.Stop()
			l.Info("scheduler started", "jobs", scheduler.Jobs(), "lock_required", cfg.SchedulerLockRequired)
		} else {
			l.Info("scheduler disabled via SCHEDULER_ENABLED=false")
		}
	}

	if cfg.RunsAPI() {
		var redisPinger http.Pinger
		if a.redisLock != nil {
			redisPinger = a.redisLock
		}

		server := http.NewServer(http.Config{
			Host:            cfg.Host,
			Port:            cfg.Port,
			Version:         version,
			ShutdownTimeout: cfg.ShutdownTimeout,
		}, l, http.Services{
			Auth:     a.authService,
			OAuth:    a.oauthService,
			Accounts: a.accountService,
		}, a.db, redisPinger)

		g.Go(func() error {
			return server.Start(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err = g.Wait()
	l.Info("streamlink stopped")
	return err
}
