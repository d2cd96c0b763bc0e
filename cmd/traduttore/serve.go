package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mattjoyce/traduttore/internal/config"
	"github.com/mattjoyce/traduttore/internal/lock"
	"github.com/mattjoyce/traduttore/internal/log"
	"github.com/mattjoyce/traduttore/internal/scheduler"
	"github.com/mattjoyce/traduttore/internal/storage"
	"github.com/mattjoyce/traduttore/internal/syncer"
	"github.com/mattjoyce/traduttore/internal/webhook"
)

// staleTempAge is how old a temporary clone must be before housekeeping
// treats it as abandoned.
const staleTempAge = time.Hour

func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server and sync workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}
}

func runServe(ctx context.Context, opts *globalOptions) error {
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	logger := log.WithComponent("main")
	logger.Info("traduttore starting", "version", version, "sync_mode", a.cfg.Sync.Mode)

	pidPath := pidLockPath(a.cfg)
	pidLock, err := lock.AcquirePIDLock(pidPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "path", pidPath, "error", err)
		return fmt.Errorf("acquire PID lock: %w", err)
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidPath)

	if err := storage.ValidateLocalFilesystem(a.mirrors.CacheDir()); err != nil {
		logger.Warn("mirror cache is on a network filesystem; cross-process locking may be unreliable", "error", err)
	}

	trigger := a.trigger()

	var syncScheduler webhook.Scheduler
	var runner *syncer.Runner
	switch a.cfg.Sync.Mode {
	case config.SyncModeInline:
		syncScheduler = syncer.NewInlineScheduler(trigger, log.WithComponent("sync"))
	default:
		syncScheduler = syncer.NewQueueScheduler(a.queue, "webhook", log.WithComponent("sync"))
		runner = syncer.NewRunner(a.queue, a.projects, trigger, syncer.RunnerConfig{
			Workers:      a.cfg.Sync.Workers,
			PollInterval: a.cfg.Sync.PollInterval,
		}, log.WithComponent("runner"))
	}

	dispatcher := webhook.NewDispatcher(
		a.locator,
		a.projects,
		webhook.ConfigSecrets(a.cfg.Webhooks.Secrets),
		syncScheduler,
		log.WithComponent("webhook"),
	)
	server := webhook.New(webhook.Config{
		Listen:               a.cfg.Server.Listen,
		MaxBodySize:          a.cfg.MaxBodyBytes(),
		ReadTimeout:          a.cfg.Server.ReadTimeout,
		WriteTimeout:         a.cfg.Server.WriteTimeout,
		LegacyGitHubEndpoint: a.cfg.Server.LegacyGitHubEndpoint,
	}, dispatcher, log.WithComponent("webhook"))

	housekeeping := scheduler.New(scheduler.Config{
		Interval:     a.cfg.Sync.MaintenanceInterval,
		Jitter:       a.cfg.Sync.MaintenanceInterval / 10,
		JobRetention: a.cfg.Sync.JobRetention,
		TempCloneAge: staleTempAge,
	}, a.queue, a.mirrors, log.Get())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return housekeeping.Start(gctx)
	})
	g.Go(func() error {
		if err := server.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("webhook: %w", err)
		}
		return nil
	})
	if runner != nil {
		g.Go(func() error {
			if err := runner.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("runner: %w", err)
			}
			return nil
		})
	}

	logger.Info("traduttore running (press Ctrl+C to stop)", "listen", a.cfg.Server.Listen)
	if err := g.Wait(); err != nil {
		logger.Error("component failed", "error", err)
		return err
	}
	logger.Info("traduttore stopped")
	return nil
}
