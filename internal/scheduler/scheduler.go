// Package scheduler runs periodic housekeeping for the sync service:
// pruning finished jobs from the sync queue and abandoned temporary clones
// from the mirror cache.
package scheduler

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

// Config controls the housekeeping cadence.
type Config struct {
	// Interval between passes. Zero disables the scheduler.
	Interval time.Duration
	// Jitter is added at random to each interval.
	Jitter time.Duration
	// JobRetention keeps finished jobs this long. Zero keeps them forever.
	JobRetention time.Duration
	// TempCloneAge is the age after which a temporary clone is abandoned.
	TempCloneAge time.Duration
}

// Scheduler performs housekeeping passes on a jittered interval.
type Scheduler struct {
	cfg    Config
	jobs   JobPruner
	cache  CachePruner
	logger *slog.Logger
}

// New creates a Scheduler. Either pruner may be nil.
func New(cfg Config, jobs JobPruner, cache CachePruner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:    cfg,
		jobs:   jobs,
		cache:  cache,
		logger: logger.With("component", "scheduler"),
	}
}

// Start runs a pass immediately and then on every tick until ctx is done.
// Blocks; returns nil on cancellation.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		s.logger.Info("housekeeping disabled")
		return nil
	}
	s.logger.Info("starting scheduler", "interval", s.cfg.Interval, "jitter", s.cfg.Jitter)

	s.Tick(ctx)

	timer := time.NewTimer(calculateJitteredInterval(s.cfg.Interval, s.cfg.Jitter))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-timer.C:
			s.Tick(ctx)
			timer.Reset(calculateJitteredInterval(s.cfg.Interval, s.cfg.Jitter))
		}
	}
}

// Tick performs a single housekeeping pass. Failures are logged.
func (s *Scheduler) Tick(ctx context.Context) {
	s.logger.Debug("scheduler tick")

	if s.jobs != nil && s.cfg.JobRetention > 0 {
		n, err := s.jobs.PruneCompleted(ctx, s.cfg.JobRetention)
		if err != nil {
			s.logger.Error("failed to prune sync jobs", "error", err)
		} else if n > 0 {
			s.logger.Info("pruned sync jobs", "count", n)
		}
	}

	if s.cache != nil && s.cfg.TempCloneAge > 0 {
		report, err := s.cache.Prune(ctx, s.cfg.TempCloneAge)
		if err != nil {
			s.logger.Error("failed to prune temporary clones", "error", err)
		} else if report.DeletedDirs > 0 {
			s.logger.Info("pruned temporary clones", "count", report.DeletedDirs)
		}
	}
}

// calculateJitteredInterval adds a random jitter to the base interval.
func calculateJitteredInterval(baseInterval time.Duration, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return baseInterval
	}
	return baseInterval + time.Duration(rand.Int63n(jitter.Nanoseconds()+1))
}
