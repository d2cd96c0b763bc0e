package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mattjoyce/traduttore/internal/project"
	"github.com/mattjoyce/traduttore/internal/queue"
)

// JobQueue is the part of queue.Queue the runner drains.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Complete(ctx context.Context, jobID string, status queue.Status, lastError *string, revision string) error
	RecoverOrphaned(ctx context.Context) (int, error)
}

// ProjectGetter loads the project a job refers to.
type ProjectGetter interface {
	Get(ctx context.Context, id int64) (*project.Project, error)
}

// RunnerConfig tunes the worker pool.
type RunnerConfig struct {
	Workers      int
	PollInterval time.Duration
}

// Runner dequeues sync jobs and runs them with a fixed number of workers.
// Jobs for the same project serialize on the mirror lock.
type Runner struct {
	queue    JobQueue
	projects ProjectGetter
	trigger  Runnable
	workers  int
	poll     time.Duration
	logger   *slog.Logger
}

func NewRunner(q JobQueue, projects ProjectGetter, trigger Runnable, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		queue:    q,
		projects: projects,
		trigger:  trigger,
		workers:  cfg.Workers,
		poll:     cfg.PollInterval,
		logger:   logger,
	}
}

// Start re-queues jobs orphaned by a previous process and then runs the
// workers until ctx is cancelled. Returns nil on cancellation.
func (r *Runner) Start(ctx context.Context) error {
	n, err := r.queue.RecoverOrphaned(ctx)
	if err != nil {
		return fmt.Errorf("recover orphaned jobs: %w", err)
	}
	if n > 0 {
		r.logger.Warn("re-queued orphaned sync jobs", "count", n)
	}

	r.logger.Info("sync runner started", "workers", r.workers, "poll_interval", r.poll)
	defer r.logger.Info("sync runner stopped")

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < r.workers; i++ {
		worker := i
		g.Go(func() error {
			r.work(gctx, worker)
			return nil
		})
	}
	return g.Wait()
}

func (r *Runner) work(ctx context.Context, worker int) {
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Drain until the queue is empty so bursts don't wait a tick per job.
			for ctx.Err() == nil {
				ran, err := r.ProcessNext(ctx)
				if err != nil {
					r.logger.Error("failed to process sync job", "worker", worker, "error", err)
					break
				}
				if !ran {
					break
				}
			}
		}
	}
}

// ProcessNext runs at most one queued job. It reports whether a job was
// dequeued.
func (r *Runner) ProcessNext(ctx context.Context) (bool, error) {
	job, err := r.queue.Dequeue(ctx)
	if err != nil {
		return false, fmt.Errorf("dequeue: %w", err)
	}
	if job == nil {
		return false, nil
	}
	r.execute(ctx, job)
	return true, nil
}

func (r *Runner) execute(ctx context.Context, job *queue.Job) {
	logger := r.logger.With("job_id", job.ID, "project_id", job.ProjectID, "attempt", job.Attempt)
	if job.DeliveryID != "" {
		logger = logger.With("delivery_id", job.DeliveryID)
	}

	p, err := r.projects.Get(ctx, job.ProjectID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		msg := fmt.Sprintf("load project: %v", err)
		if errors.Is(err, project.ErrNotFound) {
			msg = "project not found"
		}
		logger.Error("cannot run sync job", "error", err)
		r.complete(ctx, job.ID, queue.StatusFailed, &msg, "")
		return
	}

	res := r.trigger.Run(ctx, p)
	if ctx.Err() != nil {
		// Left running; RecoverOrphaned re-queues it on the next start.
		logger.Warn("sync interrupted by shutdown")
		return
	}

	if res.Failed() {
		reason := res.Reason
		r.complete(ctx, job.ID, queue.StatusFailed, &reason, res.Mirror.Revision)
		return
	}
	logger.Info("sync job succeeded", "revision", res.Mirror.Revision)
	r.complete(ctx, job.ID, queue.StatusSucceeded, nil, res.Mirror.Revision)
}

func (r *Runner) complete(ctx context.Context, jobID string, status queue.Status, lastError *string, revision string) {
	if err := r.queue.Complete(ctx, jobID, status, lastError, revision); err != nil {
		r.logger.Error("failed to complete sync job", "job_id", jobID, "error", err)
	}
}
