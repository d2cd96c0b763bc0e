package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mattjoyce/traduttore/internal/project"
	"github.com/mattjoyce/traduttore/internal/queue"
)

// Enqueuer is the part of queue.Queue a QueueScheduler needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, req queue.EnqueueRequest) (string, bool, error)
}

// QueueScheduler schedules syncs by adding them to the persistent queue.
type QueueScheduler struct {
	queue       Enqueuer
	submittedBy string
	logger      *slog.Logger
}

func NewQueueScheduler(q Enqueuer, submittedBy string, logger *slog.Logger) *QueueScheduler {
	if submittedBy == "" {
		submittedBy = "webhook"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueScheduler{queue: q, submittedBy: submittedBy, logger: logger}
}

func (s *QueueScheduler) Schedule(ctx context.Context, p *project.Project, deliveryID string) error {
	id, coalesced, err := s.queue.Enqueue(ctx, queue.EnqueueRequest{
		ProjectID:   p.ID,
		SubmittedBy: s.submittedBy,
		DeliveryID:  deliveryID,
	})
	if err != nil {
		return fmt.Errorf("enqueue sync: %w", err)
	}
	s.logger.Info("sync scheduled",
		"project_id", p.ID,
		"job_id", id,
		"coalesced", coalesced,
		"delivery_id", deliveryID,
	)
	return nil
}

// InlineScheduler runs the sync before returning. The request context's
// cancellation does not abort a sync already underway.
type InlineScheduler struct {
	trigger Runnable
	logger  *slog.Logger
}

func NewInlineScheduler(trigger Runnable, logger *slog.Logger) *InlineScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InlineScheduler{trigger: trigger, logger: logger}
}

func (s *InlineScheduler) Schedule(ctx context.Context, p *project.Project, deliveryID string) error {
	res := s.trigger.Run(context.WithoutCancel(ctx), p)
	if res.Failed() {
		return fmt.Errorf("inline sync of project %d: %s", p.ID, res.Reason)
	}
	s.logger.Info("inline sync finished",
		"project_id", p.ID,
		"revision", res.Mirror.Revision,
		"delivery_id", deliveryID,
	)
	return nil
}
