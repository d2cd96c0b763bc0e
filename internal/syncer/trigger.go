// Package syncer turns accepted webhooks into mirror updates.
//
// A Trigger brings a project's mirror up to date and hands the directory to
// an Extractor while the project lock is still held. Runner drains the
// persistent sync queue with a small worker pool; QueueScheduler and
// InlineScheduler adapt both paths to the webhook dispatcher.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattjoyce/traduttore/internal/mirror"
	"github.com/mattjoyce/traduttore/internal/project"
)

// Status is the outcome of a sync.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// MirrorManager is the part of mirror.Manager a Trigger needs.
type MirrorManager interface {
	WithMirror(ctx context.Context, p *project.Project, fn func(ctx context.Context, m mirror.LocalMirror)) (mirror.LocalMirror, error)
}

// Runnable runs one sync of a project.
type Runnable interface {
	Run(ctx context.Context, p *project.Project) Result
}

// Result describes one sync.
type Result struct {
	Status     Status
	Reason     string
	Mirror     mirror.LocalMirror
	Extraction *Extraction
	Err        error
}

// Failed reports whether the sync did not succeed.
func (r Result) Failed() bool { return r.Status != StatusSucceeded }

// Trigger syncs a project's mirror, then runs the extractor on it.
type Trigger struct {
	mirrors   MirrorManager
	extractor Extractor
	logger    *slog.Logger
}

// NewTrigger returns a Trigger. A nil extractor means NoopExtractor.
func NewTrigger(mirrors MirrorManager, extractor Extractor, logger *slog.Logger) *Trigger {
	if extractor == nil {
		extractor = NoopExtractor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Trigger{mirrors: mirrors, extractor: extractor, logger: logger}
}

// Run ensures the mirror and extracts from it. The extractor is not invoked
// when the mirror could not be brought up to date. Extraction failures are
// reported in the Result and never retried here.
func (t *Trigger) Run(ctx context.Context, p *project.Project) Result {
	if p == nil {
		return Result{Status: StatusFailed, Reason: "no project", Err: fmt.Errorf("no project")}
	}
	logger := t.logger.With("project_id", p.ID, "slug", p.Slug)
	start := time.Now()

	var (
		extraction *Extraction
		extractErr error
	)
	m, err := t.mirrors.WithMirror(ctx, p, func(ctx context.Context, m mirror.LocalMirror) {
		extraction, extractErr = t.extractor.Extract(ctx, p, m)
	})
	if err != nil {
		logger.Error("mirror sync failed", "error", err)
		return Result{Status: StatusFailed, Reason: err.Error(), Err: err}
	}

	res := Result{Status: StatusSucceeded, Mirror: m, Extraction: extraction}
	if extractErr != nil {
		logger.Error("extraction failed", "error", extractErr, "revision", m.Revision)
		res.Status = StatusFailed
		res.Reason = fmt.Sprintf("extract: %v", extractErr)
		res.Err = extractErr
		return res
	}

	logger.Info("project synced",
		"revision", m.Revision,
		"cloned", m.Cloned,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res
}
