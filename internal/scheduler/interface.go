package scheduler

import (
	"context"
	"time"

	"github.com/mattjoyce/traduttore/internal/mirror"
)

//go:generate mockgen -destination=mocks/mock_scheduler.go -package=mocks github.com/mattjoyce/traduttore/internal/scheduler JobPruner,CachePruner

// JobPruner deletes finished sync jobs past their retention.
type JobPruner interface {
	PruneCompleted(ctx context.Context, retention time.Duration) (int, error)
}

// CachePruner removes abandoned temporary clones from the mirror cache.
type CachePruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (mirror.CleanupReport, error)
}
