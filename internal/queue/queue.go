package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/traduttore/internal/storage"
)

const maxErrorBytes = 64 * 1024

const jobColumns = `id, project_id, status, attempt, submitted_by, delivery_id,
  created_at, started_at, completed_at, last_error, revision`

type Queue struct {
	db *storage.DB
}

func New(db *storage.DB) *Queue {
	return &Queue{db: db}
}

// Enqueue adds a sync job for a project. If the project already has a job
// waiting that has not started, its ID is returned with coalesced=true and no
// row is added: the waiting job will fetch the newest remote state anyway.
func (q *Queue) Enqueue(ctx context.Context, req EnqueueRequest) (id string, coalesced bool, err error) {
	if req.ProjectID <= 0 {
		return "", false, fmt.Errorf("project_id is invalid")
	}
	if req.SubmittedBy == "" {
		return "", false, fmt.Errorf("submitted_by is empty")
	}

	id = uuid.NewString()
	now := time.Now().UTC().Format(timeFormat)

	var delivery any
	if req.DeliveryID != "" {
		delivery = req.DeliveryID
	}

	// Single statement so the existence check and insert are atomic on SQLite.
	res, err := q.db.ExecContext(ctx, q.db.Rebind(`
INSERT INTO sync_queue(id, project_id, status, attempt, submitted_by, delivery_id, created_at)
SELECT ?, CAST(? AS BIGINT), ?, 1, ?, ?, ?
WHERE NOT EXISTS (
  SELECT 1 FROM sync_queue WHERE project_id = CAST(? AS BIGINT) AND status = ?
);
`), id, req.ProjectID, StatusQueued, req.SubmittedBy, delivery, now, req.ProjectID, StatusQueued)
	if err != nil {
		return "", false, fmt.Errorf("enqueue sync job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return id, false, nil
	}

	var existing string
	err = q.db.QueryRowContext(ctx, q.db.Rebind(`
SELECT id FROM sync_queue WHERE project_id = ? AND status = ? ORDER BY created_at ASC LIMIT 1;
`), req.ProjectID, StatusQueued).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		// The waiting job was claimed between the two statements; try again.
		return q.Enqueue(ctx, req)
	}
	if err != nil {
		return "", false, fmt.Errorf("find queued sync job: %w", err)
	}
	return existing, true, nil
}

// Dequeue claims the oldest queued job and marks it running. Returns (nil, nil)
// if the queue is empty.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	nowS := time.Now().UTC().Format(timeFormat)

	lockClause := ""
	if q.db.Dialect == storage.DialectPostgres {
		lockClause = "FOR UPDATE SKIP LOCKED"
	}

	row := q.db.QueryRowContext(ctx, q.db.Rebind(`
UPDATE sync_queue
SET status = ?, started_at = ?
WHERE id IN (
  SELECT id
  FROM sync_queue
  WHERE status = ?
  ORDER BY created_at ASC, id ASC
  LIMIT 1
  `+lockClause+`
)
RETURNING `+jobColumns+`;
`), StatusRunning, nowS, StatusQueued)

	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue sync job: %w", err)
	}
	return j, nil
}

// Complete marks a job terminal and appends a row to sync_log.
func (q *Queue) Complete(ctx context.Context, jobID string, status Status, lastError *string, revision string) error {
	if jobID == "" {
		return fmt.Errorf("jobID is empty")
	}
	if status != StatusSucceeded && status != StatusFailed {
		return fmt.Errorf("invalid terminal status: %q", status)
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		projectID   int64
		attempt     int
		submittedBy string
		createdAt   string
	)
	err = tx.QueryRowContext(ctx, q.db.Rebind(`
SELECT project_id, attempt, submitted_by, created_at
FROM sync_queue
WHERE id = ?;
`), jobID).Scan(&projectID, &attempt, &submittedBy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("load job for completion: %w", err)
	}

	completedAt := time.Now().UTC().Format(timeFormat)

	var errVal any
	if lastError != nil {
		s := *lastError
		if len(s) > maxErrorBytes {
			s = s[:maxErrorBytes]
		}
		errVal = s
	}
	var revVal any
	if revision != "" {
		revVal = revision
	}

	_, err = tx.ExecContext(ctx, q.db.Rebind(`
UPDATE sync_queue
SET status = ?, completed_at = ?, last_error = ?, revision = ?
WHERE id = ?;
`), status, completedAt, errVal, revVal, jobID)
	if err != nil {
		return fmt.Errorf("update job completion: %w", err)
	}

	logID := fmt.Sprintf("%s-%d", jobID, attempt)
	_, err = tx.ExecContext(ctx, q.db.Rebind(`
INSERT INTO sync_log(id, job_id, project_id, status, submitted_by, created_at, completed_at, last_error, revision)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?);
`), logID, jobID, projectID, status, submittedBy, createdAt, completedAt, errVal, revVal)
	if err != nil {
		return fmt.Errorf("insert sync_log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// RecoverOrphaned re-queues jobs left running by a process that died, bumping
// their attempt counter. Call before starting workers.
func (q *Queue) RecoverOrphaned(ctx context.Context) (int, error) {
	res, err := q.db.ExecContext(ctx, q.db.Rebind(`
UPDATE sync_queue
SET status = ?, attempt = attempt + 1, started_at = NULL
WHERE status = ?;
`), StatusQueued, StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("recover orphaned jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("recover orphaned jobs: %w", err)
	}
	return int(n), nil
}

// Get returns a job by ID.
func (q *Queue) Get(ctx context.Context, jobID string) (*Job, error) {
	row := q.db.QueryRowContext(ctx, q.db.Rebind("SELECT "+jobColumns+" FROM sync_queue WHERE id = ?;"), jobID)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sync job: %w", err)
	}
	return j, nil
}

// LastForProject returns the most recently created job for a project.
func (q *Queue) LastForProject(ctx context.Context, projectID int64) (*Job, error) {
	row := q.db.QueryRowContext(ctx, q.db.Rebind(
		"SELECT "+jobColumns+" FROM sync_queue WHERE project_id = ? ORDER BY created_at DESC LIMIT 1;"), projectID)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("last sync job: %w", err)
	}
	return j, nil
}

// PruneCompleted deletes terminal jobs completed before now-retention. The
// sync_log keeps their history.
func (q *Queue) PruneCompleted(ctx context.Context, retention time.Duration) (int, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-retention).Format(timeFormat)
	res, err := q.db.ExecContext(ctx, q.db.Rebind(`
DELETE FROM sync_queue
WHERE status IN (?, ?) AND completed_at IS NOT NULL AND completed_at < ?;
`), StatusSucceeded, StatusFailed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune sync jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*Job, error) {
	var (
		j            Job
		statusS      string
		delivery     sql.NullString
		createdAtS   string
		startedAtS   sql.NullString
		completedAtS sql.NullString
		lastError    sql.NullString
		revision     sql.NullString
	)
	err := row.Scan(
		&j.ID, &j.ProjectID, &statusS, &j.Attempt, &j.SubmittedBy, &delivery,
		&createdAtS, &startedAtS, &completedAtS, &lastError, &revision,
	)
	if err != nil {
		return nil, err
	}

	j.Status = Status(statusS)
	j.DeliveryID = delivery.String
	if t, err := time.Parse(timeFormat, createdAtS); err == nil {
		j.CreatedAt = t
	}
	if startedAtS.Valid {
		if t, err := time.Parse(timeFormat, startedAtS.String); err == nil {
			j.StartedAt = &t
		}
	}
	if completedAtS.Valid {
		if t, err := time.Parse(timeFormat, completedAtS.String); err == nil {
			j.CompletedAt = &t
		}
	}
	if lastError.Valid {
		j.LastError = &lastError.String
	}
	if revision.Valid {
		j.Revision = &revision.String
	}
	return &j, nil
}
