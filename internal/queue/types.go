package queue

import (
	"errors"
	"time"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job is one requested sync of a project's mirror.
type Job struct {
	ID          string
	ProjectID   int64
	Status      Status
	Attempt     int
	SubmittedBy string
	DeliveryID  string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	LastError   *string
	Revision    *string
}

type EnqueueRequest struct {
	ProjectID   int64
	SubmittedBy string // e.g. "webhook:github", "cli"
	DeliveryID  string
}

var ErrJobNotFound = errors.New("job not found")

// timeFormat is fixed-width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"
