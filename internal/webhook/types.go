package webhook

import (
	"context"

	"github.com/mattjoyce/traduttore/internal/project"
)

//go:generate mockgen -destination=mocks/mock_webhook.go -package=mocks github.com/mattjoyce/traduttore/internal/webhook ProjectFinder,RepositoryUpdater,Scheduler

// ProjectFinder resolves payload repository identity to a stored project.
// project.Locator satisfies it.
type ProjectFinder interface {
	FindRepository(ctx context.Context, fullName string, urls ...string) (*project.Project, error)
}

// RepositoryUpdater persists repository metadata taken from a payload.
// project.Store satisfies it.
type RepositoryUpdater interface {
	UpdateRepository(ctx context.Context, id int64, info project.RepositoryInfo) error
}

// Scheduler starts a sync for an accepted push. Implementations may run it
// inline or hand it to a queue.
type Scheduler interface {
	Schedule(ctx context.Context, p *project.Project, deliveryID string) error
}

// State is a step of the webhook state machine.
type State string

const (
	StateReceived          State = "received"
	StateEventValidated    State = "event_validated"
	StateSignatureVerified State = "signature_verified"
	StateProjectResolved   State = "project_resolved"
	StateBranchChecked     State = "branch_checked"
	StateAccepted          State = "accepted"
	StateRejected          State = "rejected"
	StateIgnored           State = "ignored"
)

// Result strings returned to the hosting provider.
const (
	ResultOK               = "OK"
	ResultNotDefaultBranch = "Not the default branch"
	ResultForbidden        = "forbidden"
	ResultNotFound         = "project not found"
	ResultInvalidPayload   = "invalid payload"
	ResultInternalError    = "internal error"
)

// Event is the transient view of one inbound delivery.
type Event struct {
	Provider  string
	Type      string
	Delivery  string
	Signature string
	Body      []byte
	Push      *Push
}

// Push is the provider-neutral content of a push payload.
type Push struct {
	Ref        string
	Repository Repository
}

// Repository is the repository descriptor carried by a push payload.
type Repository struct {
	HostType      project.HostType
	FullName      string
	URL           string
	SSHURL        string
	HTTPSURL      string
	DefaultBranch string
	Visibility    project.Visibility
}

// Decision is the terminal outcome of Dispatch.
type Decision struct {
	State   State
	Status  int
	Result  string
	Project *project.Project
	Event   *Event
}

// ResultResponse is the JSON body for 200 responses.
type ResultResponse struct {
	Result string `json:"result"`
}

// ErrorResponse is the JSON response for webhook errors.
type ErrorResponse struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

// DefaultMaxBodySize caps request bodies when the server config leaves it unset.
const DefaultMaxBodySize = 1048576 // 1 MB
