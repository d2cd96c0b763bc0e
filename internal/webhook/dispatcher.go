package webhook

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/mattjoyce/traduttore/internal/project"
)

// Dispatcher runs one delivery through the state machine
// received → event_validated → signature_verified → project_resolved →
// branch_checked → accepted, stopping early at rejected or ignored.
type Dispatcher struct {
	finder    ProjectFinder
	updater   RepositoryUpdater
	secrets   SecretResolver
	scheduler Scheduler
	logger    *slog.Logger
}

func NewDispatcher(finder ProjectFinder, updater RepositoryUpdater, secrets SecretResolver, scheduler Scheduler, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		finder:    finder,
		updater:   updater,
		secrets:   secrets,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Dispatch decides what to do with a delivery. A nil provider means no
// provider could be detected and is rejected like a missing event header.
//
// Every authentication failure yields the same 401 so callers cannot tell
// which check failed. A missing project is only reported once the signature
// has been verified.
func (d *Dispatcher) Dispatch(ctx context.Context, p Provider, h http.Header, body []byte) Decision {
	if p == nil {
		d.logger.Warn("webhook provider not detected")
		return forbidden(nil)
	}

	ev := &Event{
		Provider:  p.Name(),
		Type:      p.EventType(h),
		Delivery:  p.DeliveryID(h),
		Signature: p.Signature(h),
		Body:      body,
	}
	if ev.Delivery == "" {
		ev.Delivery = uuid.NewString()
	}
	logger := d.logger.With("provider", ev.Provider, "event", ev.Type, "delivery_id", ev.Delivery)

	// received → event_validated
	if ev.Type == "" || !p.SupportsEvent(ev.Type) {
		logger.Warn("webhook event rejected", "reason", "unsupported event")
		return forbidden(ev)
	}
	if p.IsPing(ev.Type) {
		logger.Info("webhook ping")
		return Decision{State: StateAccepted, Status: http.StatusOK, Result: ResultOK, Event: ev}
	}
	if ev.Signature == "" {
		logger.Warn("webhook event rejected", "reason", "signature missing")
		return forbidden(ev)
	}

	// Candidate lookup happens before verification because the secret may be
	// per project. Nothing about it is revealed until the signature holds.
	push, parseErr := p.Parse(body)
	var (
		candidate *project.Project
		lookupErr error
	)
	if parseErr == nil {
		ev.Push = push
		r := push.Repository
		candidate, lookupErr = d.finder.FindRepository(ctx, r.FullName, r.URL, r.HTTPSURL, r.SSHURL)
		if errors.Is(lookupErr, project.ErrNotFound) {
			candidate, lookupErr = nil, nil
		}
	}

	// event_validated → signature_verified
	secret := d.secrets.Secret(ev.Provider, candidate)
	if !p.Verify(secret, body, ev.Signature) {
		logger.Warn("webhook event rejected", "reason", "signature verification failed")
		return forbidden(ev)
	}

	if parseErr != nil {
		logger.Warn("webhook payload invalid", "error", parseErr)
		return Decision{State: StateRejected, Status: http.StatusBadRequest, Result: ResultInvalidPayload, Event: ev}
	}
	if lookupErr != nil {
		logger.Error("project lookup failed", "error", lookupErr)
		return Decision{State: StateRejected, Status: http.StatusInternalServerError, Result: ResultInternalError, Event: ev}
	}

	// signature_verified → project_resolved
	if candidate == nil {
		logger.Info("webhook project not found", "repository", push.Repository.FullName)
		return Decision{State: StateRejected, Status: http.StatusNotFound, Result: ResultNotFound, Event: ev}
	}
	logger = logger.With("project_id", candidate.ID)

	// project_resolved → branch_checked
	defaultBranch := candidate.DefaultBranch
	if defaultBranch == "" {
		defaultBranch = push.Repository.DefaultBranch
	}
	branch, isBranch := BranchFromRef(push.Ref)
	if !isBranch || defaultBranch == "" || branch != defaultBranch {
		logger.Info("webhook push ignored", "ref", push.Ref, "default_branch", defaultBranch)
		return Decision{State: StateIgnored, Status: http.StatusOK, Result: ResultNotDefaultBranch, Project: candidate, Event: ev}
	}

	// branch_checked → accepted
	r := push.Repository
	info := project.RepositoryInfo{
		VCSType:       project.VCSGit,
		HostType:      r.HostType,
		Name:          r.FullName,
		URL:           r.URL,
		SSHURL:        r.SSHURL,
		HTTPSURL:      r.HTTPSURL,
		DefaultBranch: r.DefaultBranch,
		Visibility:    r.Visibility,
	}
	if err := d.updater.UpdateRepository(ctx, candidate.ID, info); err != nil {
		logger.Error("update repository info failed", "error", err)
		return Decision{State: StateRejected, Status: http.StatusInternalServerError, Result: ResultInternalError, Project: candidate, Event: ev}
	}
	updated := applyRepositoryInfo(*candidate, info)

	if err := d.scheduler.Schedule(ctx, &updated, ev.Delivery); err != nil {
		logger.Error("schedule sync failed", "error", err)
	} else {
		logger.Info("webhook push accepted", "ref", push.Ref)
	}
	return Decision{State: StateAccepted, Status: http.StatusOK, Result: ResultOK, Project: &updated, Event: ev}
}

func forbidden(ev *Event) Decision {
	return Decision{State: StateRejected, Status: http.StatusUnauthorized, Result: ResultForbidden, Event: ev}
}

// applyRepositoryInfo mirrors project.Store.UpdateRepository on an in-memory copy.
func applyRepositoryInfo(p project.Project, info project.RepositoryInfo) project.Project {
	p.VCSType = info.VCSType
	p.HostType = info.HostType
	p.RepositoryName = info.Name
	p.RepositoryURL = info.URL
	p.SSHURL = info.SSHURL
	p.HTTPSURL = info.HTTPSURL
	p.Visibility = info.Visibility
	if p.DefaultBranch == "" {
		p.DefaultBranch = info.DefaultBranch
	}
	return p
}
