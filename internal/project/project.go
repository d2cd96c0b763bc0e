// Package project holds the translation project record, its persistence and
// the locator that resolves user or webhook supplied identifiers to it.
package project

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no project matches an identifier.
var ErrNotFound = errors.New("project not found")

type VCSType string

const VCSGit VCSType = "git"

// HostType names the hosting provider a repository lives on.
type HostType string

const (
	HostGitHub    HostType = "github"
	HostGitLab    HostType = "gitlab"
	HostBitbucket HostType = "bitbucket"
	HostUnknown   HostType = "unknown"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Project is a GlotPress-style translation project with its source
// repository descriptor.
type Project struct {
	ID   int64
	Slug string // project path, e.g. "required/required-valencia"
	Name string

	VCSType        VCSType
	HostType       HostType
	RepositoryName string // full name, e.g. "wearerequired/traduttore"
	RepositoryURL  string // canonical web URL
	SSHURL         string
	HTTPSURL       string
	DefaultBranch  string
	Visibility     Visibility

	// WebhookSecret overrides the per-provider secret when set.
	WebhookSecret string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RepositoryInfo is the subset of Project refreshed from a webhook payload.
type RepositoryInfo struct {
	VCSType       VCSType
	HostType      HostType
	Name          string
	URL           string
	SSHURL        string
	HTTPSURL      string
	DefaultBranch string
	Visibility    Visibility
}

// CloneURL picks the URL to clone from. SSH is preferred unless preferHTTPS
// is set; either way the other URL is used when the preferred one is empty.
func (p *Project) CloneURL(preferHTTPS bool) string {
	first, second := p.SSHURL, p.HTTPSURL
	if preferHTTPS {
		first, second = second, first
	}
	if first != "" {
		return first
	}
	return second
}
