package project

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// Lookup is the read side of the project store the locator depends on.
type Lookup interface {
	Get(ctx context.Context, id int64) (*Project, error)
	GetBySlug(ctx context.Context, slug string) (*Project, error)
	FindByRepositoryName(ctx context.Context, fullName string) (*Project, error)
	FindByRepositoryURL(ctx context.Context, rawURL string) (*Project, error)
}

// Locator resolves an identifier (numeric ID, repository URL or slug) to a
// single project.
type Locator struct {
	lookup Lookup
	hosts  []string
}

// NewLocator builds a locator over lookup. extraHosts extends DefaultHosts
// for self-hosted instances.
func NewLocator(lookup Lookup, extraHosts ...string) *Locator {
	hosts := append([]string{}, DefaultHosts...)
	for _, h := range extraHosts {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return &Locator{lookup: lookup, hosts: hosts}
}

// Hosts returns the repository hosts recognised by the locator.
func (l *Locator) Hosts() []string { return l.hosts }

// Locate tries ID, then repository URL, then slug; the first hit wins.
// Malformed identifiers yield ErrNotFound, never a parse error.
func (l *Locator) Locate(ctx context.Context, identifier string) (*Project, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrNotFound
	}

	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil && id > 0 {
		p, err := l.lookup.Get(ctx, id)
		if !errors.Is(err, ErrNotFound) {
			return p, err
		}
	}

	if ref, ok := ParseRepositoryURL(identifier, l.hosts); ok {
		p, err := l.FindRepository(ctx, ref.FullName, identifier)
		if !errors.Is(err, ErrNotFound) {
			return p, err
		}
	}

	return l.lookup.GetBySlug(ctx, identifier)
}

// FindRepository matches by repository full name first, then by any of the
// given URLs. Empty arguments are skipped.
func (l *Locator) FindRepository(ctx context.Context, fullName string, urls ...string) (*Project, error) {
	if fullName != "" {
		p, err := l.lookup.FindByRepositoryName(ctx, fullName)
		if !errors.Is(err, ErrNotFound) {
			return p, err
		}
	}
	for _, u := range urls {
		if u == "" {
			continue
		}
		p, err := l.lookup.FindByRepositoryURL(ctx, u)
		if !errors.Is(err, ErrNotFound) {
			return p, err
		}
	}
	return nil, ErrNotFound
}
