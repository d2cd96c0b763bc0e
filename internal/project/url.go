package project

import (
	"net/url"
	"strings"
)

// DefaultHosts are the hosting providers whose repository URLs the locator
// understands without extra configuration.
var DefaultHosts = []string{"github.com", "gitlab.com", "bitbucket.org"}

// RepoRef is a repository reference extracted from a URL.
type RepoRef struct {
	Host     string
	FullName string // "org/repo", GitLab subgroups included
}

// ParseRepositoryURL extracts host and full name from an https, http,
// ssh:// or scp-style (git@host:org/repo.git) URL. Hosts not in hosts are
// rejected.
func ParseRepositoryURL(raw string, hosts []string) (RepoRef, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RepoRef{}, false
	}

	var host, path string
	switch {
	case strings.Contains(raw, "://"):
		u, err := url.Parse(raw)
		if err != nil {
			return RepoRef{}, false
		}
		switch u.Scheme {
		case "https", "http", "ssh", "git+ssh":
		default:
			return RepoRef{}, false
		}
		host = u.Hostname()
		path = u.Path
	default:
		// scp-like syntax: [user@]host:path
		at := strings.Index(raw, "@")
		colon := strings.Index(raw, ":")
		if colon <= 0 || (at >= 0 && at > colon) {
			return RepoRef{}, false
		}
		host = raw[at+1 : colon]
		path = raw[colon+1:]
	}

	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	if !knownHost(host, hosts) {
		return RepoRef{}, false
	}

	segments := splitPath(path)
	if host == "github.com" || host == "bitbucket.org" {
		// Deep links such as /org/repo/tree/main still name org/repo.
		if len(segments) > 2 {
			segments = segments[:2]
		}
	}
	if len(segments) < 2 {
		return RepoRef{}, false
	}
	return RepoRef{Host: host, FullName: strings.Join(segments, "/")}, true
}

// HostTypeFor maps a hostname to its provider, HostUnknown for anything else.
func HostTypeFor(host string) HostType {
	switch strings.TrimPrefix(strings.ToLower(host), "www.") {
	case "github.com":
		return HostGitHub
	case "gitlab.com":
		return HostGitLab
	case "bitbucket.org":
		return HostBitbucket
	default:
		return HostUnknown
	}
}

// NormalizeURL strips surrounding space, trailing slashes and a ".git"
// suffix so stored and supplied URLs compare equal.
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimRight(s, "/")
	s = strings.TrimSuffix(s, ".git")
	return strings.TrimRight(s, "/")
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	p = strings.TrimSuffix(p, ".git")
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func knownHost(host string, hosts []string) bool {
	if host == "" {
		return false
	}
	for _, h := range hosts {
		if strings.EqualFold(strings.TrimPrefix(strings.ToLower(h), "www."), host) {
			return true
		}
	}
	return false
}
