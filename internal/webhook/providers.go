package webhook

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/mattjoyce/traduttore/internal/project"
)

// Provider names.
const (
	ProviderGitHub    = "github"
	ProviderGitLab    = "gitlab"
	ProviderBitbucket = "bitbucket"
	ProviderGeneric   = "generic"
)

// Provider captures what differs between hosting providers: how the event
// and signature travel in headers, how the signature is checked and how the
// push payload is shaped.
type Provider interface {
	Name() string
	EventType(h http.Header) string
	SupportsEvent(event string) bool
	IsPing(event string) bool
	Signature(h http.Header) string
	DeliveryID(h http.Header) string
	Verify(secret string, body []byte, signature string) bool
	Parse(body []byte) (*Push, error)
}

var errEmptyPayload = errors.New("empty payload")

// Providers lists the supported providers in detection order.
var Providers = []Provider{GitHub{}, GitLab{}, Bitbucket{}, Generic{}}

// detectHeaders maps each provider to the header that identifies it.
var detectHeaders = map[string]string{
	ProviderGitHub:    "X-GitHub-Event",
	ProviderGitLab:    "X-Gitlab-Event",
	ProviderBitbucket: "X-Event-Key",
	ProviderGeneric:   "X-Traduttore-Event",
}

// Detect returns the provider whose event header is present.
func Detect(h http.Header) (Provider, bool) {
	for _, p := range Providers {
		if h.Get(detectHeaders[p.Name()]) != "" {
			return p, true
		}
	}
	return nil, false
}

// ProviderByName returns a provider by its configuration name.
func ProviderByName(name string) (Provider, bool) {
	for _, p := range Providers {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// GitHub implements GitHub's ping/push deliveries with X-Hub-Signature(-256).
type GitHub struct{}

func (GitHub) Name() string                   { return ProviderGitHub }
func (GitHub) EventType(h http.Header) string { return h.Get("X-GitHub-Event") }
func (GitHub) SupportsEvent(e string) bool    { return e == "ping" || e == "push" }
func (GitHub) IsPing(e string) bool           { return e == "ping" }
func (GitHub) Signature(h http.Header) string { return hubSignature(h) }
func (GitHub) DeliveryID(h http.Header) string {
	return h.Get("X-GitHub-Delivery")
}
func (GitHub) Verify(secret string, body []byte, sig string) bool {
	return VerifySignature(secret, body, sig)
}

type githubPayload struct {
	Ref        string `json:"ref"`
	Repository struct {
		FullName      string `json:"full_name"`
		HTMLURL       string `json:"html_url"`
		SSHURL        string `json:"ssh_url"`
		CloneURL      string `json:"clone_url"`
		DefaultBranch string `json:"default_branch"`
		Private       bool   `json:"private"`
	} `json:"repository"`
}

func (GitHub) Parse(body []byte) (*Push, error) {
	var p githubPayload
	if err := decode(body, &p); err != nil {
		return nil, err
	}
	r := p.Repository
	return &Push{
		Ref: p.Ref,
		Repository: Repository{
			HostType:      project.HostGitHub,
			FullName:      r.FullName,
			URL:           r.HTMLURL,
			SSHURL:        r.SSHURL,
			HTTPSURL:      r.CloneURL,
			DefaultBranch: r.DefaultBranch,
			Visibility:    visibility(r.Private),
		},
	}, nil
}

// GitLab implements GitLab push hooks authenticated by X-Gitlab-Token.
type GitLab struct{}

func (GitLab) Name() string                   { return ProviderGitLab }
func (GitLab) EventType(h http.Header) string { return h.Get("X-Gitlab-Event") }
func (GitLab) SupportsEvent(e string) bool    { return e == "Push Hook" }
func (GitLab) IsPing(string) bool             { return false }
func (GitLab) Signature(h http.Header) string { return h.Get("X-Gitlab-Token") }
func (GitLab) DeliveryID(h http.Header) string {
	return h.Get("X-Gitlab-Event-UUID")
}
func (GitLab) Verify(secret string, _ []byte, token string) bool {
	return VerifyToken(secret, token)
}

// gitlabPublic is GitLab's visibility_level for public projects.
const gitlabPublic = 20

type gitlabPayload struct {
	Ref     string `json:"ref"`
	Project struct {
		PathWithNamespace string `json:"path_with_namespace"`
		WebURL            string `json:"web_url"`
		GitSSHURL         string `json:"git_ssh_url"`
		GitHTTPURL        string `json:"git_http_url"`
		DefaultBranch     string `json:"default_branch"`
		VisibilityLevel   int    `json:"visibility_level"`
	} `json:"project"`
}

func (GitLab) Parse(body []byte) (*Push, error) {
	var p gitlabPayload
	if err := decode(body, &p); err != nil {
		return nil, err
	}
	r := p.Project
	return &Push{
		Ref: p.Ref,
		Repository: Repository{
			HostType:      project.HostGitLab,
			FullName:      r.PathWithNamespace,
			URL:           r.WebURL,
			SSHURL:        r.GitSSHURL,
			HTTPSURL:      r.GitHTTPURL,
			DefaultBranch: r.DefaultBranch,
			Visibility:    visibility(r.VisibilityLevel != gitlabPublic),
		},
	}, nil
}

// Bitbucket implements Bitbucket Cloud deliveries signed with X-Hub-Signature.
type Bitbucket struct{}

func (Bitbucket) Name() string                   { return ProviderBitbucket }
func (Bitbucket) EventType(h http.Header) string { return h.Get("X-Event-Key") }
func (Bitbucket) SupportsEvent(e string) bool {
	return e == "diagnostics:ping" || e == "repo:push"
}
func (Bitbucket) IsPing(e string) bool           { return e == "diagnostics:ping" }
func (Bitbucket) Signature(h http.Header) string { return h.Get("X-Hub-Signature") }
func (Bitbucket) DeliveryID(h http.Header) string {
	return h.Get("X-Request-UUID")
}
func (Bitbucket) Verify(secret string, body []byte, sig string) bool {
	return VerifySignature(secret, body, sig)
}

type bitbucketPayload struct {
	Repository struct {
		FullName  string `json:"full_name"`
		IsPrivate bool   `json:"is_private"`
		Links     struct {
			HTML struct {
				Href string `json:"href"`
			} `json:"html"`
		} `json:"links"`
		MainBranch *struct {
			Name string `json:"name"`
		} `json:"mainbranch"`
	} `json:"repository"`
	Push struct {
		Changes []struct {
			New *struct {
				Type string `json:"type"`
				Name string `json:"name"`
			} `json:"new"`
		} `json:"changes"`
	} `json:"push"`
}

// Bitbucket push payloads carry no clone URLs; they are derived from the
// full name.
func (Bitbucket) Parse(body []byte) (*Push, error) {
	var p bitbucketPayload
	if err := decode(body, &p); err != nil {
		return nil, err
	}
	r := p.Repository

	var ref string
	for _, c := range p.Push.Changes {
		if c.New == nil {
			continue
		}
		switch c.New.Type {
		case "branch":
			ref = "refs/heads/" + c.New.Name
		case "tag":
			ref = "refs/tags/" + c.New.Name
		}
		break
	}

	repo := Repository{
		HostType:   project.HostBitbucket,
		FullName:   r.FullName,
		URL:        r.Links.HTML.Href,
		Visibility: visibility(r.IsPrivate),
	}
	if r.FullName != "" {
		repo.SSHURL = "git@bitbucket.org:" + r.FullName + ".git"
		repo.HTTPSURL = "https://bitbucket.org/" + r.FullName + ".git"
		if repo.URL == "" {
			repo.URL = "https://bitbucket.org/" + r.FullName
		}
	}
	if r.MainBranch != nil {
		repo.DefaultBranch = r.MainBranch.Name
	}
	return &Push{Ref: ref, Repository: repo}, nil
}

// Generic accepts deliveries from self-hosted forges or CI using the
// GitHub signature scheme and a neutral payload.
type Generic struct{}

func (Generic) Name() string                   { return ProviderGeneric }
func (Generic) EventType(h http.Header) string { return h.Get("X-Traduttore-Event") }
func (Generic) SupportsEvent(e string) bool    { return e == "ping" || e == "push" }
func (Generic) IsPing(e string) bool           { return e == "ping" }
func (Generic) Signature(h http.Header) string { return hubSignature(h) }
func (Generic) DeliveryID(h http.Header) string {
	return h.Get("X-Traduttore-Delivery")
}
func (Generic) Verify(secret string, body []byte, sig string) bool {
	return VerifySignature(secret, body, sig)
}

type genericPayload struct {
	Ref        string `json:"ref"`
	Repository struct {
		FullName      string `json:"full_name"`
		URL           string `json:"url"`
		SSHURL        string `json:"ssh_url"`
		HTTPSURL      string `json:"https_url"`
		DefaultBranch string `json:"default_branch"`
		Visibility    string `json:"visibility"`
	} `json:"repository"`
}

func (Generic) Parse(body []byte) (*Push, error) {
	var p genericPayload
	if err := decode(body, &p); err != nil {
		return nil, err
	}
	r := p.Repository
	return &Push{
		Ref: p.Ref,
		Repository: Repository{
			HostType:      hostTypeOf(r.URL, r.HTTPSURL),
			FullName:      r.FullName,
			URL:           r.URL,
			SSHURL:        r.SSHURL,
			HTTPSURL:      r.HTTPSURL,
			DefaultBranch: r.DefaultBranch,
			Visibility:    visibility(!strings.EqualFold(r.Visibility, string(project.VisibilityPublic))),
		},
	}, nil
}

// BranchFromRef returns the branch of a refs/heads ref. Tags and other refs
// report false.
func BranchFromRef(ref string) (string, bool) {
	b, ok := strings.CutPrefix(ref, "refs/heads/")
	if !ok || b == "" {
		return "", false
	}
	return b, true
}

func hubSignature(h http.Header) string {
	if sig := h.Get("X-Hub-Signature-256"); sig != "" {
		return sig
	}
	return h.Get("X-Hub-Signature")
}

func decode(body []byte, v any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return errEmptyPayload
	}
	return json.Unmarshal(body, v)
}

func visibility(private bool) project.Visibility {
	if private {
		return project.VisibilityPrivate
	}
	return project.VisibilityPublic
}

func hostTypeOf(urls ...string) project.HostType {
	for _, raw := range urls {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			return project.HostTypeFor(u.Hostname())
		}
	}
	return project.HostUnknown
}
