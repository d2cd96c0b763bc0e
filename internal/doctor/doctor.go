// Package doctor checks a traduttore configuration against the host it is
// about to run on.
package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/mattjoyce/traduttore/internal/config"
	"github.com/mattjoyce/traduttore/internal/storage"
	"github.com/mattjoyce/traduttore/internal/webhook"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor validates a loaded configuration.
type Doctor struct {
	cfg      *config.Config
	lookPath func(string) (string, error)
	fsCheck  func(string) error
}

// New creates a Doctor for cfg.
func New(cfg *config.Config) *Doctor {
	return &Doctor{cfg: cfg, lookPath: exec.LookPath, fsCheck: storage.ValidateLocalFilesystem}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.validateGit(r)
	d.validateExtractor(r)
	d.validateStorage(r)
	d.validateCacheDir(r)
	d.warnMissingSecrets(r)
	d.warnInlineTimeouts(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) validateGit(r *Result) {
	bin := d.cfg.Mirror.GitBinary
	if bin == "" {
		bin = "git"
	}
	if _, err := d.lookPath(bin); err != nil {
		d.addError(r, "mirror", "mirror.git_binary", fmt.Sprintf("git binary %q not found: %v", bin, err))
	}
}

func (d *Doctor) validateExtractor(r *Result) {
	cmd := d.cfg.Sync.Extractor.Command
	if len(cmd) == 0 {
		d.addWarning(r, "sync", "sync.extractor.command", "no extractor configured; mirrors are updated but nothing consumes them")
		return
	}
	if _, err := d.lookPath(cmd[0]); err != nil {
		d.addError(r, "sync", "sync.extractor.command", fmt.Sprintf("extractor %q not found: %v", cmd[0], err))
	}
	for _, arg := range cmd {
		if m := envVarPattern.FindStringSubmatch(arg); m != nil {
			d.addWarning(r, "sync", "sync.extractor.command",
				fmt.Sprintf("environment variable ${%s} is not set", m[1]))
		}
	}
}

func (d *Doctor) validateStorage(r *Result) {
	if d.cfg.Database.Driver != "sqlite" {
		return
	}
	if err := d.fsCheck(d.cfg.Database.DSN); err != nil {
		d.addError(r, "database", "database.dsn", err.Error())
	}
}

func (d *Doctor) validateCacheDir(r *Result) {
	dir := d.cfg.Mirror.CacheDir
	if err := d.fsCheck(dir); err != nil {
		d.addWarning(r, "mirror", "mirror.cache_dir",
			fmt.Sprintf("%v; cross-process mirror locks may not hold", err))
	}

	existing := dir
	for {
		if _, err := os.Stat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return
		}
		existing = parent
	}
	tmp, err := os.CreateTemp(existing, ".traduttore-doctor-*")
	if err != nil {
		d.addError(r, "mirror", "mirror.cache_dir", fmt.Sprintf("cache directory is not writable: %v", err))
		return
	}
	_ = tmp.Close()
	_ = os.Remove(tmp.Name())
}

func (d *Doctor) warnMissingSecrets(r *Result) {
	secrets := d.cfg.Webhooks.Secrets
	if len(secrets) == 0 {
		d.addWarning(r, "webhooks", "webhooks.secrets",
			"no provider secrets configured; only projects with their own webhook secret can be updated")
		return
	}
	names := make([]string, 0, len(secrets))
	for name := range secrets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := webhook.ProviderByName(name); !ok {
			d.addWarning(r, "webhooks", "webhooks.secrets."+name,
				fmt.Sprintf("secret configured for unknown provider %q; it is never used", name))
		}
	}
	if d.cfg.Server.LegacyGitHubEndpoint && strings.TrimSpace(secrets["github"]) == "" {
		d.addWarning(r, "webhooks", "webhooks.secrets.github",
			"legacy GitHub endpoint is enabled but no github secret is configured")
	}
}

// warnInlineTimeouts flags inline syncs that may outlive the HTTP response deadline.
func (d *Doctor) warnInlineTimeouts(r *Result) {
	if d.cfg.Sync.Mode != config.SyncModeInline {
		return
	}
	budget := d.cfg.Mirror.NetworkTimeout
	if len(d.cfg.Sync.Extractor.Command) > 0 {
		budget += d.cfg.Sync.Extractor.Timeout
	}
	if d.cfg.Server.WriteTimeout > 0 && d.cfg.Server.WriteTimeout < budget {
		d.addWarning(r, "server", "server.write_timeout",
			fmt.Sprintf("inline sync may take up to %s but write_timeout is %s; senders will see timeouts", budget, d.cfg.Server.WriteTimeout))
	}
}
