// Package mirror owns the on-disk repository mirrors, one per project.
//
// A mirror lives at <cache_dir>/<project id> and is either absent, a valid
// checkout or locked by the sync that is updating it. Clones are built in a
// temporary sibling directory and renamed into place, so a mirror path never
// holds a partial checkout.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mattjoyce/traduttore/internal/lock"
	"github.com/mattjoyce/traduttore/internal/project"
)

const (
	// DefaultNetworkTimeout bounds every clone and fetch.
	DefaultNetworkTimeout = 5 * time.Minute

	locksDir  = ".locks"
	tmpPrefix = ".tmp-"
)

// LocalMirror describes a mirror after a successful sync.
type LocalMirror struct {
	ProjectID int64
	Dir       string
	Revision  string
	Cloned    bool // true when this sync produced a fresh clone
}

// Options configures a Manager.
type Options struct {
	CacheDir       string
	PreferHTTPS    bool
	NetworkTimeout time.Duration
	Git            Git
	Logger         *slog.Logger
}

// CleanupReport summarizes a Prune run.
type CleanupReport struct {
	DeletedDirs int
}

// Manager performs clone-or-update and removal of project mirrors. Calls
// for one project are serialized in-process by a keyed mutex and across
// processes by a flock(2) file; different projects proceed in parallel.
type Manager struct {
	cacheDir    string
	preferHTTPS bool
	timeout     time.Duration
	git         Git
	logger      *slog.Logger
	locks       *lock.Keyed[int64]
	now         func() time.Time
}

func NewManager(opts Options) (*Manager, error) {
	dir := strings.TrimSpace(opts.CacheDir)
	if dir == "" {
		return nil, fmt.Errorf("mirror cache directory is empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve cache directory: %w", err)
	}
	if opts.NetworkTimeout <= 0 {
		opts.NetworkTimeout = DefaultNetworkTimeout
	}
	if opts.Git == nil {
		opts.Git = ExecGit{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		cacheDir:    abs,
		preferHTTPS: opts.PreferHTTPS,
		timeout:     opts.NetworkTimeout,
		git:         opts.Git,
		logger:      opts.Logger,
		locks:       lock.NewKeyed[int64](),
		now:         time.Now,
	}, nil
}

// CacheDir returns the absolute cache root.
func (m *Manager) CacheDir() string { return m.cacheDir }

// Path returns the mirror directory for a project ID.
func (m *Manager) Path(projectID int64) string {
	return filepath.Join(m.cacheDir, strconv.FormatInt(projectID, 10))
}

// Exists reports whether a mirror directory is present for the project.
func (m *Manager) Exists(projectID int64) bool {
	info, err := os.Stat(m.Path(projectID))
	return err == nil && info.IsDir()
}

// EnsureMirror clones or updates the project's mirror to the remote tip of
// its default branch.
func (m *Manager) EnsureMirror(ctx context.Context, p *project.Project) (LocalMirror, error) {
	return m.WithMirror(ctx, p, nil)
}

// WithMirror runs EnsureMirror and, on success, calls fn with the mirror
// before the project lock is released. fn must not retain the directory.
func (m *Manager) WithMirror(ctx context.Context, p *project.Project, fn func(ctx context.Context, mirror LocalMirror)) (LocalMirror, error) {
	if p == nil || p.ID <= 0 {
		return LocalMirror{}, &SyncError{Kind: KindUnrecoverable, Op: "ensure", Err: errors.New("invalid project")}
	}

	unlock, err := m.lock(ctx, p.ID)
	if err != nil {
		return LocalMirror{}, &SyncError{Kind: KindLocalIO, Op: "lock", Err: err}
	}
	defer unlock()

	mirror, err := m.ensureLocked(ctx, p)
	if err != nil {
		return LocalMirror{}, err
	}
	if fn != nil {
		fn(ctx, mirror)
	}
	return mirror, nil
}

// RemoveLocalRepository deletes the project's mirror and any leftover
// temporary clones. A missing mirror is not an error.
func (m *Manager) RemoveLocalRepository(ctx context.Context, p *project.Project) error {
	if p == nil || p.ID <= 0 {
		return &SyncError{Kind: KindLocalIO, Op: "remove", Err: errors.New("invalid project")}
	}

	unlock, err := m.lock(ctx, p.ID)
	if err != nil {
		return &SyncError{Kind: KindLocalIO, Op: "lock", Err: err}
	}
	defer unlock()

	if err := m.removeLocked(p.ID); err != nil {
		return &SyncError{Kind: KindLocalIO, Op: "remove", Err: err}
	}
	m.logger.Info("mirror removed", "project_id", p.ID, "dir", m.Path(p.ID))
	return nil
}

// Prune removes temporary clone directories older than olderThan, left
// behind by processes that died mid-clone.
func (m *Manager) Prune(ctx context.Context, olderThan time.Duration) (CleanupReport, error) {
	if err := ctx.Err(); err != nil {
		return CleanupReport{}, err
	}
	if olderThan <= 0 {
		return CleanupReport{}, fmt.Errorf("olderThan must be positive")
	}

	entries, err := os.ReadDir(m.cacheDir)
	if os.IsNotExist(err) {
		return CleanupReport{}, nil
	}
	if err != nil {
		return CleanupReport{}, fmt.Errorf("read cache directory: %w", err)
	}

	cutoff := m.now().Add(-olderThan)
	report := CleanupReport{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), tmpPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return report, fmt.Errorf("read cache entry info %q: %w", entry.Name(), err)
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(m.cacheDir, entry.Name())); err != nil {
			return report, fmt.Errorf("remove temporary clone %q: %w", entry.Name(), err)
		}
		report.DeletedDirs++
	}
	return report, nil
}

// lock takes the in-process key first, then the cross-process file lock.
func (m *Manager) lock(ctx context.Context, projectID int64) (func(), error) {
	unlockKey, err := m.locks.Lock(ctx, projectID)
	if err != nil {
		return nil, err
	}
	lockPath := filepath.Join(m.cacheDir, locksDir, strconv.FormatInt(projectID, 10)+".lock")
	fl, err := lock.Acquire(ctx, lockPath)
	if err != nil {
		unlockKey()
		return nil, err
	}
	return func() {
		_ = fl.Release()
		unlockKey()
	}, nil
}

func (m *Manager) ensureLocked(ctx context.Context, p *project.Project) (LocalMirror, error) {
	logger := m.logger.With("project_id", p.ID)
	cloneURL := p.CloneURL(m.preferHTTPS)
	if cloneURL == "" {
		return LocalMirror{}, &SyncError{Kind: KindUnrecoverable, Op: "ensure", Err: ErrNoCloneURL}
	}
	dir := m.Path(p.ID)

	_, statErr := os.Stat(dir)
	switch {
	case os.IsNotExist(statErr):
		return m.cloneFresh(ctx, p, cloneURL)
	case statErr != nil:
		return LocalMirror{}, &SyncError{Kind: KindLocalIO, Op: "stat", Err: statErr}
	}

	if m.isValid(ctx, dir, cloneURL) {
		rev, err := m.update(ctx, dir, cloneURL, p.DefaultBranch)
		if err == nil {
			logger.Info("mirror updated", "revision", rev)
			return LocalMirror{ProjectID: p.ID, Dir: dir, Revision: rev}, nil
		}
		if kind, ok := classify(err); ok {
			// Remote and local I/O failures leave the mirror in place.
			return LocalMirror{}, &SyncError{Kind: kind, Op: "update", Err: err}
		}
		logger.Warn("mirror update failed, recloning", "error", err)
	} else {
		logger.Warn("mirror corrupt or repointed, recloning", "dir", dir)
	}

	if err := m.removeLocked(p.ID); err != nil {
		return LocalMirror{}, &SyncError{Kind: KindLocalIO, Op: "remove", Err: err}
	}
	return m.cloneFresh(ctx, p, cloneURL)
}

// cloneFresh clones into a temporary sibling and renames it into place.
// Failures that are neither remote nor local I/O are unrecoverable.
func (m *Manager) cloneFresh(ctx context.Context, p *project.Project, cloneURL string) (LocalMirror, error) {
	if err := os.MkdirAll(m.cacheDir, 0o755); err != nil {
		return LocalMirror{}, &SyncError{Kind: KindLocalIO, Op: "clone", Err: err}
	}
	tmp, err := os.MkdirTemp(m.cacheDir, fmt.Sprintf("%s%d-", tmpPrefix, p.ID))
	if err != nil {
		return LocalMirror{}, &SyncError{Kind: KindLocalIO, Op: "clone", Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(tmp)
		}
	}()

	args := []string{"clone", "--quiet", "--no-tags"}
	if p.DefaultBranch != "" {
		args = append(args, "--branch", p.DefaultBranch)
	}
	args = append(args, "--", cloneURL, tmp)

	netCtx, cancel := context.WithTimeout(ctx, m.timeout)
	_, err = m.git.Run(netCtx, "", args...)
	cancel()
	if err != nil {
		return LocalMirror{}, m.syncErr("clone", err)
	}

	if err := writeStamp(tmp, cloneURL); err != nil {
		return LocalMirror{}, &SyncError{Kind: KindLocalIO, Op: "clone", Err: err}
	}
	dir := m.Path(p.ID)
	if err := os.Rename(tmp, dir); err != nil {
		return LocalMirror{}, &SyncError{Kind: KindLocalIO, Op: "clone", Err: err}
	}
	committed = true

	rev, err := m.git.Run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return LocalMirror{}, m.syncErr("clone", err)
	}
	m.logger.Info("mirror cloned", "project_id", p.ID, "dir", dir, "revision", rev)
	return LocalMirror{ProjectID: p.ID, Dir: dir, Revision: rev, Cloned: true}, nil
}

// update fetches the default branch (remote HEAD when unset) and resets the
// working tree to it. The fetch names the clone URL rather than the origin
// remote: the stamp already pins the URL, and a mirror whose remote config
// was lost still updates.
func (m *Manager) update(ctx context.Context, dir, cloneURL, branch string) (string, error) {
	if branch == "" {
		branch = "HEAD"
	}

	netCtx, cancel := context.WithTimeout(ctx, m.timeout)
	_, err := m.git.Run(netCtx, dir, "fetch", "--quiet", "--no-tags", "--", cloneURL, branch)
	cancel()
	if err != nil {
		return "", err
	}
	if _, err := m.git.Run(ctx, dir, "reset", "--quiet", "--hard", "FETCH_HEAD"); err != nil {
		return "", err
	}
	if _, err := m.git.Run(ctx, dir, "clean", "-ffdxq"); err != nil {
		return "", err
	}
	return m.git.Run(ctx, dir, "rev-parse", "HEAD")
}

// isValid checks for a readable .git, a resolvable HEAD and a matching
// origin stamp.
func (m *Manager) isValid(ctx context.Context, dir, cloneURL string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	if err != nil || !info.IsDir() {
		return false
	}
	if !stampMatches(dir, cloneURL) {
		return false
	}
	_, err = m.git.Run(ctx, dir, "rev-parse", "--verify", "--quiet", "HEAD")
	return err == nil
}

func (m *Manager) removeLocked(projectID int64) error {
	if err := os.RemoveAll(m.Path(projectID)); err != nil {
		return err
	}
	leftovers, _ := filepath.Glob(filepath.Join(m.cacheDir, fmt.Sprintf("%s%d-*", tmpPrefix, projectID)))
	for _, dir := range leftovers {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) syncErr(op string, err error) *SyncError {
	if kind, ok := classify(err); ok {
		return &SyncError{Kind: kind, Op: op, Err: err}
	}
	return &SyncError{Kind: KindUnrecoverable, Op: op, Err: err}
}
