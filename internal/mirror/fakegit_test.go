package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// fakeRemote is one upstream repository known to fakeGit.
type fakeRemote struct {
	rev  string
	down bool
}

// fakeGit simulates the git subcommands the manager uses. A clone writes a
// .git directory with the remote revision and origin URL in plain files.
type fakeGit struct {
	mu      sync.Mutex
	remotes map[string]*fakeRemote

	cloneDelay      time.Duration
	failCloneOutput string
	failFetchOutput string

	clones       int
	fetches      int
	activeClones int
	maxActive    int
}

func newFakeGit() *fakeGit {
	return &fakeGit{remotes: map[string]*fakeRemote{}}
}

func (g *fakeGit) setRemote(url, rev string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.remotes[url] = &fakeRemote{rev: rev}
}

func (g *fakeGit) setDown(url string, down bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.remotes[url]; ok {
		r.down = down
	}
}

func (g *fakeGit) counts() (clones, fetches, maxActive int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clones, g.fetches, g.maxActive
}

func unreachable(args []string) error {
	return &GitError{
		Args:   args,
		Output: "fatal: unable to access 'https://example.invalid/': Could not resolve host: example.invalid",
		Err:    errors.New("exit status 128"),
	}
}

func (g *fakeGit) Run(ctx context.Context, dir string, args ...string) (string, error) {
	switch args[0] {
	case "clone":
		return "", g.clone(ctx, args)
	case "rev-parse":
		b, err := os.ReadFile(filepath.Join(dir, ".git", "FAKE_HEAD"))
		if err != nil {
			return "", &GitError{Args: args, Output: "fatal: not a git repository", Err: errors.New("exit status 128")}
		}
		return strings.TrimSpace(string(b)), nil
	case "fetch":
		return "", g.fetch(ctx, dir, args)
	case "reset":
		b, err := os.ReadFile(filepath.Join(dir, ".git", "FAKE_FETCH"))
		if err != nil {
			return "", &GitError{Args: args, Output: "fatal: ambiguous argument 'FETCH_HEAD'", Err: errors.New("exit status 128")}
		}
		return "", os.WriteFile(filepath.Join(dir, ".git", "FAKE_HEAD"), b, 0o644)
	case "clean":
		return "", nil
	}
	return "", fmt.Errorf("fake git: unsupported subcommand %q", args[0])
}

func (g *fakeGit) clone(ctx context.Context, args []string) error {
	url, dest := args[len(args)-2], args[len(args)-1]

	g.mu.Lock()
	g.clones++
	g.activeClones++
	if g.activeClones > g.maxActive {
		g.maxActive = g.activeClones
	}
	r := g.remotes[url]
	var rev string
	down := r == nil
	if r != nil {
		rev, down = r.rev, r.down
	}
	delay, failOutput := g.cloneDelay, g.failCloneOutput
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.activeClones--
		g.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return &GitError{Args: args, Err: ctx.Err()}
		}
	}
	if down {
		return unreachable(args)
	}
	if failOutput != "" {
		return &GitError{Args: args, Output: failOutput, Err: errors.New("exit status 128")}
	}

	gitDir := filepath.Join(dest, ".git")
	if err := os.MkdirAll(gitDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(gitDir, "FAKE_HEAD"), []byte(rev), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dest, "README.md"), []byte("# "+rev), 0o644)
}

func (g *fakeGit) fetch(ctx context.Context, dir string, args []string) error {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return &GitError{Args: args, Output: "fatal: not a git repository", Err: errors.New("exit status 128")}
	}
	url := args[len(args)-2]

	g.mu.Lock()
	g.fetches++
	r := g.remotes[url]
	failOutput := g.failFetchOutput
	var rev string
	down := r == nil
	if r != nil {
		rev, down = r.rev, r.down
	}
	g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &GitError{Args: args, Err: err}
	}
	if down {
		return unreachable(args)
	}
	if failOutput != "" {
		return &GitError{Args: args, Output: failOutput, Err: errors.New("exit status 128")}
	}
	return os.WriteFile(filepath.Join(dir, ".git", "FAKE_FETCH"), []byte(rev), 0o644)
}
