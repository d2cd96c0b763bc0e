package syncer

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/traduttore/internal/mirror"
	"github.com/mattjoyce/traduttore/internal/project"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed")
	}
}

func TestCommandExtractorRunsInMirrorDir(t *testing.T) {
	requireShell(t)
	t.Parallel()

	dir := t.TempDir()
	p := &project.Project{ID: 42, Slug: "acme/app"}
	m := mirror.LocalMirror{ProjectID: 42, Dir: dir, Revision: "abc"}

	ex := CommandExtractor{
		Command: []string{"sh", "-c", `pwd -P; echo "$1 $2 $TRADUTTORE_REVISION" > out.txt`, "extract", "{project_id}", "{slug}"},
		Logger:  testLogger(),
	}
	out, err := ex.Extract(context.Background(), p, m)
	require.NoError(t, err)
	require.NotNil(t, out)

	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, resolved, strings.TrimSpace(out.Stdout))

	b, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "42 acme/app abc\n", string(b))
}

func TestCommandExtractorNonZeroExit(t *testing.T) {
	requireShell(t)
	t.Parallel()

	ex := CommandExtractor{Command: []string{"sh", "-c", "echo nope >&2; exit 3"}, Logger: testLogger()}
	out, err := ex.Extract(context.Background(), &project.Project{ID: 1}, mirror.LocalMirror{Dir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 3")
	assert.Contains(t, err.Error(), "nope")
	require.NotNil(t, out)
	assert.Equal(t, "nope\n", out.Stderr)
}

func TestCommandExtractorTimeout(t *testing.T) {
	requireShell(t)
	t.Parallel()

	ex := CommandExtractor{
		Command: []string{"sh", "-c", "sleep 30"},
		Timeout: 100 * time.Millisecond,
		Logger:  testLogger(),
	}
	start := time.Now()
	_, err := ex.Extract(context.Background(), &project.Project{ID: 1}, mirror.LocalMirror{Dir: t.TempDir()})
	assert.True(t, errors.Is(err, ErrExtractTimeout), "got %v", err)
	assert.Less(t, time.Since(start), terminationGracePeriod+2*time.Second)
}

func TestCommandExtractorTimeoutKillsIgnoringDescendants(t *testing.T) {
	requireShell(t)
	t.Parallel()

	// Both the shell and its backgrounded child ignore SIGTERM and share
	// the output pipes, so only SIGKILL to the group ends the run.
	ex := CommandExtractor{
		Command: []string{"sh", "-c", "trap '' TERM; sleep 30 & wait"},
		Timeout: 100 * time.Millisecond,
		Logger:  testLogger(),
	}
	start := time.Now()
	_, err := ex.Extract(context.Background(), &project.Project{ID: 1}, mirror.LocalMirror{Dir: t.TempDir()})
	assert.True(t, errors.Is(err, ErrExtractTimeout), "got %v", err)
	assert.Less(t, time.Since(start), terminationGracePeriod+2*time.Second)
}

func TestCommandExtractorCancelled(t *testing.T) {
	requireShell(t)
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	ex := CommandExtractor{Command: []string{"sh", "-c", "sleep 30"}, Timeout: time.Minute, Logger: testLogger()}
	start := time.Now()
	_, err := ex.Extract(ctx, &project.Project{ID: 1}, mirror.LocalMirror{Dir: t.TempDir()})
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Less(t, time.Since(start), terminationGracePeriod)
}

func TestCommandExtractorEmptyCommand(t *testing.T) {
	t.Parallel()

	_, err := CommandExtractor{}.Extract(context.Background(), &project.Project{ID: 1}, mirror.LocalMirror{})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", maxStderrBytes+10)
	assert.Len(t, truncate(long), maxStderrBytes)
	assert.Equal(t, "short", truncate("short"))
}
