package mirror

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/traduttore/internal/project"
)

// hangingGit writes a git stand-in that forks a long-lived child sharing its
// output, the way git leaves ssh running on a stalled remote.
func hangingGit(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed")
	}
	path := filepath.Join(t.TempDir(), "git")
	script := "#!/bin/sh\nsleep 30 &\nwait\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestExecGitTimeoutKillsHelpers(t *testing.T) {
	t.Parallel()

	g := ExecGit{Binary: hangingGit(t)}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := g.Run(ctx, "", "clone", "--", "git@example.invalid:a/b.git", t.TempDir())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEnsureMirrorNetworkTimeoutBoundsClone(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, ExecGit{Binary: hangingGit(t)}, func(o *Options) {
		o.NetworkTimeout = 200 * time.Millisecond
	})
	p := &project.Project{ID: 1, SSHURL: testURL, DefaultBranch: "master"}

	start := time.Now()
	_, err := m.EnsureMirror(context.Background(), p)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindRemoteUnreachable), "got %v", err)
	assert.Less(t, time.Since(start), 5*time.Second)

	// The project lock is free again.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlock, err := m.lock(ctx, p.ID)
	require.NoError(t, err)
	unlock()
}
