package mirror

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/traduttore/internal/project"
)

// runGit runs git in dir for fixture setup.
func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		"GIT_CONFIG_NOSYSTEM=1", "HOME="+dir,
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return strings.TrimSpace(string(out))
}

func commitFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	runGit(t, dir, "add", name)
	runGit(t, dir, "commit", "-q", "-m", "update "+name)
	return runGit(t, dir, "rev-parse", "HEAD")
}

func TestExecGitEnsureMirrorAgainstLocalRemote(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Parallel()

	upstream := t.TempDir()
	runGit(t, upstream, "init", "-q", "-b", "main")
	first := commitFile(t, upstream, "readme.txt", "one")

	m := newTestManager(t, ExecGit{})
	p := &project.Project{ID: 1, HTTPSURL: upstream, DefaultBranch: "main"}
	ctx := context.Background()

	mirror, err := m.EnsureMirror(ctx, p)
	require.NoError(t, err)
	assert.True(t, mirror.Cloned)
	assert.Equal(t, first, mirror.Revision)

	// Local edits and untracked files are discarded on update.
	require.NoError(t, os.WriteFile(filepath.Join(mirror.Dir, "readme.txt"), []byte("dirty"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(mirror.Dir, "stray.po"), []byte("x"), 0o644))

	second := commitFile(t, upstream, "readme.txt", "two")
	mirror, err = m.EnsureMirror(ctx, p)
	require.NoError(t, err)
	assert.False(t, mirror.Cloned)
	assert.Equal(t, second, mirror.Revision)

	b, err := os.ReadFile(filepath.Join(mirror.Dir, "readme.txt"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(b))
	assert.NoFileExists(t, filepath.Join(mirror.Dir, "stray.po"))

	// Concurrent syncs converge on the remote tip.
	third := commitFile(t, upstream, "readme.txt", "three")
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := m.EnsureMirror(ctx, p)
			assert.NoError(t, err)
			assert.Equal(t, third, got.Revision)
		}()
	}
	wg.Wait()

	require.NoError(t, m.RemoveLocalRepository(ctx, p))
	assert.NoDirExists(t, m.Path(1))
}

func TestExecGitEnsureMirrorMissingRemote(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Parallel()

	m := newTestManager(t, ExecGit{})
	p := &project.Project{ID: 2, HTTPSURL: filepath.Join(t.TempDir(), "nope"), DefaultBranch: "main"}

	_, err := m.EnsureMirror(context.Background(), p)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindRemoteUnreachable), "got %v", err)
}

func TestExecGitEnsureMirrorWithoutOriginRemote(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Parallel()

	upstream := t.TempDir()
	runGit(t, upstream, "init", "-q", "-b", "main")
	commitFile(t, upstream, "readme.txt", "one")

	m := newTestManager(t, ExecGit{})
	p := &project.Project{ID: 3, HTTPSURL: upstream, DefaultBranch: "main"}
	ctx := context.Background()

	mirror, err := m.EnsureMirror(ctx, p)
	require.NoError(t, err)
	runGit(t, mirror.Dir, "remote", "remove", "origin")

	second := commitFile(t, upstream, "readme.txt", "two")
	for i := 0; i < 2; i++ {
		mirror, err = m.EnsureMirror(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, second, mirror.Revision)
	}
	b, err := os.ReadFile(filepath.Join(mirror.Dir, "readme.txt"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(b))
}
