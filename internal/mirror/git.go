package mirror

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mattjoyce/traduttore/internal/procgroup"
)

// Git runs git subcommands. dir is the working tree to operate in; empty
// means no repository context (clone).
type Git interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// GitError carries the combined output of a failed git invocation.
type GitError struct {
	Args   []string
	Output string
	Err    error
}

func (e *GitError) Error() string {
	sub := ""
	if len(e.Args) > 0 {
		sub = e.Args[0]
	}
	if e.Output == "" {
		return fmt.Sprintf("git %s: %v", sub, e.Err)
	}
	return fmt.Sprintf("git %s: %s: %v", sub, e.Output, e.Err)
}

func (e *GitError) Unwrap() error { return e.Err }

// ExecGit shells out to the git binary.
type ExecGit struct {
	Binary string
}

// Run executes git with prompts disabled. Inside a mirror, GIT_DIR and
// GIT_WORK_TREE are pinned so a broken .git never makes git fall back to a
// parent repository. git runs in its own process group: when ctx ends, the
// ssh or remote helper it spawned is killed with it.
func (g ExecGit) Run(ctx context.Context, dir string, args ...string) (string, error) {
	bin := g.Binary
	if bin == "" {
		bin = "git"
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	procgroup.Setup(cmd)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_ASKPASS=true", "LC_ALL=C")
	if dir != "" {
		cmd.Dir = dir
		cmd.Env = append(cmd.Env,
			"GIT_DIR="+filepath.Join(dir, ".git"),
			"GIT_WORK_TREE="+dir,
		)
	}

	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		return output, &GitError{Args: args, Output: output, Err: err}
	}
	return output, nil
}
