package syncer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mattjoyce/traduttore/internal/mirror"
	"github.com/mattjoyce/traduttore/internal/procgroup"
	"github.com/mattjoyce/traduttore/internal/project"
)

const (
	// maxStderrBytes caps the stderr kept from an extractor run.
	maxStderrBytes = 64 * 1024

	// terminationGracePeriod is the time we wait after SIGTERM before sending SIGKILL.
	terminationGracePeriod = 5 * time.Second

	defaultExtractTimeout = 10 * time.Minute
)

// ErrExtractTimeout is returned when the extractor exceeds its timeout.
var ErrExtractTimeout = errors.New("extractor timed out")

// Extractor consumes an up-to-date mirror, e.g. to extract translatable
// strings. It is called with the project lock held.
type Extractor interface {
	Extract(ctx context.Context, p *project.Project, m mirror.LocalMirror) (*Extraction, error)
}

// Extraction is what an extractor run left behind.
type Extraction struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// NoopExtractor does nothing. Used when no extractor command is configured.
type NoopExtractor struct{}

func (NoopExtractor) Extract(context.Context, *project.Project, mirror.LocalMirror) (*Extraction, error) {
	return nil, nil
}

// CommandExtractor runs an external command inside the mirror directory.
// Arguments may contain {dir}, {project_id} and {slug}.
type CommandExtractor struct {
	Command []string
	Timeout time.Duration
	Logger  *slog.Logger
}

func (c CommandExtractor) Extract(ctx context.Context, p *project.Project, m mirror.LocalMirror) (*Extraction, error) {
	if len(c.Command) == 0 {
		return nil, fmt.Errorf("extractor command is empty")
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultExtractTimeout
	}

	argv := expandArgs(c.Command, p, m)
	logger = logger.With("project_id", p.ID, "command", argv[0])

	timeoutTimer := time.NewTimer(timeout)
	defer timeoutTimer.Stop()

	// Not CommandContext: termination is SIGTERM first, then SIGKILL, both
	// sent to the extractor's process group.
	cmd := exec.Command(argv[0], argv[1:]...)
	procgroup.Setup(cmd)
	cmd.Dir = m.Dir
	cmd.Env = append(os.Environ(),
		"TRADUTTORE_PROJECT_ID="+strconv.FormatInt(p.ID, 10),
		"TRADUTTORE_PROJECT_SLUG="+p.Slug,
		"TRADUTTORE_REVISION="+m.Revision,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	logger.Debug("starting extractor", "timeout", timeout)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start extractor: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
	}()

	var stopErr error
	select {
	case err := <-waitErr:
		out := &Extraction{
			Stdout:   truncate(stdout.String()),
			Stderr:   truncate(stderr.String()),
			Duration: time.Since(start),
		}
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return out, fmt.Errorf("extractor exited with status %d: %s", exitErr.ExitCode(), strings.TrimSpace(out.Stderr))
			}
			return out, fmt.Errorf("wait for extractor: %w", err)
		}
		return out, nil
	case <-timeoutTimer.C:
		logger.Warn("extractor timed out, sending SIGTERM")
		stopErr = ErrExtractTimeout
	case <-ctx.Done():
		logger.Warn("extractor cancelled, sending SIGTERM")
		stopErr = ctx.Err()
	}

	if err := procgroup.Signal(cmd, syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logger.Error("failed to send SIGTERM", "error", err)
	}

	grace := time.NewTimer(terminationGracePeriod)
	defer grace.Stop()

	select {
	case <-waitErr:
		logger.Info("extractor exited after SIGTERM")
	case <-grace.C:
		logger.Warn("extractor did not exit after SIGTERM, sending SIGKILL")
		if err := procgroup.Signal(cmd, syscall.SIGKILL); err != nil && !errors.Is(err, os.ErrProcessDone) {
			logger.Error("failed to send SIGKILL", "error", err)
		}
		<-waitErr
	}

	return &Extraction{
		Stdout:   truncate(stdout.String()),
		Stderr:   truncate(stderr.String()),
		Duration: time.Since(start),
	}, stopErr
}

func expandArgs(args []string, p *project.Project, m mirror.LocalMirror) []string {
	r := strings.NewReplacer(
		"{dir}", m.Dir,
		"{project_id}", strconv.FormatInt(p.ID, 10),
		"{slug}", p.Slug,
	)
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}

func truncate(s string) string {
	if len(s) > maxStderrBytes {
		return s[:maxStderrBytes]
	}
	return s
}
