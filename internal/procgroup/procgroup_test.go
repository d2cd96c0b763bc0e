package procgroup

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"syscall"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed")
	}
}

func TestCancelKillsDescendantsHoldingOutput(t *testing.T) {
	requireShell(t)
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// The backgrounded sleep inherits the output pipe.
	cmd := exec.CommandContext(ctx, "sh", "-c", "sleep 30 & wait")
	Setup(cmd)

	start := time.Now()
	_, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatal("expected error from cancelled command")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("CombinedOutput returned after %s, want the timeout to bound it", elapsed)
	}
}

func TestSignalReachesGroup(t *testing.T) {
	requireShell(t)
	t.Parallel()

	cmd := exec.Command("sh", "-c", "sleep 30 & wait")
	Setup(cmd)
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	if err := Signal(cmd, syscall.SIGKILL); err != nil {
		t.Fatalf("Signal: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("process group survived SIGKILL")
	}

	if err := Signal(cmd, syscall.SIGKILL); !errors.Is(err, os.ErrProcessDone) {
		t.Fatalf("Signal after exit = %v, want os.ErrProcessDone", err)
	}
}

func TestSignalBeforeStart(t *testing.T) {
	t.Parallel()

	if err := Signal(exec.Command("true"), syscall.SIGTERM); err == nil {
		t.Fatal("expected error for unstarted command")
	}
}
