// Package procgroup starts child processes in their own process group so
// signals reach every descendant, not only the direct child.
package procgroup

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// WaitDelay bounds how long Wait keeps reading output pipes after the child
// has exited or been killed. Descendants that inherited the pipes cannot
// hold Wait open past it.
const WaitDelay = 2 * time.Second

// Setup puts cmd in a new process group. For commands built with
// exec.CommandContext, cancellation kills the whole group.
func Setup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
	cmd.Cancel = func() error {
		return Signal(cmd, syscall.SIGKILL)
	}
	cmd.WaitDelay = WaitDelay
}

// Signal sends sig to the process group of a started cmd. A group that has
// already exited reports os.ErrProcessDone.
func Signal(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd.Process == nil {
		return errors.New("process not started")
	}
	err := syscall.Kill(-cmd.Process.Pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}
