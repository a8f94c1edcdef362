// Package executor runs the external replication tool exactly once under
// a hard wall-clock timeout.
package executor

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/fitoori/squirt/internal/models"
)

// Result is the typed outcome of one tool run. Timeout is carried as a
// field, never inferred from exit-code text.
type Result struct {
	TimedOut bool
	ExitCode int
	Err      error
}

// UnisonArgs are the non-interactive batch arguments for one profile.
func UnisonArgs(profileName string) []string {
	return []string{profileName, "-batch", "-auto", "-terse"}
}

// waitDelay bounds how long after cancellation we wait for the process to
// die before Wait gives up; the process group has already been killed.
const waitDelay = 5 * time.Second

// Run executes bin with args, killed hard when timeout expires. The child
// gets its own process group so the kill takes its helpers with it.
func Run(ctx context.Context, bin string, args []string, timeout time.Duration) Result {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var tail bytes.Buffer
	cmd := exec.CommandContext(cctx, bin, args...)
	cmd.Stdout = &tail
	cmd.Stderr = &tail
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay

	err := cmd.Run()

	if cctx.Err() == context.DeadlineExceeded {
		log.Printf("executor: %s killed after %s", bin, timeout)
		return Result{TimedOut: true, ExitCode: -1, Err: cctx.Err()}
	}
	if err == nil {
		return Result{ExitCode: 0}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		log.Printf("executor: %s exited %d: %s", bin, exitErr.ExitCode(), lastLine(tail.Bytes()))
		return Result{ExitCode: exitErr.ExitCode(), Err: err}
	}
	log.Printf("executor: %s: %v", bin, err)
	return Result{ExitCode: -1, Err: err}
}

// Outcome maps the run onto the result-record contract.
func (r Result) Outcome() (models.Status, string, int) {
	switch {
	case r.TimedOut:
		return models.StatusFail, models.ReasonTimeout, models.ExitSyncTimeout
	case r.ExitCode == 0:
		return models.StatusOK, models.ReasonSync, models.ExitOK
	default:
		return models.StatusFail, models.ReasonUnison, models.ExitSyncFailed
	}
}

func lastLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
