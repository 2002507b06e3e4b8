package process

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/kbukum/getfnative/errors"
)

// stderrLines is how much stderr an ExitError carries.
const stderrLines = 5

// Run executes cmd in its own process group and waits for it.
// Cancellation sends SIGTERM to the group, then SIGKILL after the grace period.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, errors.InvalidConfig("engine.command", "binary is required")
	}
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // the engine command line is user configuration
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)
	c.Stdin = cmd.Stdin

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	grace := cmd.gracePeriod()
	var kill *time.Timer
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		pgid := c.Process.Pid
		kill = time.AfterFunc(grace, func() { _ = syscall.Kill(-pgid, syscall.SIGKILL) })
		return syscall.Kill(-pgid, syscall.SIGTERM)
	}
	// WaitDelay only kills the group leader; the timer above takes the rest
	// of the group down with it.
	c.WaitDelay = grace

	start := time.Now()
	err := c.Run()
	if kill != nil && c.Process != nil && syscall.Kill(-c.Process.Pid, 0) == syscall.ESRCH {
		kill.Stop()
	}
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}

	if ctx.Err() != nil {
		return res, fmt.Errorf("process: %s: %w", cmd.Binary, ctx.Err())
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return res, &ExitError{Code: res.ExitCode, Stderr: res.StderrTail(stderrLines), Err: err}
	}
	return res, errors.EngineUnavailable(cmd.Binary, err)
}

// LookPath reports whether binary can be executed.
func LookPath(binary string) error {
	if _, err := exec.LookPath(binary); err != nil {
		return errors.EngineUnavailable(binary, err)
	}
	return nil
}

// mergeEnv appends extra to the parent environment. nil inherits it as is.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil
	}
	return append(os.Environ(), extra...)
}
