// Package hook runs the optional pause/resume shell commands used by
// external instrumentation around each wait on a player.
package hook

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	appErr "racejudge/pkg/errors"
)

// Result is the outcome of one hook invocation. It is only ever logged.
type Result struct {
	Command  string
	ExitCode int
	Err      error
}

// Runner executes hook commands through the shell.
type Runner struct {
	Shell  string
	Stdout io.Writer
}

// NewRunner returns a Runner using /bin/sh with the hook's stdout sent to
// the process error stream.
func NewRunner() *Runner {
	return &Runner{Shell: "/bin/sh", Stdout: os.Stderr}
}

// Run executes command synchronously. An empty command is a no-op with
// exit code 0.
func (r *Runner) Run(ctx context.Context, command string) Result {
	res := Result{Command: command}
	if command == "" {
		return res
	}
	shell := r.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Stdout = r.Stdout
	err := cmd.Run()
	if err == nil {
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res
	}
	res.ExitCode = -1
	res.Err = appErr.Wrapf(err, appErr.HookFailed, "run hook %q failed", command)
	return res
}
