// Package process starts player programs in their own process group with
// piped standard streams.
package process

import (
	"fmt"
	"os"
	"time"
)

// Process is a started player program. Stdin, Stdout and Stderr are the
// parent's ends of the pipes.
type Process struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	pid     int
	exited  chan struct{}
	state   *os.ProcessState
	waitErr error
}

// Running reports whether the program has not exited yet.
func (p *Process) Running() bool {
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}

// WaitExit waits up to grace for the program to exit and reports whether it did.
func (p *Process) WaitExit(grace time.Duration) bool {
	if grace <= 0 {
		return !p.Running()
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-p.exited:
		return true
	case <-timer.C:
		return false
	}
}

// ExitCode returns the exit status, or -1 while running or when the program
// was killed by a signal.
func (p *Process) ExitCode() int {
	if p.Running() || p.state == nil {
		return -1
	}
	return p.state.ExitCode()
}

// ExitDescription renders how the program ended, for diagnostics.
func (p *Process) ExitDescription() string {
	if p.Running() {
		return "still running"
	}
	if p.state == nil {
		if p.waitErr != nil {
			return fmt.Sprintf("exit code: -1 (%v)", p.waitErr)
		}
		return "exit code: -1"
	}
	if code := p.state.ExitCode(); code >= 0 {
		return fmt.Sprintf("exit code: %d", code)
	}
	return fmt.Sprintf("exit code: -1 (%s)", p.state.String())
}

// Close releases the parent's pipe ends. It does not signal the program.
func (p *Process) Close() {
	for _, f := range []*os.File{p.Stdin, p.Stdout, p.Stderr} {
		if f != nil {
			_ = f.Close()
		}
	}
}

// InterruptRead makes a read blocked on Stdout return immediately.
func (p *Process) InterruptRead() {
	if p.Stdout != nil {
		_ = p.Stdout.SetReadDeadline(time.Now())
	}
}
