//go:build linux

package process

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	appErr "racejudge/pkg/errors"
)

// Start launches argv with its own process group and three pipes.
func Start(argv []string, env []string) (*Process, error) {
	if len(argv) == 0 {
		return nil, appErr.New(appErr.CommandInvalid).WithMessage("command is required")
	}

	inR, inW, err := os.Pipe()
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.SpawnFailed, "create stdin pipe failed")
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		closeAll(inR, inW)
		return nil, appErr.Wrapf(err, appErr.SpawnFailed, "create stdout pipe failed")
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		closeAll(inR, inW, outR, outW)
		return nil, appErr.Wrapf(err, appErr.SpawnFailed, "create stderr pipe failed")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
	cmd.Stdin = inR
	cmd.Stdout = outW
	cmd.Stderr = errW
	if env != nil {
		cmd.Env = append(os.Environ(), env...)
	}

	if err := cmd.Start(); err != nil {
		closeAll(inR, inW, outR, outW, errR, errW)
		return nil, appErr.Wrapf(err, appErr.SpawnFailed, "start %s failed", argv[0])
	}
	// The child holds its own copies now.
	closeAll(inR, outW, errW)

	p := &Process{
		Stdin:  inW,
		Stdout: outR,
		Stderr: errR,
		pid:    cmd.Process.Pid,
		exited: make(chan struct{}),
	}
	go func() {
		p.waitErr = cmd.Wait()
		p.state = cmd.ProcessState
		close(p.exited)
	}()
	return p, nil
}

// Terminate sends SIGTERM to the whole process group.
func (p *Process) Terminate() error {
	if p.pid <= 0 {
		return nil
	}
	pgid := p.pid
	if g, err := unix.Getpgid(p.pid); err == nil {
		pgid = g
	}
	if err := unix.Kill(-pgid, unix.SIGTERM); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return nil
		}
		return appErr.Wrapf(err, appErr.TerminateFailed, "kill process group %d failed", pgid)
	}
	return nil
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
