//go:build !linux

package process

import appErr "racejudge/pkg/errors"

func Start(argv []string, env []string) (*Process, error) {
	return nil, appErr.New(appErr.SpawnFailed).WithMessage("player processes are only supported on linux")
}

func (p *Process) Terminate() error {
	return appErr.New(appErr.TerminateFailed).WithMessage("player processes are only supported on linux")
}
