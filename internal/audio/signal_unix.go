//go:build !windows

package audio

import "golang.org/x/sys/unix"

func (e *execProcess) Suspend() error {
	return unix.Kill(e.cmd.Process.Pid, unix.SIGSTOP)
}

func (e *execProcess) Continue() error {
	return unix.Kill(e.cmd.Process.Pid, unix.SIGCONT)
}
