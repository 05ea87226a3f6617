//go:build windows

package audio

func (e *execProcess) Suspend() error  { return ErrUnsupported }
func (e *execProcess) Continue() error { return ErrUnsupported }
