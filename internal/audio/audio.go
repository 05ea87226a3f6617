// Package audio plays adhan files through an external command-line player.
// Decoding and device handling stay in the external program; this package
// owns the single playback slot and its lifecycle.
package audio

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnsupported is returned for operations the platform cannot perform.
var ErrUnsupported = errors.New("audio: operation not supported on this platform")

// ErrNoPlayer is returned when no player command is configured or found.
var ErrNoPlayer = errors.New("audio: no player command available")

// Error reports a failed playback operation.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("audio %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("audio %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Player is the playback contract consumed by the watcher and the API.
type Player interface {
	// Play stops any current playback, then starts path.
	Play(path string) error
	Stop()
	Pause() error
	Resume() error
	// SetVolume clamps v to [0, 1].
	SetVolume(v float64)
	Volume() float64
	IsPlaying() bool
	Status() Status
}

// Status is a snapshot of the playback slot.
type Status struct {
	Playing bool
	Paused  bool
	Volume  float64
	Path    string
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
