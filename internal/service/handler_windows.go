//go:build windows

// Package service runs the muezzin daemon under the Windows Service Control
// Manager and manages its registration.
package service

import (
	"context"
	"time"

	"golang.org/x/sys/windows/svc"

	"github.com/muezzin/muezzin/pkg/logger"
)

const (
	// Name is the SCM service name.
	Name = "muezzin"

	// DisplayName is shown in the Services panel.
	DisplayName = "Muezzin prayer times"

	acceptedCommands = svc.AcceptStop | svc.AcceptShutdown

	// startGrace is how long Execute waits for an immediate start failure
	// before reporting Running.
	startGrace = 50 * time.Millisecond
)

// Runner is the part of daemon.Runner the handler drives.
type Runner interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// Handler implements svc.Handler for the daemon.
type Handler struct {
	runner Runner
	log    logger.Logger
}

// NewHandler returns a handler driving runner. A nil log discards output.
func NewHandler(runner Runner, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Handler{runner: runner, log: log}
}

// Execute follows StartPending, Running, StopPending, Stopped. Service
// arguments are ignored; the daemon reads its configuration from the
// environment and its .env file.
func (h *Handler) Execute(_ []string, requests <-chan svc.ChangeRequest, status chan<- svc.Status) (bool, uint32) {
	status <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- h.runner.Start(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			h.log.Error("Service failed to start: %v", err)
			status <- svc.Status{State: svc.Stopped}
			return false, 1
		}
	case <-time.After(startGrace):
	}

	status <- svc.Status{State: svc.Running, Accepts: acceptedCommands}
	h.log.Info("Service running")

	for {
		select {
		case err := <-done:
			// The daemon stopped on its own.
			status <- svc.Status{State: svc.Stopped}
			if err != nil {
				h.log.Error("Daemon exited: %v", err)
				return false, 1
			}
			return false, 0
		case req, ok := <-requests:
			if !ok {
				return false, 0
			}
			switch req.Cmd {
			case svc.Interrogate:
				status <- req.CurrentStatus
			case svc.Stop, svc.Shutdown:
				return h.stop(status, cancel)
			}
		}
	}
}

func (h *Handler) stop(status chan<- svc.Status, cancel context.CancelFunc) (bool, uint32) {
	status <- svc.Status{State: svc.StopPending}
	err := h.runner.Shutdown()
	cancel()
	status <- svc.Status{State: svc.Stopped}
	if err != nil {
		h.log.Error("Service shutdown: %v", err)
		return false, 1
	}
	h.log.Info("Service stopped")
	return false, 0
}
