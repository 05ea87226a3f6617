//go:build windows

package service

import (
	"errors"
	"fmt"
)

var (
	ErrServiceExists     = errors.New("service already exists")
	ErrServiceNotFound   = errors.New("service not found")
	ErrAlreadyRunning    = errors.New("service is already running")
	ErrServiceNotRunning = errors.New("service is not running")
)

// Start types, matching SERVICE_START_TYPE.
const (
	StartAutomatic uint32 = 2
	StartManual    uint32 = 3
)

// Status mirrors SERVICE_STATUS dwCurrentState.
type Status uint32

const (
	StatusStopped      Status = 1
	StatusStartPending Status = 2
	StatusStopPending  Status = 3
	StatusRunning      Status = 4
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusStartPending:
		return "starting"
	case StatusStopPending:
		return "stopping"
	case StatusRunning:
		return "running"
	}
	return fmt.Sprintf("state %d", uint32(s))
}

// Config is what Install registers with the SCM.
type Config struct {
	DisplayName string
	Description string
	StartType   uint32
	// Args are passed to the executable when the SCM starts it.
	Args []string
}

// SCM is the subset of the Service Control Manager the Manager needs.
type SCM interface {
	OpenService(name string) (Service, error)
	CreateService(name, exePath string, cfg Config) (Service, error)
	Close() error
}

// Service is one registered service.
type Service interface {
	Start() error
	Stop() error
	Delete() error
	Status() (Status, error)
	Close() error
}

// Manager installs and controls the daemon service.
type Manager struct {
	scm SCM
}

func NewManager(scm SCM) *Manager {
	return &Manager{scm: scm}
}

// Install registers exePath as an automatically started service that runs
// "<exe> service run".
func (m *Manager) Install(exePath string) error {
	s, err := m.scm.CreateService(Name, exePath, Config{
		DisplayName: DisplayName,
		Description: "Plays the adhan and shows reminders at prayer times.",
		StartType:   StartAutomatic,
		Args:        []string{"service", "run"},
	})
	if err != nil {
		return err
	}
	return s.Close()
}

// Uninstall stops the service if needed and removes it.
func (m *Manager) Uninstall() error {
	return m.with(func(s Service) error {
		st, err := s.Status()
		if err != nil {
			return err
		}
		if st == StatusRunning {
			if err := s.Stop(); err != nil {
				return err
			}
		}
		return s.Delete()
	})
}

func (m *Manager) Start() error {
	return m.with(func(s Service) error {
		st, err := s.Status()
		if err != nil {
			return err
		}
		if st == StatusRunning {
			return ErrAlreadyRunning
		}
		return s.Start()
	})
}

func (m *Manager) Stop() error {
	return m.with(func(s Service) error {
		st, err := s.Status()
		if err != nil {
			return err
		}
		if st == StatusStopped {
			return ErrServiceNotRunning
		}
		return s.Stop()
	})
}

func (m *Manager) Status() (Status, error) {
	var st Status
	err := m.with(func(s Service) (err error) {
		st, err = s.Status()
		return err
	})
	return st, err
}

func (m *Manager) with(fn func(Service) error) error {
	s, err := m.scm.OpenService(Name)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
