//go:build windows

package service

import (
	"fmt"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

type windowsSCM struct {
	mgr *mgr.Mgr
}

type windowsService struct {
	svc *mgr.Service
}

// OpenSCM connects to the local Service Control Manager. The caller must
// Close it.
func OpenSCM() (SCM, error) {
	m, err := mgr.Connect()
	if err != nil {
		return nil, fmt.Errorf("connecting to service control manager: %w", err)
	}
	return &windowsSCM{mgr: m}, nil
}

func (m *windowsSCM) OpenService(name string) (Service, error) {
	s, err := m.mgr.OpenService(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrServiceNotFound, name, err)
	}
	return &windowsService{svc: s}, nil
}

func (m *windowsSCM) CreateService(name, exePath string, cfg Config) (Service, error) {
	if existing, err := m.mgr.OpenService(name); err == nil {
		existing.Close()
		return nil, ErrServiceExists
	}
	s, err := m.mgr.CreateService(name, exePath, mgr.Config{
		DisplayName:  cfg.DisplayName,
		Description:  cfg.Description,
		StartType:    cfg.StartType,
		ServiceType:  windows.SERVICE_WIN32_OWN_PROCESS,
		ErrorControl: windows.SERVICE_ERROR_NORMAL,
	}, cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("creating service %q: %w", name, err)
	}
	return &windowsService{svc: s}, nil
}

func (m *windowsSCM) Close() error {
	return m.mgr.Disconnect()
}

func (s *windowsService) Start() error {
	if err := s.svc.Start(); err != nil {
		return fmt.Errorf("starting service: %w", err)
	}
	return nil
}

func (s *windowsService) Stop() error {
	if _, err := s.svc.Control(svc.Stop); err != nil {
		return fmt.Errorf("stopping service: %w", err)
	}
	return nil
}

func (s *windowsService) Delete() error {
	if err := s.svc.Delete(); err != nil {
		return fmt.Errorf("deleting service: %w", err)
	}
	return nil
}

func (s *windowsService) Status() (Status, error) {
	st, err := s.svc.Query()
	if err != nil {
		return 0, fmt.Errorf("querying service: %w", err)
	}
	return Status(st.State), nil
}

func (s *windowsService) Close() error {
	return s.svc.Close()
}
