//go:build windows

package service

import (
	"errors"
	"testing"
)

type fakeService struct {
	status  Status
	started bool
	stopped bool
	deleted bool
	closed  bool
}

func (s *fakeService) Start() error            { s.started = true; return nil }
func (s *fakeService) Stop() error             { s.stopped = true; return nil }
func (s *fakeService) Delete() error           { s.deleted = true; return nil }
func (s *fakeService) Status() (Status, error) { return s.status, nil }
func (s *fakeService) Close() error            { s.closed = true; return nil }

type fakeSCM struct {
	svc     *fakeService
	created Config
	exe     string
}

func (m *fakeSCM) OpenService(name string) (Service, error) {
	if m.svc == nil {
		return nil, ErrServiceNotFound
	}
	return m.svc, nil
}

func (m *fakeSCM) CreateService(name, exePath string, cfg Config) (Service, error) {
	if m.svc != nil {
		return nil, ErrServiceExists
	}
	m.svc = &fakeService{status: StatusStopped}
	m.created, m.exe = cfg, exePath
	return m.svc, nil
}

func (m *fakeSCM) Close() error { return nil }

func TestManager_Install(t *testing.T) {
	scm := &fakeSCM{}
	m := NewManager(scm)
	if err := m.Install(`C:\muezzin.exe`); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if scm.exe != `C:\muezzin.exe` || scm.created.StartType != StartAutomatic {
		t.Errorf("created %q with %+v", scm.exe, scm.created)
	}
	if len(scm.created.Args) != 2 || scm.created.Args[1] != "run" {
		t.Errorf("args = %v", scm.created.Args)
	}
	if !scm.svc.closed {
		t.Error("handle not closed")
	}
	if err := m.Install(`C:\muezzin.exe`); !errors.Is(err, ErrServiceExists) {
		t.Errorf("second Install = %v, want ErrServiceExists", err)
	}
}

func TestManager_StartStop(t *testing.T) {
	tests := []struct {
		name    string
		status  Status
		op      func(*Manager) error
		wantErr error
		check   func(*fakeService) bool
	}{
		{"start stopped", StatusStopped, (*Manager).Start, nil, func(s *fakeService) bool { return s.started }},
		{"start running", StatusRunning, (*Manager).Start, ErrAlreadyRunning, func(s *fakeService) bool { return !s.started }},
		{"stop running", StatusRunning, (*Manager).Stop, nil, func(s *fakeService) bool { return s.stopped }},
		{"stop stopped", StatusStopped, (*Manager).Stop, ErrServiceNotRunning, func(s *fakeService) bool { return !s.stopped }},
		{"uninstall running", StatusRunning, (*Manager).Uninstall, nil, func(s *fakeService) bool { return s.stopped && s.deleted }},
		{"uninstall stopped", StatusStopped, (*Manager).Uninstall, nil, func(s *fakeService) bool { return !s.stopped && s.deleted }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeService{status: tt.status}
			err := tt.op(NewManager(&fakeSCM{svc: s}))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if !tt.check(s) {
				t.Errorf("unexpected service state %+v", s)
			}
			if !s.closed {
				t.Error("handle not closed")
			}
		})
	}
}

func TestManager_NotInstalled(t *testing.T) {
	m := NewManager(&fakeSCM{})
	if _, err := m.Status(); !errors.Is(err, ErrServiceNotFound) {
		t.Errorf("Status = %v, want ErrServiceNotFound", err)
	}
}

func TestStatusString(t *testing.T) {
	tests := map[Status]string{
		StatusRunning:      "running",
		StatusStopped:      "stopped",
		StatusStartPending: "starting",
		Status(7):          "state 7",
	}
	for st, want := range tests {
		if got := st.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", uint32(st), got, want)
		}
	}
}
