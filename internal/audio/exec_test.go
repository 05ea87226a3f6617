package audio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/muezzin/muezzin/pkg/logger"
)

type fakeProc struct {
	mu        sync.Mutex
	name      string
	args      []string
	exit      chan error
	killed    bool
	suspended bool
	continued bool
}

func (f *fakeProc) Wait() error { return <-f.exit }

func (f *fakeProc) Kill() error {
	f.mu.Lock()
	f.killed = true
	f.mu.Unlock()
	select {
	case f.exit <- errors.New("signal: killed"):
	default:
	}
	return nil
}

func (f *fakeProc) Suspend() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suspended = true
	return nil
}

func (f *fakeProc) Continue() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.continued = true
	return nil
}

func (f *fakeProc) wasKilled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.killed
}

type fakeStarter struct {
	mu    sync.Mutex
	procs []*fakeProc
	err   error
}

func (s *fakeStarter) start(name string, args []string) (process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p := &fakeProc{name: name, args: args, exit: make(chan error, 1)}
	s.procs = append(s.procs, p)
	return p, nil
}

func newTestPlayer(t *testing.T, files ...string) (*ExecPlayer, *fakeStarter) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		if err := afero.WriteFile(fs, f, []byte("ID3"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	st := &fakeStarter{}
	p := NewExecPlayer("/data",
		WithFs(fs),
		WithCommand("mpv --volume={volume100} {file}"),
		WithStarter(st.start),
	)
	return p, st
}

func TestExecPlayer_Resolve(t *testing.T) {
	p, _ := newTestPlayer(t, "/abs/adhan.mp3", "/data/resources/audio/adhan.mp3")
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"/abs/adhan.mp3", "/abs/adhan.mp3", false},
		{"resources/audio/adhan.mp3", filepath.Join("/data", "resources/audio/adhan.mp3"), false},
		{"resources/audio/missing.mp3", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := p.Resolve(tt.in)
			if tt.wantErr {
				var ae *Error
				if !errors.As(err, &ae) || !errors.Is(err, os.ErrNotExist) {
					t.Fatalf("expected *Error wrapping ErrNotExist, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExecPlayer_PlayStopsPrevious(t *testing.T) {
	p, st := newTestPlayer(t, "/a.mp3", "/b.mp3")
	if err := p.Play("/a.mp3"); err != nil {
		t.Fatal(err)
	}
	if err := p.Play("/b.mp3"); err != nil {
		t.Fatal(err)
	}
	if len(st.procs) != 2 {
		t.Fatalf("started %d processes, want 2", len(st.procs))
	}
	if !st.procs[0].wasKilled() {
		t.Error("first playback not stopped before the second started")
	}
	if st.procs[1].wasKilled() {
		t.Error("second playback killed")
	}
	if s := p.Status(); !s.Playing || s.Path != "/b.mp3" {
		t.Errorf("Status() = %+v", s)
	}
}

func TestExecPlayer_CommandTemplate(t *testing.T) {
	p, st := newTestPlayer(t, "/a.mp3")
	p.SetVolume(0.5)
	if err := p.Play("/a.mp3"); err != nil {
		t.Fatal(err)
	}
	got := st.procs[0]
	if got.name != "mpv" || strings.Join(got.args, " ") != "--volume=50 /a.mp3" {
		t.Errorf("started %s %v", got.name, got.args)
	}
}

func TestExecPlayer_AppendsFileWithoutPlaceholder(t *testing.T) {
	p, st := newTestPlayer(t, "/a.mp3")
	WithCommand("paplay")(p)
	if err := p.Play("/a.mp3"); err != nil {
		t.Fatal(err)
	}
	if args := st.procs[0].args; len(args) != 1 || args[0] != "/a.mp3" {
		t.Errorf("args = %v", args)
	}
}

func TestExecPlayer_NoPlayer(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/a.mp3", []byte("x"), 0o644)
	p := NewExecPlayer("", WithFs(fs))
	p.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	err := p.Play("/a.mp3")
	if !errors.Is(err, ErrNoPlayer) {
		t.Fatalf("expected ErrNoPlayer, got %v", err)
	}
	if p.IsPlaying() {
		t.Error("IsPlaying() after failed Play")
	}
}

func TestExecPlayer_StartFailure(t *testing.T) {
	p, st := newTestPlayer(t, "/a.mp3")
	st.err = errors.New("exec: permission denied")
	err := p.Play("/a.mp3")
	var ae *Error
	if !errors.As(err, &ae) || ae.Op != "play" {
		t.Fatalf("expected play *Error, got %v", err)
	}
}

func TestExecPlayer_NaturalExitFreesSlot(t *testing.T) {
	p, st := newTestPlayer(t, "/a.mp3")
	if err := p.Play("/a.mp3"); err != nil {
		t.Fatal(err)
	}
	st.procs[0].exit <- nil
	deadline := time.Now().Add(2 * time.Second)
	for p.IsPlaying() {
		if time.Now().After(deadline) {
			t.Fatal("slot not freed after the player exited")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestExecPlayer_PauseResume(t *testing.T) {
	p, st := newTestPlayer(t, "/a.mp3")
	if err := p.Pause(); err != nil {
		t.Fatalf("Pause with nothing playing: %v", err)
	}
	if err := p.Play("/a.mp3"); err != nil {
		t.Fatal(err)
	}
	if err := p.Pause(); err != nil {
		t.Fatal(err)
	}
	if s := p.Status(); !s.Paused || !s.Playing {
		t.Errorf("Status() after Pause = %+v", s)
	}
	if err := p.Resume(); err != nil {
		t.Fatal(err)
	}
	proc := st.procs[0]
	proc.mu.Lock()
	suspended, continued := proc.suspended, proc.continued
	proc.mu.Unlock()
	if !suspended || !continued {
		t.Errorf("suspended=%v continued=%v", suspended, continued)
	}
	if p.Status().Paused {
		t.Error("still paused after Resume")
	}
	p.Stop()
	if p.IsPlaying() {
		t.Error("IsPlaying() after Stop")
	}
}

func TestExecPlayer_SetVolumeClamps(t *testing.T) {
	p := NewExecPlayer("")
	for _, tt := range []struct{ in, want float64 }{{-1, 0}, {0.3, 0.3}, {1.7, 1}} {
		p.SetVolume(tt.in)
		if got := p.Volume(); got != tt.want {
			t.Errorf("SetVolume(%v): Volume() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExecPlayer_LogsUnexpectedExit(t *testing.T) {
	p, st := newTestPlayer(t, "/a.mp3")
	ml := logger.NewMockLogger()
	p.log = ml
	if err := p.Play("/a.mp3"); err != nil {
		t.Fatal(err)
	}
	st.procs[0].exit <- errors.New("exit status 1")
	deadline := time.Now().Add(2 * time.Second)
	for len(ml.Warnings()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("unexpected exit was not logged")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
