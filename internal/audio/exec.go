package audio

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/muezzin/muezzin/pkg/logger"
)

// stopTimeout bounds how long Stop waits for a killed player to exit.
const stopTimeout = 2 * time.Second

// process is a running player.
type process interface {
	Wait() error
	Kill() error
	Suspend() error
	Continue() error
}

// Starter launches a player process.
type Starter func(name string, args []string) (process, error)

// known players, tried in order when no command is configured. Placeholders:
// {file}, {volume} (0..1), {volume100} (0..100), {volume65536} (0..65536).
var knownPlayers = [][]string{
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "-volume", "{volume100}", "{file}"},
	{"mpv", "--no-video", "--really-quiet", "--volume={volume100}", "{file}"},
	{"paplay", "--volume={volume65536}", "{file}"},
	{"afplay", "-v", "{volume}", "{file}"},
}

// ExecPlayer implements Player by running an external program per playback.
type ExecPlayer struct {
	fs       afero.Fs
	baseDir  string
	command  []string
	start    Starter
	log      logger.Logger
	lookPath func(string) (string, error)

	mu     sync.RWMutex
	cur    *playback
	volume float64
}

type playback struct {
	proc   process
	path   string
	paused bool
	killed bool
	done   chan struct{}
}

// Option configures an ExecPlayer.
type Option func(*ExecPlayer)

// WithFs sets the filesystem used to resolve audio paths.
func WithFs(fs afero.Fs) Option { return func(p *ExecPlayer) { p.fs = fs } }

// WithCommand sets the player command line, e.g. "mpv --volume={volume100} {file}".
// When {file} is absent the path is appended.
func WithCommand(cmdline string) Option {
	return func(p *ExecPlayer) {
		if f := strings.Fields(cmdline); len(f) > 0 {
			p.command = f
		}
	}
}

// WithStarter replaces process creation.
func WithStarter(s Starter) Option { return func(p *ExecPlayer) { p.start = s } }

// WithLogger sets the logger for player exits.
func WithLogger(l logger.Logger) Option { return func(p *ExecPlayer) { p.log = l } }

// NewExecPlayer creates a player resolving relative paths against baseDir.
func NewExecPlayer(baseDir string, opts ...Option) *ExecPlayer {
	p := &ExecPlayer{
		fs:       afero.NewOsFs(),
		baseDir:  baseDir,
		start:    startExec,
		log:      logger.NewNopLogger(),
		lookPath: exec.LookPath,
		volume:   1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve returns the file that Play would open for path: path itself when
// it exists, else path under the base directory.
func (p *ExecPlayer) Resolve(path string) (string, error) {
	if path == "" {
		return "", &Error{Op: "resolve", Err: os.ErrNotExist}
	}
	candidates := []string{path}
	if !filepath.IsAbs(path) && p.baseDir != "" {
		candidates = append(candidates, filepath.Join(p.baseDir, path))
	}
	for _, c := range candidates {
		if fi, err := p.fs.Stat(c); err == nil && !fi.IsDir() {
			return c, nil
		}
	}
	return "", &Error{Op: "resolve", Path: path, Err: os.ErrNotExist}
}

func (p *ExecPlayer) commandFor(file string, volume float64) (string, []string, error) {
	tmpl := p.command
	if len(tmpl) == 0 {
		for _, k := range knownPlayers {
			if _, err := p.lookPath(k[0]); err == nil {
				tmpl = k
				break
			}
		}
	}
	if len(tmpl) == 0 {
		return "", nil, ErrNoPlayer
	}
	r := strings.NewReplacer(
		"{file}", file,
		"{volume}", strconv.FormatFloat(volume, 'f', 2, 64),
		"{volume100}", strconv.Itoa(int(volume*100+0.5)),
		"{volume65536}", strconv.Itoa(int(volume*65536+0.5)),
	)
	args := make([]string, 0, len(tmpl))
	hasFile := false
	for _, a := range tmpl[1:] {
		if strings.Contains(a, "{file}") {
			hasFile = true
		}
		args = append(args, r.Replace(a))
	}
	if !hasFile {
		args = append(args, file)
	}
	return tmpl[0], args, nil
}

func (p *ExecPlayer) Play(path string) error {
	file, err := p.Resolve(path)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	name, args, err := p.commandFor(file, p.volume)
	if err != nil {
		return &Error{Op: "play", Path: file, Err: err}
	}
	proc, err := p.start(name, args)
	if err != nil {
		return &Error{Op: "play", Path: file, Err: err}
	}
	pb := &playback{proc: proc, path: file, done: make(chan struct{})}
	p.cur = pb
	go p.reap(pb)
	return nil
}

// reap waits for the player to exit and frees the slot if it still owns it.
func (p *ExecPlayer) reap(pb *playback) {
	err := pb.proc.Wait()
	close(pb.done)
	p.mu.Lock()
	if p.cur == pb {
		p.cur = nil
	}
	killed := pb.killed
	p.mu.Unlock()
	if err != nil && !killed {
		p.log.Warning("audio: player for %s exited: %v", pb.path, err)
	}
}

func (p *ExecPlayer) stopLocked() {
	pb := p.cur
	if pb == nil {
		return
	}
	p.cur = nil
	pb.killed = true
	if err := pb.proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.log.Warning("audio: kill player: %v", err)
	}
	select {
	case <-pb.done:
	case <-time.After(stopTimeout):
		p.log.Warning("audio: player for %s did not exit after %s", pb.path, stopTimeout)
	}
}

func (p *ExecPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Pause suspends the current player. It is a no-op when nothing plays.
func (p *ExecPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cur == nil || p.cur.paused {
		return nil
	}
	if err := p.cur.proc.Suspend(); err != nil {
		return &Error{Op: "pause", Path: p.cur.path, Err: err}
	}
	p.cur.paused = true
	return nil
}

// Resume continues a paused player. It is a no-op when nothing is paused.
func (p *ExecPlayer) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cur == nil || !p.cur.paused {
		return nil
	}
	if err := p.cur.proc.Continue(); err != nil {
		return &Error{Op: "resume", Path: p.cur.path, Err: err}
	}
	p.cur.paused = false
	return nil
}

// SetVolume sets the volume of the next playback. External players cannot
// be adjusted mid-stream.
func (p *ExecPlayer) SetVolume(v float64) {
	p.mu.Lock()
	p.volume = clamp(v)
	p.mu.Unlock()
}

func (p *ExecPlayer) Volume() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.volume
}

func (p *ExecPlayer) IsPlaying() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cur != nil
}

func (p *ExecPlayer) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st := Status{Volume: p.volume}
	if p.cur != nil {
		st.Playing = true
		st.Paused = p.cur.paused
		st.Path = p.cur.path
	}
	return st
}

type execProcess struct {
	cmd *exec.Cmd
}

func startExec(name string, args []string) (process, error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	return &execProcess{cmd: cmd}, nil
}

func (e *execProcess) Wait() error { return e.cmd.Wait() }
func (e *execProcess) Kill() error { return e.cmd.Process.Kill() }
