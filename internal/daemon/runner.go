// Package daemon provides the runner of the muezzin daemon. It wires the
// resolver, the watcher, the HTTP server and the job scheduler together and
// manages their start, stop and graceful shutdown.
package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/muezzin/muezzin/common"
	"github.com/muezzin/muezzin/internal/audio"
	"github.com/muezzin/muezzin/internal/config"
	"github.com/muezzin/muezzin/internal/notify"
	"github.com/muezzin/muezzin/internal/schedule"
	"github.com/muezzin/muezzin/internal/settings"
	"github.com/muezzin/muezzin/pkg/logger"
)

// Sentinel errors for the daemon runner.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running daemon.
	ErrAlreadyRunning = errors.New("daemon is already running")

	// ErrNotRunning is returned when Shutdown() is called on a stopped daemon.
	ErrNotRunning = errors.New("daemon is not running")

	// ErrShutdownTimeout is returned when shutdown exceeds the configured timeout.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// DefaultShutdownTimeout bounds the graceful stop of the HTTP server.
const DefaultShutdownTimeout = 5 * time.Second

// Config holds the configuration for the daemon runner.
type Config struct {
	// App is the environment configuration.
	App *config.Config

	// Version is reported by system.getVersion and compared by update checks.
	Version common.VersionResponse

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Zero means DefaultShutdownTimeout.
	ShutdownTimeout time.Duration
}

// Dependencies holds the external dependencies of the runner. Every nil
// field is replaced by its production default.
type Dependencies struct {
	// ListenerFactory creates the HTTP listener. If nil, net.Listen is used.
	ListenerFactory func(network, address string) (net.Listener, error)

	Logger logger.Logger

	// Store replaces the SQLite or Redis store selected by the config.
	Store settings.Store

	// Backend computes raw prayer times. Defaults to schedule.AstroBackend.
	Backend schedule.Backend

	// Player defaults to an audio.ExecPlayer rooted at the resources dir.
	Player audio.Player

	// Notifier is added to the log, desktop, MQTT and push notifiers.
	Notifier notify.Notifier

	HTTPClient *http.Client

	// Fs holds the fallback secret file. Defaults to the OS filesystem.
	Fs afero.Fs

	// ShutdownFunc is called during Shutdown before the context is canceled.
	ShutdownFunc func() error
}

// Runner manages the daemon lifecycle.
type Runner struct {
	config  *Config
	deps    *Dependencies
	running bool
	mu      sync.Mutex
	cancel  context.CancelFunc
	addr    net.Addr
	done    chan struct{}
}

// New creates a runner. deps may be nil.
func New(config *Config, deps *Dependencies) *Runner {
	return &Runner{
		config: applyConfigDefaults(config),
		deps:   applyDependencyDefaults(deps),
	}
}

func applyConfigDefaults(cfg *Config) *Config {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.App == nil {
		cfg.App = &config.Config{Addr: config.DefaultAddr, Tick: config.DefaultTick}
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	return cfg
}

func applyDependencyDefaults(deps *Dependencies) *Dependencies {
	if deps == nil {
		deps = &Dependencies{}
	}
	if deps.ListenerFactory == nil {
		deps.ListenerFactory = net.Listen
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNopLogger()
	}
	if deps.Backend == nil {
		deps.Backend = schedule.AstroBackend{}
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	return deps
}

// Config returns the runner's configuration.
func (r *Runner) Config() *Config {
	return r.config
}

// Addr returns the address the HTTP server listens on, or nil when stopped.
func (r *Runner) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addr
}

// Start runs the daemon and blocks until ctx is canceled or Shutdown is
// called. Returns ErrAlreadyRunning if the daemon is already started.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, r.cancel = context.WithCancel(ctx)

	c, err := r.build(ctx)
	if err != nil {
		r.cancel()
		r.mu.Unlock()
		return err
	}

	// Create the listener before setting running to avoid a race with Shutdown.
	ln, err := r.deps.ListenerFactory("tcp", r.config.App.Addr)
	if err != nil {
		c.close()
		r.cancel()
		r.mu.Unlock()
		return err
	}
	r.addr = ln.Addr()
	r.done = make(chan struct{})
	r.running = true
	done := r.done
	r.mu.Unlock()

	defer close(done)
	err = c.run(ctx, ln)
	r.cleanupOnStop()
	return err
}

// RunOnce builds the daemon without the HTTP server, evaluates the watcher
// a single time at the current instant and returns.
func (r *Runner) RunOnce(ctx context.Context) error {
	c, err := r.build(ctx)
	if err != nil {
		return err
	}
	defer c.close()
	defer c.http.Shutdown(ctx)
	c.initialize(ctx)
	c.watcher.Evaluate(time.Now())
	return nil
}

func (r *Runner) cleanupOnStop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.addr = nil
}

// Shutdown gracefully stops the daemon and waits for Start to return.
// Returns ErrNotRunning if the daemon is not running and
// ErrShutdownTimeout if stopping exceeds the configured timeout.
func (r *Runner) Shutdown() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return ErrNotRunning
	}
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	timeout := time.After(r.config.ShutdownTimeout)
	if err := r.executeShutdownFunc(timeout); err != nil {
		cancel()
		return err
	}

	cancel()
	select {
	case <-done:
		return nil
	case <-timeout:
		return ErrShutdownTimeout
	}
}

// executeShutdownFunc runs the shutdown hook, giving up when timeout fires.
func (r *Runner) executeShutdownFunc(timeout <-chan time.Time) error {
	if r.deps.ShutdownFunc == nil {
		return nil
	}
	errCh := make(chan error, 1)
	go func() { errCh <- r.deps.ShutdownFunc() }()

	select {
	case err := <-errCh:
		if err != nil {
			r.deps.Logger.Warning("Shutdown hook failed: %v", err)
		}
		return nil
	case <-timeout:
		return ErrShutdownTimeout
	}
}

// IsRunning returns true if the daemon is currently running.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
