package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"runtime"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/muezzin/muezzin/common"
	"github.com/muezzin/muezzin/internal/api"
	"github.com/muezzin/muezzin/internal/audio"
	"github.com/muezzin/muezzin/internal/geo"
	"github.com/muezzin/muezzin/internal/notify"
	"github.com/muezzin/muezzin/internal/schedule"
	"github.com/muezzin/muezzin/internal/scheduler"
	"github.com/muezzin/muezzin/internal/secret"
	"github.com/muezzin/muezzin/internal/server"
	"github.com/muezzin/muezzin/internal/settings"
	"github.com/muezzin/muezzin/internal/updates"
	"github.com/muezzin/muezzin/internal/watcher"
	"github.com/muezzin/muezzin/pkg/logger"
)

const (
	appName          = "Muezzin"
	updateCheckJobID = "update-check"
	jobTimeout       = time.Minute
)

// components is one wired instance of the daemon.
type components struct {
	log      logger.Logger
	store    settings.Store
	api      *api.Api
	notifier notify.Notifier
	rpc      *server.RPCNotifier
	http     *server.HTTPServer
	watcher  *watcher.Watcher

	updateCron string
	shutdown   time.Duration
	closers    []func()
}

func (r *Runner) build(ctx context.Context) (*components, error) {
	cfg := r.config.App
	l := r.deps.Logger
	c := &components{log: l, shutdown: r.config.ShutdownTimeout}

	store, storeWatch, err := r.openStore(ctx)
	if err != nil {
		return nil, err
	}
	c.store = store

	player := r.deps.Player
	if player == nil {
		opts := []audio.Option{audio.WithLogger(l)}
		if cfg.AudioCmd != "" {
			opts = append(opts, audio.WithCommand(cfg.AudioCmd))
		}
		player = audio.NewExecPlayer(cfg.ResourcesDir, opts...)
	}

	c.rpc = server.NewRPCNotifier(l)
	sinks := notify.Multi{notify.NewLogNotifier(l), notify.NewPushNotifier(c.rpc), r.deps.Notifier}
	if cfg.DesktopNotify {
		sinks = append(sinks, notify.NewDesktopNotifier(appName))
	}
	if cfg.MQTTBroker != "" {
		mqtt.ERROR = log.New(logger.Writer(l), "mqtt: ", 0)
		client, err := notify.DialMQTT(cfg.MQTTBroker, "muezzin-"+hostname()+"-"+uuid.NewString()[:8], l)
		if err != nil {
			l.Warning("MQTT notifications disabled: %v", err)
		} else {
			sinks = append(sinks, notify.NewMQTTNotifier(client, cfg.MQTTTopic))
			c.closers = append(c.closers, func() { notify.DisconnectMQTT(client) })
		}
	}
	c.notifier = sinks

	opts := api.Options{
		Logger:        l,
		Store:         store,
		Resolver:      schedule.NewResolver(r.deps.Backend),
		Player:        player,
		Locator:       geo.NewClient(r.deps.HTTPClient, cfg.IPGeoKey),
		Version:       r.config.Version,
		OnReconfigure: c.pushPrayersUpdated,
	}
	if cfg.UpdatesEnabled() {
		opts.Updates = updates.NewChecker(r.deps.HTTPClient, cfg.UpdateRepo, updates.WithLogger(l))
		c.updateCron = cfg.UpdateCron
	}
	if c.api, err = api.NewApi(opts); err != nil {
		c.close()
		store.Close()
		return nil, err
	}
	c.closers = append(c.closers, func() {
		if err := c.api.Close(); err != nil {
			l.Warning("Closing store: %v", err)
		}
	})

	if storeWatch != nil {
		closer, err := storeWatch(func() {
			if err := c.api.Reload(); err != nil {
				l.Warning("Reloading changed settings: %v", err)
			}
		})
		if err != nil {
			l.Warning("Settings change detection disabled: %v", err)
		} else {
			c.closers = append(c.closers, func() { closer.Close() })
		}
	}

	token, err := r.rpcSecret()
	if err != nil {
		c.close()
		return nil, err
	}
	c.http = server.NewHTTPServer(server.HTTPConfig{
		Addr:        cfg.Addr,
		Secret:      token,
		CORSOrigins: cfg.CORSOrigins,
	}, c.api, c.rpc, l)

	c.watcher = watcher.New(watcher.Config{Tick: cfg.Tick}, watcher.Deps{
		Resolver:   c.api.Resolver(),
		Settings:   store,
		Player:     player,
		Notifier:   c.notifier,
		Logger:     l,
		OnRollover: func(date time.Time) { c.pushPrayersUpdated() },
		OnArrive: func(p schedule.Prayer, at time.Time) {
			c.rpc.Push(common.PushPrayerArrived, &common.PrayerArrivedNotification{
				ID: uuid.NewString(), Prayer: p, Time: at,
			})
		},
		OnReminder: func(p schedule.Prayer, at time.Time, minutes int64) {
			c.rpc.Push(common.PushPrayerReminder, &common.PrayerReminderNotification{
				ID: uuid.NewString(), Prayer: p, Time: at, MinutesUntil: minutes,
			})
		},
	})
	return c, nil
}

// storeWatchFunc starts change detection on the store.
type storeWatchFunc func(onChange func()) (io.Closer, error)

// openStore returns the configured store and, when the backend can report
// writes from other processes, a function starting that detection.
func (r *Runner) openStore(ctx context.Context) (settings.Store, storeWatchFunc, error) {
	if r.deps.Store != nil {
		return r.deps.Store, nil, nil
	}
	cfg := r.config.App
	if cfg.RedisAddr != "" {
		kv, err := settings.NewRedisKV(ctx, cfg.RedisAddr, "", cfg.RedisPassword, 0, settings.DefaultRedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		r.deps.Logger.Info("Using Redis settings store at %s", cfg.RedisAddr)
		return settings.NewStore(kv), func(onChange func()) (io.Closer, error) {
			return kv.Subscribe(ctx, onChange)
		}, nil
	}
	kv, err := settings.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	r.deps.Logger.Info("Using SQLite settings store at %s", kv.Path())
	return settings.NewStore(kv), func(onChange func()) (io.Closer, error) {
		return settings.Watch(kv.Path(), settings.DefaultDebounce, onChange, func(err error) {
			r.deps.Logger.Warning("Watching %s: %v", kv.Path(), err)
		})
	}, nil
}

// rpcSecret returns the configured secret, else the keyring-backed token.
func (r *Runner) rpcSecret() (string, error) {
	if s := r.config.App.RPCSecret; s != "" {
		return s, nil
	}
	path := r.config.App.SecretPath()
	if err := r.deps.Fs.MkdirAll(r.config.App.DataDir, 0o700); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	tok, err := secret.NewStore(r.deps.Fs, path).Token()
	if err != nil {
		return "", fmt.Errorf("loading RPC token: %w", err)
	}
	return tok, nil
}

func (c *components) pushPrayersUpdated() {
	loc := c.api.Resolver().Location()
	c.rpc.Push(common.PushPrayersUpdated, &common.PrayersUpdatedNotification{
		ID:   uuid.NewString(),
		Date: time.Now().In(loc).Format(common.DateLayout),
	})
}

// initialize runs the first-run flow or loads the stored location. A
// failure leaves the resolver unconfigured until a client sets a location.
func (c *components) initialize(ctx context.Context) {
	resp, err := c.api.InitializeFirstTime(ctx)
	switch {
	case err != nil:
		c.log.Warning("Initialization failed, waiting for a location update: %v", err)
	case resp.FirstRun:
		c.log.Info("First run: located at %.4f,%.4f (%s), method %s",
			resp.Location.Latitude, resp.Location.Longitude, resp.Location.Timezone, resp.Settings.Calculation.Method)
	}
}

// run serves until ctx is done, then stops everything in reverse order.
func (c *components) run(ctx context.Context, ln net.Listener) error {
	defer c.close()

	var wg sync.WaitGroup
	errCh := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := c.http.Serve(ln); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	c.initialize(ctx)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.watcher.Run(ctx)
	}()

	c.startJobs(ctx)
	c.log.Info("Daemon started on %s (%s/%s)", ln.Addr(), runtime.GOOS, runtime.GOARCH)

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
		c.log.Error("%v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.shutdown)
	defer cancel()
	if serr := c.http.Shutdown(shutdownCtx); serr != nil && !errors.Is(serr, context.DeadlineExceeded) {
		c.log.Warning("HTTP shutdown: %v", serr)
	}
	wg.Wait()
	c.log.Info("Daemon stopped")
	return err
}

func (c *components) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// startJobs schedules the recurring background jobs. A run missed while
// the daemon was down happens right away.
func (c *components) startJobs(ctx context.Context) {
	if c.updateCron == "" {
		return
	}
	last, err := c.store.JobLastRun(updateCheckJobID)
	if err != nil {
		c.log.Warning("Loading last run of %s: %v", updateCheckJobID, err)
	}
	missed, future := scheduler.LoadJobs([]scheduler.Job{{
		ID:       updateCheckJobID,
		CronExpr: c.updateCron,
		LastRun:  last,
	}}, time.Now())

	sched := scheduler.New(ctx, func(id string) {
		go c.runJob(ctx, id)
	})
	for _, ev := range future {
		sched.Add(ev)
	}
	for _, job := range missed {
		go c.runJob(ctx, job.ID)
	}
}

func (c *components) runJob(ctx context.Context, id string) {
	if id != updateCheckJobID {
		c.log.Warning("Unknown job %q", id)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	resp, err := c.api.CheckForUpdates(ctx)
	if err != nil {
		c.log.Warning("Update check failed: %v", err)
		return
	}
	if err := c.store.SaveJobLastRun(id, time.Now()); err != nil {
		c.log.Warning("Saving last run of %s: %v", id, err)
	}
	if !resp.Available {
		return
	}
	c.log.Info("Update available: %s (running %s)", resp.Latest, resp.Current)
	body := fmt.Sprintf("Version %s is available (running %s)", resp.Latest, resp.Current)
	if err := c.notifier.Show(ctx, appName+" update", body); err != nil {
		c.log.Warning("Update notification: %v", err)
	}
}

// hostname labels MQTT clients in broker logs.
func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
