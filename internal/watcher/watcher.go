// Package watcher runs the long-lived loop that turns the resolved prayer
// schedule into side effects: adhan playback, arrival notifications,
// reminders and the daily "schedule changed" signal.
//
// The loop polls at a sub-minute tick. Work past rollover detection runs at
// most once per civil minute, and only while adhan or notifications are on. An arrival fires when the next prayer is
// within ArrivalWindow of now, or when the prayer tracked on the previous
// evaluation has been crossed by no more than MaxLateness. Per-day markers
// keep every arrival and reminder to a single dispatch.
package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/muezzin/muezzin/internal/audio"
	"github.com/muezzin/muezzin/internal/notify"
	"github.com/muezzin/muezzin/internal/schedule"
	"github.com/muezzin/muezzin/internal/settings"
	"github.com/muezzin/muezzin/pkg/logger"
)

const (
	DefaultTick          = time.Second
	DefaultArrivalWindow = time.Second
	DefaultMaxLateness   = time.Minute
)

const (
	arrivalTitle  = "Prayer Time"
	reminderTitle = "Prayer Reminder"
	notifyTimeout = 10 * time.Second
)

// Config tunes the loop.
type Config struct {
	Tick          time.Duration
	ArrivalWindow time.Duration
	MaxLateness   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Tick <= 0 {
		c.Tick = DefaultTick
	}
	if c.ArrivalWindow <= 0 {
		c.ArrivalWindow = DefaultArrivalWindow
	}
	if c.MaxLateness <= 0 {
		c.MaxLateness = DefaultMaxLateness
	}
	return c
}

// Resolver is the schedule view the watcher polls.
type Resolver interface {
	Location() *time.Location
	NextPrayer(now time.Time) (schedule.Prayer, time.Time, error)
	PreviousPrayer(now time.Time) (schedule.Prayer, time.Time, error)
}

// SettingsSource loads the current preferences.
type SettingsSource interface {
	Settings() (settings.AppSettings, error)
}

// Deps are the collaborators of a Watcher. Player, Notifier and the hooks
// are optional.
type Deps struct {
	Resolver Resolver
	Settings SettingsSource
	Player   audio.Player
	Notifier notify.Notifier
	Logger   logger.Logger

	// OnRollover is called with the new civil date when the day changes.
	OnRollover func(date time.Time)
	// OnArrive is called once per arrived prayer.
	OnArrive func(p schedule.Prayer, at time.Time)
	// OnReminder is called once per reminder with the minutes left.
	OnReminder func(p schedule.Prayer, at time.Time, minutesUntil int64)
}

type markerKind uint8

const (
	arrivalMarker markerKind = iota
	reminderMarker
)

type marker struct {
	date   string
	prayer schedule.Prayer
	kind   markerKind
}

type target struct {
	prayer schedule.Prayer
	at     time.Time
}

// Watcher is not safe for concurrent use: Evaluate must not run while Run
// is active.
type Watcher struct {
	cfg  Config
	deps Deps
	log  logger.Logger
	now  func() time.Time

	lastDate   string
	lastMinute int
	tracked    *target
	fired      map[marker]struct{}
}

// New returns a watcher. Run starts it.
func New(cfg Config, deps Deps) *Watcher {
	l := deps.Logger
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Watcher{
		cfg:        cfg.withDefaults(),
		deps:       deps,
		log:        l,
		now:        time.Now,
		lastMinute: -1,
		fired:      make(map[marker]struct{}),
	}
}

// Run evaluates once immediately, then on every tick until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.Tick)
	defer ticker.Stop()

	w.log.Info("Watcher started (tick %s)", w.cfg.Tick)
	w.Evaluate(w.now())
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Watcher stopped")
			return ctx.Err()
		case <-ticker.C:
			w.Evaluate(w.now())
		}
	}
}

// Evaluate runs one tick at now. Errors are logged and end the tick early.
func (w *Watcher) Evaluate(now time.Time) {
	loc := w.deps.Resolver.Location()
	local := now.In(loc)
	date := local.Format(time.DateOnly)

	if w.lastDate == "" {
		w.lastDate = date
	} else if date != w.lastDate {
		w.rollover(local, date)
	}

	minute := local.Hour()*60 + local.Minute()
	if minute == w.lastMinute {
		return
	}
	w.lastMinute = minute

	st, err := w.deps.Settings.Settings()
	if err != nil {
		w.log.Error("Watcher: load settings: %v", err)
		return
	}

	if !st.AdhanCheck && !st.NotifCheck {
		w.tracked = nil
		return
	}

	prev := w.tracked
	next, nextAt, err := w.deps.Resolver.NextPrayer(now)
	if err != nil {
		w.log.Error("Watcher: next prayer: %v", err)
		return
	}
	w.tracked = &target{prayer: next, at: nextAt}

	if p, at, ok := w.arrival(now, prev, next, nextAt); ok {
		w.arrive(st, p, at, loc)
	}
	if st.RemindersEnabled() {
		w.remind(now, st, next, nextAt, loc)
	}
}

func (w *Watcher) rollover(local time.Time, date string) {
	w.lastDate = date
	for m := range w.fired {
		if m.date < date {
			delete(w.fired, m)
		}
	}
	w.log.Info("Date changed to %s, schedule refreshed", date)
	if w.deps.OnRollover != nil {
		w.deps.OnRollover(local)
	}
}

// arrival picks the prayer that arrives at now, if any.
func (w *Watcher) arrival(now time.Time, prev *target, next schedule.Prayer, nextAt time.Time) (schedule.Prayer, time.Time, bool) {
	if d := nextAt.Sub(now); d >= 0 && d <= w.cfg.ArrivalWindow {
		return next, nextAt, true
	}
	p, at, err := w.deps.Resolver.PreviousPrayer(now)
	if err != nil {
		return 0, time.Time{}, false
	}
	// The tracked instant counts only if the schedule still has it; a
	// reconfiguration since the last minute may have moved the prayer.
	if prev != nil && prev.prayer == p && prev.at.Equal(at) && now.Sub(at) <= w.cfg.MaxLateness {
		return p, at, true
	}
	// Covers a start inside the window just after an instant.
	if now.Sub(at) <= w.cfg.ArrivalWindow {
		return p, at, true
	}
	return 0, time.Time{}, false
}

// mark records m and reports whether it was new.
func (w *Watcher) mark(m marker) bool {
	if _, ok := w.fired[m]; ok {
		return false
	}
	w.fired[m] = struct{}{}
	return true
}

func (w *Watcher) arrive(st settings.AppSettings, p schedule.Prayer, at time.Time, loc *time.Location) {
	if !w.mark(marker{date: at.In(loc).Format(time.DateOnly), prayer: p, kind: arrivalMarker}) {
		return
	}
	w.log.Info("%s arrived at %s", p, at.In(loc).Format("15:04"))

	if st.AdhanCheck && w.deps.Player != nil {
		path := st.AudioPathFor(p)
		if err := w.deps.Player.Play(path); err != nil {
			w.log.Error("Watcher: play adhan for %s: %v", p, err)
		}
	}
	if st.NotifCheck {
		w.show(arrivalTitle, fmt.Sprintf("It's time for %s prayer", p))
	}
	if w.deps.OnArrive != nil {
		w.deps.OnArrive(p, at)
	}
}

func (w *Watcher) remind(now time.Time, st settings.AppSettings, p schedule.Prayer, at time.Time, loc *time.Location) {
	minutes := (at.Unix() - now.Unix()) / 60
	lead := st.ReminderTimes.LeadFor(p, now.In(loc).Weekday() == time.Friday)
	if lead == 0 || int64(lead) != minutes || !st.NotifCheck {
		return
	}
	if !w.mark(marker{date: at.In(loc).Format(time.DateOnly), prayer: p, kind: reminderMarker}) {
		return
	}
	w.log.Info("Reminder: %s in %d minutes", p, minutes)
	w.show(reminderTitle, fmt.Sprintf("Adhan in %d minutes", lead))
	if w.deps.OnReminder != nil {
		w.deps.OnReminder(p, at, minutes)
	}
}

func (w *Watcher) show(title, body string) {
	if w.deps.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := w.deps.Notifier.Show(ctx, title, body); err != nil {
		w.log.Warning("Watcher: notification failed: %v", err)
	}
}
