package schedule

import (
	"sync"
	"time"

	"github.com/muezzin/muezzin/pkg/astro"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock replaces time.Now as the source of "today".
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// Resolver owns the location, method and overrides and derives effective
// schedules from them. It is safe for concurrent use: queries take a read
// lock only long enough to copy the current state, Reconfigure swaps the
// whole state under the write lock.
type Resolver struct {
	backend Backend
	now     func() time.Time

	mu    sync.RWMutex
	state *state
}

type state struct {
	coords   Coordinates
	calc     CalculationConfig
	timezone string
	loc      *time.Location
	custom   *CustomTimes
	jumuah   *JumuahTime
}

// NewResolver creates an unconfigured resolver. A nil backend means
// AstroBackend.
func NewResolver(backend Backend, opts ...Option) *Resolver {
	if backend == nil {
		backend = AstroBackend{}
	}
	r := &Resolver{backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconfigure replaces coordinates, calculation settings, timezone and both
// overrides together. On error the previous state is kept.
func (r *Resolver) Reconfigure(coords Coordinates, calc CalculationSettings, timezone string, custom *CustomTimes, jumuah *JumuahTime) error {
	if err := coords.Validate(); err != nil {
		return err
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return &TimezoneError{Name: timezone, Err: err}
	}
	st := &state{
		coords:   coords,
		calc:     calc.Config(),
		timezone: timezone,
		loc:      loc,
		custom:   custom.clone(),
	}
	if jumuah != nil {
		j := *jumuah
		st.jumuah = &j
	}
	r.mu.Lock()
	r.state = st
	r.mu.Unlock()
	return nil
}

func (r *Resolver) snapshot() (*state, error) {
	r.mu.RLock()
	st := r.state
	r.mu.RUnlock()
	if st == nil {
		return nil, ErrNotInitialized
	}
	return st, nil
}

// Initialized reports whether Reconfigure has succeeded at least once.
func (r *Resolver) Initialized() bool {
	_, err := r.snapshot()
	return err == nil
}

// Location returns the configured zone, or UTC before configuration.
func (r *Resolver) Location() *time.Location {
	st, err := r.snapshot()
	if err != nil {
		return time.UTC
	}
	return st.loc
}

// Timezone returns the configured zone identifier.
func (r *Resolver) Timezone() string {
	st, err := r.snapshot()
	if err != nil {
		return ""
	}
	return st.timezone
}

// Coordinates returns the configured coordinates.
func (r *Resolver) Coordinates() (Coordinates, error) {
	st, err := r.snapshot()
	if err != nil {
		return Coordinates{}, err
	}
	return st.coords, nil
}

// Resolve returns the effective schedule of the civil date of date in the
// configured zone.
func (r *Resolver) Resolve(date time.Time) (PrayerTimes, error) {
	st, err := r.snapshot()
	if err != nil {
		return PrayerTimes{}, err
	}
	return r.resolve(st, date, r.now())
}

func (r *Resolver) resolve(st *state, date, now time.Time) (PrayerTimes, error) {
	local := date.In(st.loc)
	y, m, d := local.Date()
	base, err := r.backend.Calculate(st.coords, st.calc, y, m, d)
	if err != nil {
		return PrayerTimes{}, &CalculationError{Date: local.Format(time.DateOnly), Err: err}
	}
	pt := base.In(st.loc)
	if SameDate(local, now, st.loc) {
		pt = applyCustomTimes(pt, local, st.custom)
	}
	if local.Weekday() == time.Friday {
		pt = applyJumuah(pt, local, st.jumuah)
	}
	return pt, nil
}

// at returns the civil date of day at hh:mm in day's zone.
func at(day time.Time, hh, mm int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hh, mm, 0, 0, day.Location())
}

func applyCustomTimes(pt PrayerTimes, day time.Time, custom *CustomTimes) PrayerTimes {
	if custom == nil || !custom.Enabled {
		return pt
	}
	for _, p := range AdhanPrayers {
		s := custom.For(p)
		if s == nil {
			continue
		}
		hh, mm, ok := ParseClock(*s)
		if !ok {
			continue
		}
		pt.set(p, at(day, hh, mm))
	}
	return pt
}

func applyJumuah(pt PrayerTimes, day time.Time, jumuah *JumuahTime) PrayerTimes {
	if jumuah == nil || !jumuah.Enabled {
		return pt
	}
	if hh, mm, ok := ParseClock(jumuah.Time); ok {
		pt.Dhuhr = at(day, hh, mm)
	}
	return pt
}

// NextPrayer returns the first adhan prayer strictly after now, or the next
// day's Fajr once today's Isha has passed.
func (r *Resolver) NextPrayer(now time.Time) (Prayer, time.Time, error) {
	st, err := r.snapshot()
	if err != nil {
		return 0, time.Time{}, err
	}
	clock := r.now()
	today, err := r.resolve(st, now, clock)
	if err != nil {
		return 0, time.Time{}, err
	}
	for _, p := range AdhanPrayers {
		if t := today.Time(p); t.After(now) {
			return p, t, nil
		}
	}
	y, m, d := now.In(st.loc).Date()
	tomorrow, err := r.resolve(st, time.Date(y, m, d+1, 12, 0, 0, 0, st.loc), clock)
	if err != nil {
		return 0, time.Time{}, err
	}
	return Fajr, tomorrow.Fajr, nil
}

// PreviousPrayer returns the last adhan prayer at or before now, looking
// back into the previous day before today's Fajr.
func (r *Resolver) PreviousPrayer(now time.Time) (Prayer, time.Time, error) {
	st, err := r.snapshot()
	if err != nil {
		return 0, time.Time{}, err
	}
	clock := r.now()
	today, err := r.resolve(st, now, clock)
	if err != nil {
		return 0, time.Time{}, err
	}
	for i := len(AdhanPrayers) - 1; i >= 0; i-- {
		p := AdhanPrayers[i]
		if t := today.Time(p); !t.After(now) {
			return p, t, nil
		}
	}
	y, m, d := now.In(st.loc).Date()
	yesterday, err := r.resolve(st, time.Date(y, m, d-1, 12, 0, 0, 0, st.loc), clock)
	if err != nil {
		return 0, time.Time{}, err
	}
	return Isha, yesterday.Isha, nil
}

// Qibla returns the bearing to the Kaaba from the configured coordinates.
func (r *Resolver) Qibla() (float64, error) {
	st, err := r.snapshot()
	if err != nil {
		return 0, err
	}
	return astro.Qibla(st.coords.Latitude, st.coords.Longitude), nil
}
