package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/muezzin/muezzin/common"
	"github.com/muezzin/muezzin/internal/schedule"
	"github.com/muezzin/muezzin/internal/settings"
)

// ErrNoLocator is returned by location detection when no geolocation
// client is configured.
var ErrNoLocator = errors.New("geolocation is not configured")

// Reload reconfigures the resolver from the store. It is a no-op until a
// location has been stored, leaving the resolver uninitialized.
func (s *Api) Reload() error {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	return s.reloadLocked()
}

func (s *Api) reloadLocked() error {
	first, err := s.store.IsFirstRun()
	if err != nil {
		return err
	}
	if first {
		return nil
	}
	loc, err := s.store.Location()
	if err != nil {
		return err
	}
	st, err := s.store.Settings()
	if err != nil {
		return err
	}
	custom, err := s.store.CustomTimes()
	if err != nil {
		return err
	}
	jumuah, err := s.store.JumuahTime()
	if err != nil {
		return err
	}
	if err := s.resolver.Reconfigure(loc.Coordinates(), st.Calculation, loc.Timezone, custom, jumuah); err != nil {
		return err
	}
	s.log.Info("Resolver configured for %.4f,%.4f (%s, %s)", loc.Latitude, loc.Longitude, loc.Timezone, st.Calculation.Method)
	if s.onReconfigure != nil {
		s.onReconfigure()
	}
	return nil
}

// InitializeFirstTime bootstraps the location from the public IP on the
// first run, or loads the stored configuration on later runs.
func (s *Api) InitializeFirstTime(ctx context.Context) (*common.InitializeResponse, error) {
	first, err := s.store.IsFirstRun()
	if err != nil {
		return nil, err
	}
	if first {
		s.log.Info("First launch detected, fetching location")
		if _, err := s.DetectLocation(ctx); err != nil {
			return nil, err
		}
	} else if err := s.Reload(); err != nil {
		return nil, err
	}

	loc, err := s.store.Location()
	if err != nil {
		return nil, err
	}
	st, err := s.store.Settings()
	if err != nil {
		return nil, err
	}
	return &common.InitializeResponse{FirstRun: first, Location: loc, Settings: st}, nil
}

// DetectLocation stores the geolocated position and the region's default
// calculation method, then reconfigures.
func (s *Api) DetectLocation(ctx context.Context) (*settings.Location, error) {
	if s.locator == nil {
		return nil, ErrNoLocator
	}
	info, err := s.locator.Lookup(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Info("Location fetched: %.4f,%.4f %s (%s/%s)", info.Latitude, info.Longitude, info.Timezone, info.ContinentCode, info.CountryCode)

	loc := settings.Location{Latitude: info.Latitude, Longitude: info.Longitude, Timezone: info.Timezone}
	if err := validateLocation(loc); err != nil {
		return nil, err
	}

	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	st, err := s.store.Settings()
	if err != nil {
		return nil, err
	}
	if info.ContinentCode != "" || info.CountryCode != "" {
		st.Calculation.Method = info.DefaultMethod()
	}
	if err := s.store.SaveLocation(loc); err != nil {
		return nil, err
	}
	if err := s.store.SaveSettings(st); err != nil {
		return nil, err
	}
	if err := s.store.MarkFirstRunDone(); err != nil {
		return nil, err
	}
	if err := s.reloadLocked(); err != nil {
		return nil, err
	}
	return &loc, nil
}

func validateLocation(l settings.Location) error {
	if err := l.Coordinates().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	if l.Timezone == "" {
		return fmt.Errorf("%w: timezone is required", ErrInvalidParams)
	}
	if _, err := time.LoadLocation(l.Timezone); err != nil {
		return &schedule.TimezoneError{Name: l.Timezone, Err: err}
	}
	return nil
}

// UpdateLocation stores a manually entered location. It also completes the
// first run so geolocation is not attempted again.
func (s *Api) UpdateLocation(p common.LocationParams) error {
	loc := settings.Location{Latitude: p.Latitude, Longitude: p.Longitude, Timezone: p.Timezone}
	if err := validateLocation(loc); err != nil {
		return err
	}
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	if err := s.store.SaveLocation(loc); err != nil {
		return err
	}
	if err := s.store.MarkFirstRunDone(); err != nil {
		return err
	}
	return s.reloadLocked()
}

// Settings returns the stored preferences.
func (s *Api) Settings() (settings.AppSettings, error) {
	return s.store.Settings()
}

// UpdateSettings replaces the stored preferences.
func (s *Api) UpdateSettings(st settings.AppSettings) error {
	if st.Calculation.Method != "" && !st.Calculation.Method.Valid() {
		return fmt.Errorf("%w: unknown calculation method %q", ErrInvalidParams, st.Calculation.Method)
	}
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	if err := s.store.SaveSettings(st); err != nil {
		return err
	}
	return s.reloadLocked()
}

// UpdateCustomTimes replaces today's manual overrides. Malformed HH:MM
// values are rejected here; at resolution time they would be ignored.
func (s *Api) UpdateCustomTimes(ct schedule.CustomTimes) error {
	for _, p := range schedule.AdhanPrayers {
		if v := ct.For(p); v != nil && *v != "" {
			if _, _, ok := schedule.ParseClock(*v); !ok {
				return fmt.Errorf("%w: %s time %q: want HH:MM", ErrInvalidParams, p, *v)
			}
		}
	}
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	if err := s.store.SaveCustomTimes(ct); err != nil {
		return err
	}
	return s.reloadLocked()
}

// UpdateJumuahTime replaces the Friday Dhuhr override.
func (s *Api) UpdateJumuahTime(jt schedule.JumuahTime) error {
	if jt.Enabled {
		if _, _, ok := schedule.ParseClock(jt.Time); !ok {
			return fmt.Errorf("%w: jumuah time %q: want HH:MM", ErrInvalidParams, jt.Time)
		}
	}
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	if err := s.store.SaveJumuahTime(jt); err != nil {
		return err
	}
	return s.reloadLocked()
}
