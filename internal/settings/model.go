// Package settings persists user preferences, location and overrides in a
// key-value store and reports changes made by other processes.
package settings

import (
	"github.com/muezzin/muezzin/internal/schedule"
)

// DefaultAdhanPath is the default adhan file, relative to the resources dir.
const DefaultAdhanPath = "resources/audio/adhan.mp3"

// ReminderTimes are per-prayer reminder leads in minutes. Zero disables the
// reminder for that prayer. Jumuah replaces Dhuhr's lead on Fridays.
type ReminderTimes struct {
	Enabled bool `json:"enabled"`
	Fajr    uint `json:"fajr"`
	Dhuhr   uint `json:"dhuhr"`
	Asr     uint `json:"asr"`
	Maghrib uint `json:"maghrib"`
	Isha    uint `json:"isha"`
	Jumuah  uint `json:"jumuah"`
}

// LeadFor returns the reminder lead for p.
func (r *ReminderTimes) LeadFor(p schedule.Prayer, friday bool) uint {
	if r == nil {
		return 0
	}
	switch p {
	case schedule.Fajr:
		return r.Fajr
	case schedule.Dhuhr:
		if friday {
			return r.Jumuah
		}
		return r.Dhuhr
	case schedule.Asr:
		return r.Asr
	case schedule.Maghrib:
		return r.Maghrib
	case schedule.Isha:
		return r.Isha
	}
	return 0
}

// BgImage is a front-end background preference.
type BgImage struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// AppSettings is the persisted "settings" record.
type AppSettings struct {
	StartupSound  bool                         `json:"startup_sound"`
	NotifCheck    bool                         `json:"notif_check"`
	Systray       bool                         `json:"systray"`
	AdhanCheck    bool                         `json:"adhan_check"`
	AutoStart     bool                         `json:"auto_start"`
	MinStart      bool                         `json:"min_start"`
	AdhanPath     string                       `json:"adhan_path"`
	AdhanFajrPath *string                      `json:"adhan_fajr_path"`
	DuaEnabled    bool                         `json:"dua_enabled"`
	ReminderTimes *ReminderTimes               `json:"reminder_times"`
	Calculation   schedule.CalculationSettings `json:"calculation"`
	Language      string                       `json:"language"`
	DarkMode      bool                         `json:"dark_mode"`
	BgImage       *BgImage                     `json:"bg_image"`
}

// Default returns the settings used when nothing is stored.
func Default() AppSettings {
	return AppSettings{
		NotifCheck:  true,
		Systray:     true,
		AdhanCheck:  true,
		AutoStart:   true,
		AdhanPath:   DefaultAdhanPath,
		DuaEnabled:  true,
		Calculation: schedule.DefaultCalculationSettings(),
		Language:    "en",
		DarkMode:    true,
	}
}

// RemindersEnabled reports whether any reminder can fire.
func (s AppSettings) RemindersEnabled() bool {
	return s.ReminderTimes != nil && s.ReminderTimes.Enabled
}

// AudioPathFor returns the adhan file for p.
func (s AppSettings) AudioPathFor(p schedule.Prayer) string {
	if p == schedule.Fajr && s.AdhanFajrPath != nil && *s.AdhanFajrPath != "" {
		return *s.AdhanFajrPath
	}
	return s.AdhanPath
}

// Location is the stored coordinates and zone identifier.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

// Coordinates returns the location as resolver coordinates.
func (l Location) Coordinates() schedule.Coordinates {
	return schedule.Coordinates{Latitude: l.Latitude, Longitude: l.Longitude}
}

// DefaultLocation is (0, 0) in UTC.
func DefaultLocation() Location {
	return Location{Timezone: "UTC"}
}
