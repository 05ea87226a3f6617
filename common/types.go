package common

import (
	"time"

	"github.com/muezzin/muezzin/internal/schedule"
	"github.com/muezzin/muezzin/internal/settings"
)

// DateLayout is the wire format of civil dates.
const DateLayout = "2006-01-02"

type ScheduleParams struct {
	// Date is YYYY-MM-DD; empty means today in the configured zone.
	Date string `json:"date,omitempty"`
}

type ScheduleResponse struct {
	Date     string               `json:"date"`
	Timezone string               `json:"timezone"`
	Times    schedule.PrayerTimes `json:"times"`
}

type MonthParams struct {
	// Month is YYYY-MM; empty means the current month.
	Month string `json:"month,omitempty"`
}

type MonthRow struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Fajr    string `json:"fajr"`
	Sunrise string `json:"sunrise"`
	Dhuhr   string `json:"dhuhr"`
	Asr     string `json:"asr"`
	Maghrib string `json:"maghrib"`
	Isha    string `json:"isha"`
	Error   string `json:"error,omitempty"`
}

type MonthResponse struct {
	Month    string     `json:"month"`
	Timezone string     `json:"timezone"`
	Rows     []MonthRow `json:"rows"`
}

type NextPrayerResponse struct {
	Prayer       schedule.Prayer `json:"prayer"`
	Time         time.Time       `json:"time"`
	SecondsUntil int64           `json:"seconds_until"`
	Previous     schedule.Prayer `json:"previous"`
	PreviousTime time.Time       `json:"previous_time"`
}

type QiblaResponse struct {
	Direction float64 `json:"direction"`
}

type LocationParams struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

type VolumeParams struct {
	Volume float64 `json:"volume"`
}

type PlayParams struct {
	// Path overrides the configured adhan file.
	Path string `json:"path,omitempty"`
}

type AudioStatusResponse struct {
	Playing bool    `json:"playing"`
	Paused  bool    `json:"paused"`
	Volume  float64 `json:"volume"`
	Path    string  `json:"path,omitempty"`
}

type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildType string `json:"build_type,omitempty"`
}

type UpdateResponse struct {
	Current   string `json:"current"`
	Latest    string `json:"latest"`
	Available bool   `json:"available"`
}

type InitializeResponse struct {
	FirstRun bool                 `json:"first_run"`
	Location settings.Location    `json:"location"`
	Settings settings.AppSettings `json:"settings"`
}

// Push payloads. Every payload carries a unique id so clients can
// deduplicate deliveries across reconnects.

type PrayersUpdatedNotification struct {
	ID   string `json:"id"`
	Date string `json:"date"`
}

type PrayerArrivedNotification struct {
	ID     string          `json:"id"`
	Prayer schedule.Prayer `json:"prayer"`
	Time   time.Time       `json:"time"`
}

type PrayerReminderNotification struct {
	ID           string          `json:"id"`
	Prayer       schedule.Prayer `json:"prayer"`
	Time         time.Time       `json:"time"`
	MinutesUntil int64           `json:"minutes_until"`
}

type NotificationShowNotification struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}
