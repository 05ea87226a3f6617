// Package schedule turns a location, a calculation method and the user's
// manual overrides into the effective prayer schedule of a civil date, and
// selects the next prayer for an instant.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Coordinates of the observer, in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate rejects coordinates outside the geographic ranges.
func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinates, c.Latitude, c.Longitude)
	}
	return nil
}

// Method names a regional calculation convention.
type Method string

const (
	MWL       Method = "MWL"
	Egyptian  Method = "Egyptian"
	Karachi   Method = "Karachi"
	UAQ       Method = "UAQ"
	Dubai     Method = "Dubai"
	Qatar     Method = "Qatar"
	Kuwait    Method = "Kuwait"
	MC        Method = "MC"
	Singapore Method = "Singapore"
	Turkey    Method = "Turkey"
	Tehran    Method = "Tehran"
	ISNA      Method = "ISNA"
)

// Methods lists every supported method.
var Methods = []Method{MWL, Egyptian, Karachi, UAQ, Dubai, Qatar, Kuwait, MC, Singapore, Turkey, Tehran, ISNA}

// Valid reports whether m is one of Methods.
func (m Method) Valid() bool {
	for _, k := range Methods {
		if k == m {
			return true
		}
	}
	return false
}

// Madhab selects the Asr shadow rule.
type Madhab string

const (
	Shafi  Madhab = "Shafi"
	Hanafi Madhab = "Hanafi"
)

// HighLatitudeRule names how Fajr and Isha are bounded when the sun does not
// reach the method's angle.
type HighLatitudeRule string

const (
	TwilightAngle     HighLatitudeRule = "TA"
	MiddleOfTheNight  HighLatitudeRule = "MN"
	SeventhOfTheNight HighLatitudeRule = "SN"
	NoRule            HighLatitudeRule = "NONE"
)

// Adjustments are signed per-prayer minute offsets.
type Adjustments struct {
	Fajr    int `json:"fajr"`
	Dhuhr   int `json:"dhuhr"`
	Asr     int `json:"asr"`
	Maghrib int `json:"maghrib"`
	Isha    int `json:"isha"`
}

// CalculationSettings is the persisted form of the calculation preferences.
type CalculationSettings struct {
	Method           Method           `json:"calc_method"`
	Madhab           Madhab           `json:"madhab"`
	HighLatitudeRule HighLatitudeRule `json:"hlr"`
	Adjustments      *Adjustments     `json:"adjustments,omitempty"`
}

// DefaultCalculationSettings returns MWL, Shafi, twilight-angle rule.
func DefaultCalculationSettings() CalculationSettings {
	return CalculationSettings{Method: MWL, Madhab: Shafi, HighLatitudeRule: TwilightAngle}
}

// CalculationConfig is the immutable snapshot used by one resolution.
type CalculationConfig struct {
	Method           Method
	Madhab           Madhab
	HighLatitudeRule HighLatitudeRule
	Adjustments      Adjustments
}

// Config normalizes s: unknown methods become MWL, anything but Hanafi is
// Shafi, and an unknown high latitude rule is the twilight angle.
func (s CalculationSettings) Config() CalculationConfig {
	cfg := CalculationConfig{Method: s.Method, Madhab: Shafi, HighLatitudeRule: TwilightAngle}
	if !cfg.Method.Valid() {
		cfg.Method = MWL
	}
	if s.Madhab == Hanafi {
		cfg.Madhab = Hanafi
	}
	switch s.HighLatitudeRule {
	case MiddleOfTheNight, SeventhOfTheNight, NoRule:
		cfg.HighLatitudeRule = s.HighLatitudeRule
	}
	if s.Adjustments != nil {
		cfg.Adjustments = *s.Adjustments
	}
	return cfg
}

// Prayer identifies one of the six daily instants.
type Prayer int

const (
	Fajr Prayer = iota
	Sunrise
	Dhuhr
	Asr
	Maghrib
	Isha
)

// AdhanPrayers are the five prayers with an adhan, in daily order.
var AdhanPrayers = []Prayer{Fajr, Dhuhr, Asr, Maghrib, Isha}

var prayerNames = [...]string{"Fajr", "Sunrise", "Dhuhr", "Asr", "Maghrib", "Isha"}

func (p Prayer) String() string {
	if p < Fajr || p > Isha {
		return fmt.Sprintf("Prayer(%d)", int(p))
	}
	return prayerNames[p]
}

// MarshalText encodes the prayer by name.
func (p Prayer) MarshalText() ([]byte, error) {
	if p < Fajr || p > Isha {
		return nil, fmt.Errorf("invalid prayer %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText accepts a case-insensitive prayer name.
func (p *Prayer) UnmarshalText(b []byte) error {
	v, err := ParsePrayer(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParsePrayer parses a case-insensitive prayer name.
func ParsePrayer(s string) (Prayer, error) {
	for i, n := range prayerNames {
		if strings.EqualFold(n, s) {
			return Prayer(i), nil
		}
	}
	return 0, fmt.Errorf("unknown prayer %q", s)
}

// PrayerTimes is the effective schedule of one civil date.
type PrayerTimes struct {
	Fajr    time.Time `json:"fajr"`
	Sunrise time.Time `json:"sunrise"`
	Dhuhr   time.Time `json:"dhuhr"`
	Asr     time.Time `json:"asr"`
	Maghrib time.Time `json:"maghrib"`
	Isha    time.Time `json:"isha"`
}

// Time returns the instant of p.
func (pt PrayerTimes) Time(p Prayer) time.Time {
	switch p {
	case Fajr:
		return pt.Fajr
	case Sunrise:
		return pt.Sunrise
	case Dhuhr:
		return pt.Dhuhr
	case Asr:
		return pt.Asr
	case Maghrib:
		return pt.Maghrib
	case Isha:
		return pt.Isha
	}
	return time.Time{}
}

func (pt *PrayerTimes) set(p Prayer, t time.Time) {
	switch p {
	case Fajr:
		pt.Fajr = t
	case Sunrise:
		pt.Sunrise = t
	case Dhuhr:
		pt.Dhuhr = t
	case Asr:
		pt.Asr = t
	case Maghrib:
		pt.Maghrib = t
	case Isha:
		pt.Isha = t
	}
}

// In returns the schedule with every instant viewed in loc.
func (pt PrayerTimes) In(loc *time.Location) PrayerTimes {
	return PrayerTimes{
		Fajr:    pt.Fajr.In(loc),
		Sunrise: pt.Sunrise.In(loc),
		Dhuhr:   pt.Dhuhr.In(loc),
		Asr:     pt.Asr.In(loc),
		Maghrib: pt.Maghrib.In(loc),
		Isha:    pt.Isha.In(loc),
	}
}

// CustomTimes are manual HH:MM overrides that apply to the current day only.
type CustomTimes struct {
	Enabled bool    `json:"enabled"`
	Fajr    *string `json:"fajr,omitempty"`
	Dhuhr   *string `json:"dhuhr,omitempty"`
	Asr     *string `json:"asr,omitempty"`
	Maghrib *string `json:"maghrib,omitempty"`
	Isha    *string `json:"isha,omitempty"`
}

// For returns the override string for p, or nil.
func (c *CustomTimes) For(p Prayer) *string {
	if c == nil {
		return nil
	}
	switch p {
	case Fajr:
		return c.Fajr
	case Dhuhr:
		return c.Dhuhr
	case Asr:
		return c.Asr
	case Maghrib:
		return c.Maghrib
	case Isha:
		return c.Isha
	}
	return nil
}

func (c *CustomTimes) clone() *CustomTimes {
	if c == nil {
		return nil
	}
	cp := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := *s
		return &v
	}
	return &CustomTimes{
		Enabled: c.Enabled,
		Fajr:    cp(c.Fajr),
		Dhuhr:   cp(c.Dhuhr),
		Asr:     cp(c.Asr),
		Maghrib: cp(c.Maghrib),
		Isha:    cp(c.Isha),
	}
}

// JumuahTime replaces Dhuhr on Fridays.
type JumuahTime struct {
	Enabled bool   `json:"enabled"`
	Time    string `json:"time"`
}

// ParseClock parses an "HH:MM" time of day. It reports false for anything
// else, including out-of-range values such as "25:99".
func ParseClock(s string) (hour, minute int, ok bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

// SameDate reports whether a and b fall on the same civil date in loc.
func SameDate(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
