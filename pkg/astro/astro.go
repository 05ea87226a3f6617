package astro

import (
	"fmt"
	"math"
	"time"
)

// HighLatitudeRule bounds Fajr and Isha at latitudes where the sun does not
// reach the convention's depression angle.
type HighLatitudeRule int

const (
	// TwilightAngle limits the twilight to angle/60 of the night.
	TwilightAngle HighLatitudeRule = iota
	// MiddleOfTheNight limits the twilight to half the night.
	MiddleOfTheNight
	// SeventhOfTheNight limits the twilight to a seventh of the night.
	SeventhOfTheNight
	// NoHighLatitudeRule returns an UndefinedError when the angle is not reached.
	NoHighLatitudeRule
)

// Params are the inputs of one calculation.
type Params struct {
	Latitude  float64
	Longitude float64

	Convention Convention
	// AsrFactor is the shadow length factor: 1 for the majority opinion,
	// 2 for the Hanafi school.
	AsrFactor    float64
	HighLatitude HighLatitudeRule
	// Adjustments are user offsets, added on top of the convention's own.
	Adjustments Adjustments
}

// Times holds the six instants of one civil date, in UTC.
type Times struct {
	Fajr    time.Time
	Sunrise time.Time
	Dhuhr   time.Time
	Asr     time.Time
	Maghrib time.Time
	Isha    time.Time
}

// UndefinedError reports that a prayer has no instant on the requested date
// at the requested latitude.
type UndefinedError struct {
	Prayer   string
	Latitude float64
	Date     string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("astro: %s is undefined at latitude %.4f on %s", e.Prayer, e.Latitude, e.Date)
}

const riseSetAngle = 0.833

type calculator struct {
	lat float64
	jd  float64
}

func (c *calculator) midDay(t float64) float64 {
	_, eqt := sunPosition(c.jd + t)
	return fixHour(12 - eqt)
}

// sunAngleTime returns the local solar hour at which the sun is angle degrees
// below the horizon, before noon when ccw is set.
func (c *calculator) sunAngleTime(angle, t float64, ccw bool) float64 {
	decl, _ := sunPosition(c.jd + t)
	noon := c.midDay(t)
	cosT := (-dsin(angle) - dsin(decl)*dsin(c.lat)) / (dcos(decl) * dcos(c.lat))
	if cosT < -1 || cosT > 1 {
		return math.NaN()
	}
	h := darccos(cosT) / 15
	if ccw {
		return noon - h
	}
	return noon + h
}

func (c *calculator) asrTime(factor, t float64) float64 {
	decl, _ := sunPosition(c.jd + t)
	angle := -darccot(factor + dtan(math.Abs(c.lat-decl)))
	return c.sunAngleTime(angle, t, false)
}

type dayHours struct {
	fajr, sunrise, dhuhr, asr, sunset, maghrib, isha float64
}

func (c *calculator) compute(p Params, h dayHours) dayHours {
	conv := p.Convention
	out := dayHours{
		fajr:    c.sunAngleTime(conv.FajrAngle, h.fajr/24, true),
		sunrise: c.sunAngleTime(riseSetAngle, h.sunrise/24, true),
		dhuhr:   c.midDay(h.dhuhr / 24),
		asr:     c.asrTime(p.AsrFactor, h.asr/24),
		sunset:  c.sunAngleTime(riseSetAngle, h.sunset/24, false),
	}
	out.maghrib = out.sunset
	if conv.MaghribAngle > 0 {
		out.maghrib = c.sunAngleTime(conv.MaghribAngle, h.maghrib/24, false)
	}
	if conv.IshaInterval > 0 {
		out.isha = out.maghrib + float64(conv.IshaInterval)/60
	} else {
		out.isha = c.sunAngleTime(conv.IshaAngle, h.isha/24, false)
	}
	return out
}

// or replaces undefined hours with the matching hour of fallback.
func (d dayHours) or(fallback dayHours) dayHours {
	pick := func(v, f float64) float64 {
		if math.IsNaN(v) {
			return f
		}
		return v
	}
	return dayHours{
		fajr:    pick(d.fajr, fallback.fajr),
		sunrise: pick(d.sunrise, fallback.sunrise),
		dhuhr:   pick(d.dhuhr, fallback.dhuhr),
		asr:     pick(d.asr, fallback.asr),
		sunset:  pick(d.sunset, fallback.sunset),
		maghrib: pick(d.maghrib, fallback.maghrib),
		isha:    pick(d.isha, fallback.isha),
	}
}

func nightPortion(rule HighLatitudeRule, angle float64) float64 {
	switch rule {
	case MiddleOfTheNight:
		return 0.5
	case SeventhOfTheNight:
		return 1.0 / 7
	default:
		return angle / 60
	}
}

// Calculate computes the prayer instants for the civil date year-month-day.
func Calculate(p Params, year int, month time.Month, day int) (Times, error) {
	date := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	undefined := func(prayer string) (Times, error) {
		return Times{}, &UndefinedError{Prayer: prayer, Latitude: p.Latitude, Date: date}
	}
	if p.AsrFactor <= 0 {
		p.AsrFactor = 1
	}

	c := &calculator{
		lat: p.Latitude,
		jd:  julianDate(year, int(month), day) - p.Longitude/(15*24),
	}
	est := dayHours{fajr: 5, sunrise: 6, dhuhr: 12, asr: 13, sunset: 18, maghrib: 18, isha: 18}
	var h dayHours
	for i := 0; i < 2; i++ {
		h = c.compute(p, est)
		est = h.or(est)
	}

	switch {
	case math.IsNaN(h.sunrise):
		return undefined("sunrise")
	case math.IsNaN(h.sunset):
		return undefined("sunset")
	case math.IsNaN(h.asr):
		return undefined("asr")
	}

	conv := p.Convention
	night := 24 - (h.sunset - h.sunrise)
	if p.HighLatitude == NoHighLatitudeRule {
		if math.IsNaN(h.fajr) {
			return undefined("fajr")
		}
		if math.IsNaN(h.maghrib) {
			return undefined("maghrib")
		}
		if math.IsNaN(h.isha) {
			return undefined("isha")
		}
	} else {
		safeFajr := h.sunrise - nightPortion(p.HighLatitude, conv.FajrAngle)*night
		if math.IsNaN(h.fajr) || h.fajr < safeFajr {
			h.fajr = safeFajr
		}
		if math.IsNaN(h.maghrib) {
			h.maghrib = h.sunset + nightPortion(p.HighLatitude, conv.MaghribAngle)*night
		}
		if conv.IshaInterval > 0 {
			h.isha = h.maghrib + float64(conv.IshaInterval)/60
		} else {
			safeIsha := h.sunset + nightPortion(p.HighLatitude, conv.IshaAngle)*night
			if math.IsNaN(h.isha) || h.isha > safeIsha {
				h.isha = safeIsha
			}
		}
	}
	// An angle-based Maghrib only stands between sunset and Isha.
	if conv.IshaInterval == 0 && (h.maghrib <= h.sunset || h.maghrib >= h.isha) {
		h.maghrib = h.sunset
	}

	adj := conv.Adjustments.Add(p.Adjustments)
	base := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	at := func(hours float64, minutes int) time.Time {
		utc := hours - p.Longitude/15
		t := base.Add(time.Duration(utc * float64(time.Hour)))
		return t.Add(time.Duration(minutes) * time.Minute).Round(time.Minute)
	}
	t := Times{
		Fajr:    at(h.fajr, adj.Fajr),
		Sunrise: at(h.sunrise, adj.Sunrise),
		Dhuhr:   at(h.dhuhr, adj.Dhuhr),
		Asr:     at(h.asr, adj.Asr),
		Maghrib: at(h.maghrib, adj.Maghrib),
		Isha:    at(h.isha, adj.Isha),
	}
	// Offsets can reorder instants when the night is only minutes long.
	if name, ok := t.ordered(); !ok {
		return undefined(name)
	}
	return t, nil
}

// ordered reports whether every instant is strictly after the previous one,
// naming the first that is not.
func (t Times) ordered() (string, bool) {
	seq := []struct {
		name string
		at   time.Time
	}{
		{"fajr", t.Fajr}, {"sunrise", t.Sunrise}, {"dhuhr", t.Dhuhr},
		{"asr", t.Asr}, {"maghrib", t.Maghrib}, {"isha", t.Isha},
	}
	for i := 1; i < len(seq); i++ {
		if !seq[i-1].at.Before(seq[i].at) {
			return seq[i].name, false
		}
	}
	return "", true
}
