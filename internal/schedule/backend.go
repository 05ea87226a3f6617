package schedule

import (
	"time"

	"github.com/muezzin/muezzin/pkg/astro"
)

// Backend computes the six instants of a civil date. Implementations must
// be pure functions of their arguments.
type Backend interface {
	Calculate(coords Coordinates, cfg CalculationConfig, year int, month time.Month, day int) (PrayerTimes, error)
}

// AstroBackend computes prayer times with pkg/astro.
type AstroBackend struct{}

var highLatitudeRules = map[HighLatitudeRule]astro.HighLatitudeRule{
	TwilightAngle:     astro.TwilightAngle,
	MiddleOfTheNight:  astro.MiddleOfTheNight,
	SeventhOfTheNight: astro.SeventhOfTheNight,
	NoRule:            astro.NoHighLatitudeRule,
}

// Params translates a calculation config into backend parameters.
func Params(coords Coordinates, cfg CalculationConfig) astro.Params {
	conv, ok := astro.ConventionFor(string(cfg.Method))
	if !ok {
		conv, _ = astro.ConventionFor(string(MWL))
	}
	factor := 1.0
	if cfg.Madhab == Hanafi {
		factor = 2
	}
	return astro.Params{
		Latitude:     coords.Latitude,
		Longitude:    coords.Longitude,
		Convention:   conv,
		AsrFactor:    factor,
		HighLatitude: highLatitudeRules[cfg.HighLatitudeRule],
		Adjustments: astro.Adjustments{
			Fajr:    cfg.Adjustments.Fajr,
			Dhuhr:   cfg.Adjustments.Dhuhr,
			Asr:     cfg.Adjustments.Asr,
			Maghrib: cfg.Adjustments.Maghrib,
			Isha:    cfg.Adjustments.Isha,
		},
	}
}

func (AstroBackend) Calculate(coords Coordinates, cfg CalculationConfig, year int, month time.Month, day int) (PrayerTimes, error) {
	t, err := astro.Calculate(Params(coords, cfg), year, month, day)
	if err != nil {
		return PrayerTimes{}, err
	}
	return PrayerTimes{
		Fajr:    t.Fajr,
		Sunrise: t.Sunrise,
		Dhuhr:   t.Dhuhr,
		Asr:     t.Asr,
		Maghrib: t.Maghrib,
		Isha:    t.Isha,
	}, nil
}
