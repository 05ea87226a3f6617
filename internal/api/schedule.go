package api

import (
	"fmt"
	"time"

	"github.com/muezzin/muezzin/common"
	"github.com/muezzin/muezzin/internal/timetable"
)

const monthLayout = "2006-01"

// Schedule returns the effective schedule of date (YYYY-MM-DD), or of today
// in the configured zone when date is empty.
func (s *Api) Schedule(date string) (*common.ScheduleResponse, error) {
	loc := s.resolver.Location()
	day := s.now().In(loc)
	if date != "" {
		d, err := time.ParseInLocation(common.DateLayout, date, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: date %q: want YYYY-MM-DD", ErrInvalidParams, date)
		}
		day = d.Add(12 * time.Hour)
	}
	pt, err := s.resolver.Resolve(day)
	if err != nil {
		return nil, err
	}
	return &common.ScheduleResponse{
		Date:     day.Format(common.DateLayout),
		Timezone: s.resolver.Timezone(),
		Times:    pt.In(loc),
	}, nil
}

// Month returns the timetable of month (YYYY-MM), or of the current month.
// Days the backend cannot compute carry an error string instead of times.
func (s *Api) Month(month string) (*common.MonthResponse, error) {
	loc := s.resolver.Location()
	first := s.now().In(loc)
	if month != "" {
		m, err := time.ParseInLocation(monthLayout, month, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: month %q: want YYYY-MM", ErrInvalidParams, month)
		}
		first = m
	}
	rows, err := timetable.Build(s.resolver, first.Year(), first.Month())
	if rows == nil {
		return nil, err
	}
	if err != nil {
		s.log.Warning("Timetable %s has days without times: %v", first.Format(monthLayout), err)
	}

	resp := &common.MonthResponse{
		Month:    first.Format(monthLayout),
		Timezone: s.resolver.Timezone(),
		Rows:     make([]common.MonthRow, len(rows)),
	}
	for i, r := range rows {
		row := common.MonthRow{
			Date:    r.Date,
			Weekday: r.Weekday,
			Fajr:    r.Fajr,
			Sunrise: r.Sunrise,
			Dhuhr:   r.Dhuhr,
			Asr:     r.Asr,
			Maghrib: r.Maghrib,
			Isha:    r.Isha,
		}
		if r.Err != nil {
			row.Error = r.Err.Error()
		}
		resp.Rows[i] = row
	}
	return resp, nil
}

// NextPrayer returns the upcoming adhan prayer together with the one that
// precedes it, so clients can draw a countdown.
func (s *Api) NextPrayer() (*common.NextPrayerResponse, error) {
	now := s.now()
	next, at, err := s.resolver.NextPrayer(now)
	if err != nil {
		return nil, err
	}
	prev, prevAt, err := s.resolver.PreviousPrayer(now)
	if err != nil {
		return nil, err
	}
	loc := s.resolver.Location()
	return &common.NextPrayerResponse{
		Prayer:       next,
		Time:         at.In(loc),
		SecondsUntil: int64(at.Sub(now) / time.Second),
		Previous:     prev,
		PreviousTime: prevAt.In(loc),
	}, nil
}

// Qibla returns the bearing to the Kaaba in degrees from true north.
func (s *Api) Qibla() (*common.QiblaResponse, error) {
	dir, err := s.resolver.Qibla()
	if err != nil {
		return nil, err
	}
	return &common.QiblaResponse{Direction: dir}, nil
}
