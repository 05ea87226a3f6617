// Package timetable renders a month of resolved prayer times as rows, CSV or
// an Excel workbook.
package timetable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/muezzin/muezzin/internal/schedule"
	"github.com/xuri/excelize/v2"
)

const clockLayout = "15:04"

// Header is the column order of every export.
var Header = []string{"Date", "Weekday", "Fajr", "Sunrise", "Dhuhr", "Asr", "Maghrib", "Isha"}

// Resolver resolves a civil date in its configured zone.
type Resolver interface {
	Location() *time.Location
	Resolve(date time.Time) (schedule.PrayerTimes, error)
}

// Row is one day of the timetable. Time cells are empty when the day could
// not be computed; Err then holds the cause.
type Row struct {
	Date    string
	Weekday string
	Fajr    string
	Sunrise string
	Dhuhr   string
	Asr     string
	Maghrib string
	Isha    string
	Err     error
}

func (r Row) cells() []string {
	return []string{r.Date, r.Weekday, r.Fajr, r.Sunrise, r.Dhuhr, r.Asr, r.Maghrib, r.Isha}
}

// Build resolves every day of month. Days that fail keep empty cells and
// their errors are joined into the returned error.
func Build(r Resolver, year int, month time.Month) ([]Row, error) {
	loc := r.Location()
	first := time.Date(year, month, 1, 12, 0, 0, 0, loc)
	days := first.AddDate(0, 1, -1).Day()

	rows := make([]Row, 0, days)
	var errs []error
	for d := 1; d <= days; d++ {
		day := time.Date(year, month, d, 12, 0, 0, 0, loc)
		row := Row{Date: day.Format(time.DateOnly), Weekday: day.Weekday().String()}
		pt, err := r.Resolve(day)
		if err != nil {
			if errors.Is(err, schedule.ErrNotInitialized) {
				return nil, err
			}
			row.Err = err
			errs = append(errs, err)
			rows = append(rows, row)
			continue
		}
		pt = pt.In(loc)
		row.Fajr = pt.Fajr.Format(clockLayout)
		row.Sunrise = pt.Sunrise.Format(clockLayout)
		row.Dhuhr = pt.Dhuhr.Format(clockLayout)
		row.Asr = pt.Asr.Format(clockLayout)
		row.Maghrib = pt.Maghrib.Format(clockLayout)
		row.Isha = pt.Isha.Format(clockLayout)
		rows = append(rows, row)
	}
	return rows, errors.Join(errs...)
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.cells()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SheetName is the worksheet name used for a month, e.g. "March 2024".
func SheetName(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", month, year)
}

// WriteXLSX writes rows as a single-sheet workbook with a bold header.
func WriteXLSX(w io.Writer, sheet string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to set header: %w", err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(Header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for r, row := range rows {
		for c, val := range row.cells() {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("failed to set cell value: %w", err)
			}
		}
	}
	if err := f.SetColWidth(sheet, "A", "B", 12); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
