package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/muezzin/muezzin/cmd/common"
	apicommon "github.com/muezzin/muezzin/common"
	"github.com/muezzin/muezzin/internal/timetable"
)

var timetableFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "month, m",
		Usage: "month to export, as `YYYY-MM` (default this month)",
	},
	cli.StringFlag{
		Name:  "xlsx",
		Usage: "write an Excel workbook to `FILE`",
	},
	cli.StringFlag{
		Name:  "csv",
		Usage: "write CSV to `FILE`",
	},
}

// outFs holds exported files.
var outFs = afero.NewOsFs()

func timetableCmd(ctx *cli.Context) error {
	xlsxPath, csvPath := ctx.String("xlsx"), ctx.String("csv")
	if xlsxPath != "" && csvPath != "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("--xlsx and --csv are mutually exclusive"))
	}
	return withClient(ctx, "timetable", func(c context.Context, client *rpcClient) error {
		var resp apicommon.MonthResponse
		if err := client.Call(c, apicommon.MethodScheduleMonth, apicommon.MonthParams{Month: ctx.String("month")}, &resp); err != nil {
			return err
		}
		rows := monthRows(&resp)
		switch {
		case xlsxPath != "":
			month, err := time.Parse("2006-01", resp.Month)
			if err != nil {
				return err
			}
			sheet := timetable.SheetName(month.Year(), month.Month())
			if err := writeFile(xlsxPath, func(w io.Writer) error { return timetable.WriteXLSX(w, sheet, rows) }); err != nil {
				return err
			}
			fmt.Printf("Wrote %d days to %s\n", len(rows), xlsxPath)
		case csvPath != "":
			if err := writeFile(csvPath, func(w io.Writer) error { return timetable.WriteCSV(w, rows) }); err != nil {
				return err
			}
			fmt.Printf("Wrote %d days to %s\n", len(rows), csvPath)
		default:
			printTimetable(&resp, rows)
		}
		return nil
	})
}

// monthRows converts the wire rows into timetable rows.
func monthRows(resp *apicommon.MonthResponse) []timetable.Row {
	rows := make([]timetable.Row, len(resp.Rows))
	for i, r := range resp.Rows {
		rows[i] = timetable.Row{
			Date: r.Date, Weekday: r.Weekday,
			Fajr: r.Fajr, Sunrise: r.Sunrise, Dhuhr: r.Dhuhr,
			Asr: r.Asr, Maghrib: r.Maghrib, Isha: r.Isha,
		}
		if r.Error != "" {
			rows[i].Err = errors.New(r.Error)
		}
	}
	return rows
}

func printTimetable(resp *apicommon.MonthResponse, rows []timetable.Row) {
	fmt.Printf("Timetable for %s (%s)\n\n", resp.Month, resp.Timezone)
	cells := make([]string, len(timetable.Header))
	for i, h := range timetable.Header {
		cells[i] = common.Beaut(h, 11)
	}
	fmt.Println(strings.Join(cells, "|"))
	for _, r := range rows {
		line := []string{r.Date, r.Weekday, r.Fajr, r.Sunrise, r.Dhuhr, r.Asr, r.Maghrib, r.Isha}
		for i, v := range line {
			cells[i] = common.Beaut(v, 11)
		}
		fmt.Println(strings.Join(cells, "|"))
		if r.Err != nil {
			fmt.Printf("  %s: %v\n", r.Date, r.Err)
		}
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := outFs.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
