package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"

	"github.com/muezzin/muezzin/cmd/common"
	apicommon "github.com/muezzin/muezzin/common"
	"github.com/muezzin/muezzin/internal/schedule"
)

const clockLayout = "15:04"

var timesFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "date, d",
		Usage: "day to show, as `YYYY-MM-DD` (default today)",
	},
}

// barOutput is where countdown draws; tests send it to io.Discard.
var barOutput io.Writer = os.Stdout

func times(ctx *cli.Context) error {
	return withClient(ctx, "times", func(c context.Context, client *rpcClient) error {
		var resp apicommon.ScheduleResponse
		err := client.Call(c, apicommon.MethodScheduleGet, apicommon.ScheduleParams{Date: ctx.String("date")}, &resp)
		if err != nil {
			return err
		}
		printSchedule(&resp)
		return nil
	})
}

func printSchedule(resp *apicommon.ScheduleResponse) {
	loc := zoneOrUTC(resp.Timezone)
	fmt.Printf("Prayer times for %s (%s)\n\n", resp.Date, resp.Timezone)
	for _, p := range []schedule.Prayer{schedule.Fajr, schedule.Sunrise, schedule.Dhuhr, schedule.Asr, schedule.Maghrib, schedule.Isha} {
		fmt.Printf("%s|%s\n", common.Beaut(p.String(), 10), common.Beaut(resp.Times.Time(p).In(loc).Format(clockLayout), 9))
	}
}

func next(ctx *cli.Context) error {
	return withClient(ctx, "next", func(c context.Context, client *rpcClient) error {
		var resp apicommon.NextPrayerResponse
		if err := client.Call(c, apicommon.MethodPrayerNext, nil, &resp); err != nil {
			return err
		}
		fmt.Printf("Next prayer: %s at %s (in %s)\n",
			resp.Prayer,
			resp.Time.Format(clockLayout),
			common.FormatDuration(time.Duration(resp.SecondsUntil)*time.Second),
		)
		return nil
	})
}

// countdown draws a bar from the previous prayer to the next one and
// returns once the next prayer is reached.
func countdown(ctx *cli.Context) error {
	return withClient(ctx, "countdown", func(c context.Context, client *rpcClient) error {
		var resp apicommon.NextPrayerResponse
		if err := client.Call(c, apicommon.MethodPrayerNext, nil, &resp); err != nil {
			return err
		}
		total := int64(resp.Time.Sub(resp.PreviousTime) / time.Second)
		if total <= 0 {
			total = resp.SecondsUntil
		}
		if total <= 0 {
			fmt.Printf("It is time for %s.\n", resp.Prayer)
			return nil
		}
		elapsed := total - resp.SecondsUntil
		if elapsed < 0 {
			elapsed = 0
		}

		p := mpb.NewWithContext(c, mpb.WithWidth(48), mpb.WithOutput(barOutput))
		name := fmt.Sprintf("%s %s", resp.Prayer, resp.Time.Format(clockLayout))
		bar := common.InitCountdownBar(p, name, total, elapsed)

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for !bar.Completed() {
			select {
			case <-c.Done():
				bar.Abort(false)
				p.Wait()
				return nil
			case <-ticker.C:
				left := int64(time.Until(resp.Time).Round(time.Second) / time.Second)
				bar.SetCurrent(total - max(left, 0))
			}
		}
		p.Wait()
		fmt.Printf("It is time for %s.\n", resp.Prayer)
		return nil
	})
}

func qibla(ctx *cli.Context) error {
	return withClient(ctx, "qibla", func(c context.Context, client *rpcClient) error {
		var resp apicommon.QiblaResponse
		if err := client.Call(c, apicommon.MethodQiblaGet, nil, &resp); err != nil {
			return err
		}
		fmt.Printf("Qibla: %.2f° from true north\n", resp.Direction)
		return nil
	})
}

func zoneOrUTC(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
