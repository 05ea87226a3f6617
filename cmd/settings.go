package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli"

	"github.com/muezzin/muezzin/cmd/common"
	apicommon "github.com/muezzin/muezzin/common"
	"github.com/muezzin/muezzin/internal/schedule"
	"github.com/muezzin/muezzin/internal/settings"
)

var settingsFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "method",
		Usage: "calculation `METHOD` (MWL, ISNA, Egyptian, UAQ, Karachi, ...)",
	},
	cli.StringFlag{
		Name:  "madhab",
		Usage: "Asr rule, Shafi or Hanafi",
	},
	cli.StringFlag{
		Name:  "hlr",
		Usage: "high latitude rule, TA, MN, SN or NONE",
	},
}

var customTimesFlags = []cli.Flag{
	cli.StringFlag{Name: "fajr", Usage: "fixed Fajr time, `HH:MM`"},
	cli.StringFlag{Name: "dhuhr", Usage: "fixed Dhuhr time, `HH:MM`"},
	cli.StringFlag{Name: "asr", Usage: "fixed Asr time, `HH:MM`"},
	cli.StringFlag{Name: "maghrib", Usage: "fixed Maghrib time, `HH:MM`"},
	cli.StringFlag{Name: "isha", Usage: "fixed Isha time, `HH:MM`"},
	cli.BoolFlag{Name: "disable", Usage: "clear every override"},
}

var jumuahFlags = []cli.Flag{
	cli.BoolFlag{Name: "disable", Usage: "use the computed Dhuhr on Fridays"},
}

func settingsCmd(ctx *cli.Context) error {
	return withClient(ctx, "settings", func(c context.Context, client *rpcClient) error {
		var st settings.AppSettings
		if err := client.Call(c, apicommon.MethodSettingsGet, nil, &st); err != nil {
			return err
		}
		changed, err := applyCalculationFlags(ctx, &st.Calculation)
		if err != nil {
			return err
		}
		if changed {
			if err := client.Call(c, apicommon.MethodSettingsUpdate, st, nil); err != nil {
				return err
			}
		}
		b, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	})
}

// applyCalculationFlags copies the set flags into cs and reports whether
// anything changed.
func applyCalculationFlags(ctx *cli.Context, cs *schedule.CalculationSettings) (bool, error) {
	changed := false
	if v := ctx.String("method"); v != "" {
		m := schedule.Method(v)
		for _, k := range schedule.Methods {
			if strings.EqualFold(string(k), v) {
				m = k
			}
		}
		if !m.Valid() {
			return false, fmt.Errorf("unknown calculation method %q", v)
		}
		cs.Method, changed = m, true
	}
	if v := ctx.String("madhab"); v != "" {
		switch {
		case strings.EqualFold(v, string(schedule.Shafi)):
			cs.Madhab = schedule.Shafi
		case strings.EqualFold(v, string(schedule.Hanafi)):
			cs.Madhab = schedule.Hanafi
		default:
			return false, fmt.Errorf("unknown madhab %q", v)
		}
		changed = true
	}
	if v := ctx.String("hlr"); v != "" {
		rule := schedule.HighLatitudeRule(strings.ToUpper(v))
		switch rule {
		case schedule.TwilightAngle, schedule.MiddleOfTheNight, schedule.SeventhOfTheNight, schedule.NoRule:
		default:
			return false, fmt.Errorf("unknown high latitude rule %q", v)
		}
		cs.HighLatitudeRule, changed = rule, true
	}
	return changed, nil
}

func customTimes(ctx *cli.Context) error {
	ct := schedule.CustomTimes{}
	if !ctx.Bool("disable") {
		for _, f := range []struct {
			name string
			dst  **string
		}{
			{"fajr", &ct.Fajr},
			{"dhuhr", &ct.Dhuhr},
			{"asr", &ct.Asr},
			{"maghrib", &ct.Maghrib},
			{"isha", &ct.Isha},
		} {
			if ctx.IsSet(f.name) {
				v := ctx.String(f.name)
				*f.dst = &v
				ct.Enabled = true
			}
		}
		if !ct.Enabled {
			return common.PrintErrWithCmdHelp(ctx, errors.New("set at least one prayer time or --disable"))
		}
	}
	return withClient(ctx, "custom-times", func(c context.Context, client *rpcClient) error {
		if err := client.Call(c, apicommon.MethodCustomTimesUpdate, ct, nil); err != nil {
			return err
		}
		if ct.Enabled {
			fmt.Println("Custom times saved")
		} else {
			fmt.Println("Custom times disabled")
		}
		return nil
	})
}

func jumuah(ctx *cli.Context) error {
	jt := schedule.JumuahTime{}
	if !ctx.Bool("disable") {
		jt.Time = ctx.Args().First()
		if jt.Time == "" {
			return common.PrintErrWithCmdHelp(ctx, errors.New("missing HH:MM or --disable"))
		}
		jt.Enabled = true
	}
	return withClient(ctx, "jumuah", func(c context.Context, client *rpcClient) error {
		if err := client.Call(c, apicommon.MethodJumuahUpdate, jt, nil); err != nil {
			return err
		}
		if jt.Enabled {
			fmt.Printf("Friday prayer set to %s\n", jt.Time)
		} else {
			fmt.Println("Friday prayer follows the computed Dhuhr")
		}
		return nil
	})
}
