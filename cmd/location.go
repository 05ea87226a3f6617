package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli"

	"github.com/muezzin/muezzin/cmd/common"
	apicommon "github.com/muezzin/muezzin/common"
	"github.com/muezzin/muezzin/internal/settings"
)

var locationFlags = []cli.Flag{
	cli.Float64Flag{Name: "lat", Usage: "latitude in degrees, north positive"},
	cli.Float64Flag{Name: "lon", Usage: "longitude in degrees, east positive"},
	cli.StringFlag{Name: "tz", Usage: "IANA timezone, e.g. `Europe/London`"},
}

func locationSet(ctx *cli.Context) error {
	if !ctx.IsSet("lat") || !ctx.IsSet("lon") || ctx.String("tz") == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("--lat, --lon and --tz are required"))
	}
	p := apicommon.LocationParams{
		Latitude:  ctx.Float64("lat"),
		Longitude: ctx.Float64("lon"),
		Timezone:  ctx.String("tz"),
	}
	return withClient(ctx, "location", func(c context.Context, client *rpcClient) error {
		if err := client.Call(c, apicommon.MethodLocationUpdate, p, nil); err != nil {
			return err
		}
		fmt.Printf("Location set to %.4f, %.4f (%s)\n", p.Latitude, p.Longitude, p.Timezone)
		return nil
	})
}

func locationDetect(ctx *cli.Context) error {
	return withClient(ctx, "location", func(c context.Context, client *rpcClient) error {
		var loc settings.Location
		if err := client.Call(c, apicommon.MethodLocationDetect, nil, &loc); err != nil {
			return err
		}
		fmt.Printf("Detected %.4f, %.4f (%s)\n", loc.Latitude, loc.Longitude, loc.Timezone)
		return nil
	})
}

func initialize(ctx *cli.Context) error {
	return withClient(ctx, "init", func(c context.Context, client *rpcClient) error {
		var resp apicommon.InitializeResponse
		if err := client.Call(c, apicommon.MethodSystemInitialize, nil, &resp); err != nil {
			return err
		}
		if resp.FirstRun {
			fmt.Print("First run: ")
		}
		fmt.Printf("%.4f, %.4f (%s), method %s\n",
			resp.Location.Latitude, resp.Location.Longitude, resp.Location.Timezone,
			resp.Settings.Calculation.Method)
		return nil
	})
}

func checkUpdate(ctx *cli.Context) error {
	return withClient(ctx, "update", func(c context.Context, client *rpcClient) error {
		var resp apicommon.UpdateResponse
		if err := client.Call(c, apicommon.MethodSystemCheckUpdates, nil, &resp); err != nil {
			return err
		}
		if resp.Available {
			fmt.Printf("Version %s is available (running %s)\n", resp.Latest, resp.Current)
		} else {
			fmt.Printf("Up to date (%s)\n", resp.Current)
		}
		return nil
	})
}
