package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"

	"github.com/muezzin/muezzin/cmd/common"
	apicommon "github.com/muezzin/muezzin/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var currentBuildArgs BuildArgs

var envFlag = cli.StringFlag{
	Name:  "env",
	Usage: "load environment variables from `FILE` (default .env)",
}

func versionInfo() apicommon.VersionResponse {
	return apicommon.VersionResponse{
		Version:   currentBuildArgs.Version,
		Commit:    currentBuildArgs.Commit,
		BuildType: currentBuildArgs.BuildType,
	}
}

func Execute(args []string, bArgs BuildArgs) error {
	currentBuildArgs = bArgs
	app := cli.App{
		Name:                  "muezzin",
		HelpName:              "muezzin",
		Usage:                 "Prayer times, adhan and reminders.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "muezzin <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Flags:                 append([]cli.Flag{envFlag}, timesFlags...),
		Commands: []cli.Command{
			{
				Name:               "daemon",
				Usage:              "run the prayer time daemon",
				Action:             daemonCmd,
				Flags:              daemonFlags,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        DaemonDescription,
			},
			{
				Name:               "times",
				Aliases:            []string{"t"},
				Usage:              "show the prayer times of a day",
				Action:             times,
				Flags:              timesFlags,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        TimesDescription,
			},
			{
				Name:    "next",
				Aliases: []string{"n"},
				Usage:   "show the next prayer",
				Action:  next,
			},
			{
				Name:               "countdown",
				Usage:              "count down to the next prayer",
				Action:             countdown,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        CountdownDescription,
			},
			{
				Name:   "qibla",
				Usage:  "show the qibla bearing",
				Action: qibla,
			},
			{
				Name:               "timetable",
				Usage:              "print or export a monthly timetable",
				Action:             timetableCmd,
				Flags:              timetableFlags,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        TimetableDescription,
			},
			{
				Name:               "location",
				Usage:              "set or detect the location",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        LocationDescription,
				Subcommands: []cli.Command{
					{
						Name:         "set",
						Usage:        "set coordinates and timezone",
						Action:       locationSet,
						Flags:        locationFlags,
						OnUsageError: common.UsageErrorCallback,
					},
					{
						Name:   "detect",
						Usage:  "detect the location from the IP address",
						Action: locationDetect,
					},
				},
			},
			{
				Name:         "settings",
				Usage:        "show or change calculation settings",
				Action:       settingsCmd,
				Flags:        settingsFlags,
				OnUsageError: common.UsageErrorCallback,
			},
			{
				Name:               "custom-times",
				Usage:              "override prayer times",
				Action:             customTimes,
				Flags:              customTimesFlags,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        CustomTimesDescription,
			},
			{
				Name:               "jumuah",
				Usage:              "set the Friday prayer time",
				ArgsUsage:          "[HH:MM]",
				Action:             jumuah,
				Flags:              jumuahFlags,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        JumuahDescription,
			},
			{
				Name:      "play",
				Usage:     "play the adhan",
				ArgsUsage: "[file]",
				Action:    play,
			},
			{
				Name:   "stop",
				Usage:  "stop the adhan",
				Action: stop,
			},
			{
				Name:   "pause",
				Usage:  "pause the adhan",
				Action: pause,
			},
			{
				Name:   "resume",
				Usage:  "resume the adhan",
				Action: resume,
			},
			{
				Name:      "volume",
				Usage:     "set the adhan volume (0 to 1)",
				ArgsUsage: "<level>",
				Action:    volume,
			},
			{
				Name:   "status",
				Usage:  "show the audio status",
				Action: audioStatus,
			},
			{
				Name:   "init",
				Usage:  "run the first-run location detection",
				Action: initialize,
			},
			{
				Name:   "update",
				Usage:  "check for a newer release",
				Action: checkUpdate,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of muezzin",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		Action:      times,
		HideHelp:    true,
		HideVersion: true,
	}
	app.Commands = append(app.Commands, platformCommands()...)
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
