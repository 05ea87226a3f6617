package cmd

const HELP_TEMPL = `Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}
{{.Description}}{{if .VisibleCommands}}
Commands:{{range .VisibleCategories}}{{if .Name}}

{{.Name}}:{{range .VisibleCommands}}
  {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{range .VisibleCommands}}
{{"\t"}}{{index .Names 0}}{{"\t:\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}

Global Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

Use "{{.HelpName}} help <command>" for more information about any command.

`

const CMD_HELP_TEMPL = `{{if .Description}}{{.Description}}{{else}}{{.HelpName}} - {{.Usage}}

{{end}}Usage:
        {{.HelpName}} {{if .UsageText}}{{.UsageText}}{{else}}[arguments...]{{end}}{{if .VisibleFlags}}

Supported Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

`

const DESCRIPTION = `
Muezzin computes the daily prayer times for your location, plays the
adhan when a prayer time arrives and reminds you ahead of each prayer.
The daemon keeps the schedule; every other command talks to it.
`

const (
	DaemonDescription = `The daemon command runs the scheduler in the foreground. It
serves the JSON-RPC and REST API, watches the clock and
dispatches the adhan, reminders and notifications.

Example:
        muezzin daemon
        muezzin daemon --once

`
	TimesDescription = `The times command prints the prayer times of a day, today
by default, in the configured timezone.

Example:
        muezzin times
        muezzin times --date 2024-03-15

`
	CountdownDescription = `The countdown command shows a progress bar from the previous
prayer to the next one and exits when the next prayer arrives.

Example:
        muezzin countdown

`
	TimetableDescription = `The timetable command prints or exports the prayer times of
a whole month.

Example:
        muezzin timetable --month 2024-03
        muezzin timetable --month 2024-03 --xlsx ramadan.xlsx
        muezzin timetable --csv march.csv

`
	LocationDescription = `The location command sets the coordinates and timezone the
schedule is computed for, or detects them from your IP address.

Example:
        muezzin location set --lat 51.5072 --lon -0.1276 --tz Europe/London
        muezzin location detect

`
	CustomTimesDescription = `The custom-times command overrides individual prayer times
with fixed HH:MM values. Prayers without a flag keep their
computed time.

Example:
        muezzin custom-times --fajr 05:30 --isha 21:00
        muezzin custom-times --disable

`
	JumuahDescription = `The jumuah command fixes the Friday dhuhr time, or clears it.

Example:
        muezzin jumuah 13:15
        muezzin jumuah --disable

`
)
