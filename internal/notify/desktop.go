package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrNoDesktop is returned when the host has no known notification command.
var ErrNoDesktop = errors.New("no desktop notification command")

// CommandRunner runs an external command to completion.
type CommandRunner func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// DesktopNotifier shows notifications through the host's notification
// command: notify-send on Linux and the BSDs, osascript on macOS.
type DesktopNotifier struct {
	goos    string
	appName string
	run     CommandRunner
}

// DesktopOption configures a DesktopNotifier.
type DesktopOption func(*DesktopNotifier)

// WithRunner replaces the command runner.
func WithRunner(r CommandRunner) DesktopOption {
	return func(d *DesktopNotifier) { d.run = r }
}

// WithGOOS overrides the detected operating system.
func WithGOOS(goos string) DesktopOption {
	return func(d *DesktopNotifier) { d.goos = goos }
}

func NewDesktopNotifier(appName string, opts ...DesktopOption) *DesktopNotifier {
	d := &DesktopNotifier{goos: runtime.GOOS, appName: appName, run: runCommand}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *DesktopNotifier) Show(ctx context.Context, title, body string) error {
	name, args, err := d.command(title, body)
	if err == nil {
		err = d.run(ctx, name, args...)
	}
	if err != nil {
		return &Error{Sink: "desktop", Err: err}
	}
	return nil
}

func (d *DesktopNotifier) command(title, body string) (string, []string, error) {
	switch d.goos {
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", appleQuote(body), appleQuote(title))
		return "osascript", []string{"-e", script}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		args := []string{}
		if d.appName != "" {
			args = append(args, "--app-name="+d.appName)
		}
		return "notify-send", append(args, title, body), nil
	default:
		return "", nil, ErrNoDesktop
	}
}

// appleQuote renders s as an AppleScript string literal.
func appleQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
