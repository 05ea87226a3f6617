//go:build windows

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli"
	"golang.org/x/sys/windows/svc"

	"github.com/muezzin/muezzin/cmd/common"
	"github.com/muezzin/muezzin/internal/config"
	"github.com/muezzin/muezzin/internal/daemon"
	"github.com/muezzin/muezzin/internal/service"
	"github.com/muezzin/muezzin/pkg/logger"
)

func platformCommands() []cli.Command {
	return []cli.Command{
		{
			Name:  "service",
			Usage: "manage the muezzin Windows service",
			Subcommands: []cli.Command{
				{Name: "install", Usage: "register the daemon as a service", Action: serviceInstall},
				{Name: "uninstall", Usage: "remove the service", Action: serviceUninstall},
				{Name: "start", Usage: "start the service", Action: serviceControl("start", (*service.Manager).Start)},
				{Name: "stop", Usage: "stop the service", Action: serviceControl("stop", (*service.Manager).Stop)},
				{Name: "status", Usage: "show the service state", Action: serviceStatus},
				{Name: "run", Usage: "entry point used by the service control manager", Action: serviceRun, Hidden: true},
			},
		},
	}
}

func withManager(ctx *cli.Context, action string, fn func(*service.Manager) error) {
	scm, err := service.OpenSCM()
	if err != nil {
		common.PrintRuntimeErr(ctx, "service", action, err)
		return
	}
	defer scm.Close()
	if err := fn(service.NewManager(scm)); err != nil {
		common.PrintRuntimeErr(ctx, "service", action, err)
	}
}

func serviceInstall(ctx *cli.Context) error {
	exe, err := os.Executable()
	if err != nil {
		common.PrintRuntimeErr(ctx, "service", "install", err)
		return nil
	}
	withManager(ctx, "install", func(m *service.Manager) error {
		if err := m.Install(exe); err != nil {
			return err
		}
		fmt.Printf("Installed service %s\n", service.Name)
		return nil
	})
	return nil
}

func serviceUninstall(ctx *cli.Context) error {
	withManager(ctx, "uninstall", func(m *service.Manager) error {
		if err := m.Uninstall(); err != nil {
			return err
		}
		_ = service.RemoveEventSource(service.Name)
		fmt.Printf("Removed service %s\n", service.Name)
		return nil
	})
	return nil
}

func serviceControl(action string, op func(*service.Manager) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		withManager(ctx, action, op)
		return nil
	}
}

func serviceStatus(ctx *cli.Context) error {
	withManager(ctx, "status", func(m *service.Manager) error {
		st, err := m.Status()
		if err != nil {
			return err
		}
		fmt.Printf("Service %s is %s\n", service.Name, st)
		return nil
	})
	return nil
}

// serviceLogger writes to the event log and to muezzin.log in the data
// directory; a service has no console.
func serviceLogger(cfg *config.Config) logger.Logger {
	var sinks []logger.Logger
	if el, err := service.OpenEventLog(service.Name); err == nil {
		sinks = append(sinks, el)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err == nil {
		f, err := os.OpenFile(filepath.Join(cfg.DataDir, "muezzin.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			sinks = append(sinks, &fileLogger{Logger: newLogger(cfg, f), f: f})
		}
	}
	return logger.NewMultiLogger(sinks...)
}

type fileLogger struct {
	logger.Logger
	f *os.File
}

func (l *fileLogger) Close() error {
	l.Logger.Close()
	return l.f.Close()
}

// serviceRun is invoked by the SCM, never interactively.
func serviceRun(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "service", "config", err)
		return nil
	}
	l := serviceLogger(cfg)
	defer l.Close()

	r := newRunner(&daemon.Config{App: cfg, Version: versionInfo()}, &daemon.Dependencies{Logger: l})
	if err := svc.Run(service.Name, service.NewHandler(r, l)); err != nil {
		common.PrintRuntimeErr(ctx, "service", "run", err)
	}
	return nil
}
