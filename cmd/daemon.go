package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/muezzin/muezzin/cmd/common"
	"github.com/muezzin/muezzin/internal/daemon"
)

var daemonFlags = []cli.Flag{
	cli.BoolFlag{
		Name:  "once",
		Usage: "evaluate the schedule a single time and exit",
	},
}

// newRunner is a var so tests can inject daemon dependencies.
var newRunner = daemon.New

func daemonCmd(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "config", err)
		return nil
	}
	l := newLogger(cfg, os.Stderr)
	defer l.Close()

	r := newRunner(&daemon.Config{App: cfg, Version: versionInfo()}, &daemon.Dependencies{Logger: l})

	sctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if ctx.Bool("once") {
		err = r.RunOnce(sctx)
	} else {
		err = r.Start(sctx)
	}
	if err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "run", err)
	}
	return nil
}
