//go:build !windows

package cmd

import "github.com/urfave/cli"

// platformCommands returns commands that exist only on some platforms.
func platformCommands() []cli.Command { return nil }
