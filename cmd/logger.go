package cmd

import (
	"io"
	"log"

	"github.com/muezzin/muezzin/internal/config"
	"github.com/muezzin/muezzin/pkg/logger"
)

// newLogger builds the daemon logger for the configured format.
func newLogger(cfg *config.Config, w io.Writer) logger.Logger {
	switch cfg.LogFormat {
	case "json":
		return logger.NewZerologLogger(w, false)
	case "plain":
		return logger.NewStandardLogger(log.New(w, "muezzin: ", log.LstdFlags))
	}
	return logger.NewZerologLogger(w, true)
}
