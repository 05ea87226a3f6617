package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger emits structured log lines through zerolog.
// Console mode renders human readable output, otherwise one JSON object per line.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger creates a zerolog-backed Logger writing to w.
// When console is true the output goes through zerolog.ConsoleWriter.
func NewZerologLogger(w io.Writer, console bool) *ZerologLogger {
	if w == nil {
		w = os.Stderr
	}
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return &ZerologLogger{
		log: zerolog.New(w).With().Timestamp().Str("component", "muezzin").Logger(),
	}
}

// With returns a child logger that tags every line with key=value.
func (z *ZerologLogger) With(key, value string) *ZerologLogger {
	return &ZerologLogger{log: z.log.With().Str(key, value).Logger()}
}

func (z *ZerologLogger) Info(format string, args ...interface{}) {
	z.log.Info().Msg(fmt.Sprintf(format, args...))
}

func (z *ZerologLogger) Warning(format string, args ...interface{}) {
	z.log.Warn().Msg(fmt.Sprintf(format, args...))
}

func (z *ZerologLogger) Error(format string, args ...interface{}) {
	z.log.Error().Msg(fmt.Sprintf(format, args...))
}

// Close is a no-op; zerolog holds no resources of its own.
func (z *ZerologLogger) Close() error {
	return nil
}

var _ Logger = (*ZerologLogger)(nil)
