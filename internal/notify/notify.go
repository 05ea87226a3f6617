// Package notify delivers user-facing notifications for prayer arrivals and
// reminders. A Notifier is one sink; Multi fans a message out to several.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/muezzin/muezzin/pkg/logger"
)

// Notifier shows a single notification.
type Notifier interface {
	Show(ctx context.Context, title, body string) error
}

// Error reports a notification that could not be delivered by a sink.
type Error struct {
	Sink string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Sink, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Multi delivers to every sink and joins their errors.
type Multi []Notifier

func (m Multi) Show(ctx context.Context, title, body string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Show(ctx, title, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes notifications to a logger. It is the sink used when
// nothing else is configured.
type LogNotifier struct {
	log logger.Logger
}

func NewLogNotifier(l logger.Logger) *LogNotifier {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &LogNotifier{log: l}
}

func (n *LogNotifier) Show(_ context.Context, title, body string) error {
	n.log.Info("Notification: %s: %s", title, body)
	return nil
}
