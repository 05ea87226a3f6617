//go:build windows

package service

import (
	"fmt"

	"golang.org/x/sys/windows/svc/eventlog"
)

// Event IDs written to the Application log.
const (
	eventInfo    = 1
	eventWarning = 2
	eventError   = 3
)

// EventLog is a logger.Logger writing to the Windows Application event log.
type EventLog struct {
	log *eventlog.Log
}

// OpenEventLog registers the event source when missing and opens it.
func OpenEventLog(source string) (*EventLog, error) {
	// Fails harmlessly when the source already exists.
	_ = eventlog.InstallAsEventCreate(source, eventlog.Error|eventlog.Warning|eventlog.Info)
	l, err := eventlog.Open(source)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &EventLog{log: l}, nil
}

func (e *EventLog) Info(format string, args ...interface{}) {
	_ = e.log.Info(eventInfo, fmt.Sprintf(format, args...))
}

func (e *EventLog) Warning(format string, args ...interface{}) {
	_ = e.log.Warning(eventWarning, fmt.Sprintf(format, args...))
}

func (e *EventLog) Error(format string, args ...interface{}) {
	_ = e.log.Error(eventError, fmt.Sprintf(format, args...))
}

func (e *EventLog) Close() error {
	return e.log.Close()
}

// RemoveEventSource unregisters source; used on uninstall.
func RemoveEventSource(source string) error {
	return eventlog.Remove(source)
}
