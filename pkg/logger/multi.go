package logger

import "errors"

// MultiLogger fans every message out to several sinks. The Windows service
// uses it to write to the event log and a log file at once.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger returns a logger writing to each non-nil sink in order.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *MultiLogger) Info(format string, args ...interface{}) {
	for _, s := range m.sinks {
		s.Info(format, args...)
	}
}

func (m *MultiLogger) Warning(format string, args ...interface{}) {
	for _, s := range m.sinks {
		s.Warning(format, args...)
	}
}

func (m *MultiLogger) Error(format string, args ...interface{}) {
	for _, s := range m.sinks {
		s.Error(format, args...)
	}
}

// Close closes every sink and joins their errors.
func (m *MultiLogger) Close() error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

var _ Logger = (*MultiLogger)(nil)
