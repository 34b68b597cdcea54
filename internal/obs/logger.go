// Package obs holds the observability sinks shared by the dispatcher
// and the demo command: a small logging
// interface and a small metrics interface, each with a no-op and a
// real-library-backed implementation.
package obs

import (
	"github.com/sirupsen/logrus"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) logrusLevel() logrus.Level {
	switch l {
	case Debug:
		return logrus.DebugLevel
	case Info:
		return logrus.InfoLevel
	case Warn:
		return logrus.WarnLevel
	case Error:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger is a minimal logging interface for observability.
type Logger interface {
	Logf(level Level, format string, args ...interface{})
}

// NopLogger discards all logs.
type NopLogger struct{}

func (NopLogger) Logf(level Level, format string, args ...interface{}) {}

// LogrusLogger adapts a *logrus.Logger. Min sets the lowest level that
// is actually forwarded; everything below it is dropped before logrus
// ever sees it, so a hot per-request Debug call costs a level compare.
type LogrusLogger struct {
	L    *logrus.Logger
	Min  Level
	Pref string
}

// NewLogrusLogger returns a LogrusLogger writing to a fresh
// *logrus.Logger at the given minimum level.
func NewLogrusLogger(min Level) *LogrusLogger {
	l := logrus.New()
	l.SetLevel(min.logrusLevel())
	return &LogrusLogger{L: l, Min: min}
}

func (s *LogrusLogger) Logf(level Level, format string, args ...interface{}) {
	if s == nil || s.L == nil || level < s.Min {
		return
	}
	entry := s.L.WithField("component", "chunky")
	if s.Pref != "" {
		entry = entry.WithField("prefix", s.Pref)
	}
	entry.Logf(level.logrusLevel(), format, args...)
}
