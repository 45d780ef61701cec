// Package logging provides the leveled, structured logger used across
// rosbags. It is a thin wrapper over go.uber.org/zap, mirroring the shape
// of go.viam.com/rdk/logging: a small Level enum that round-trips through
// text/JSON, and a Logger interface exposing *w (structured key-value)
// methods instead of printf-style formatting.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a log severity. The zero value is DEBUG.
type Level int8

// Supported levels, ordered least to most severe.
const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "Debug"
	case INFO:
		return "Info"
	case WARN:
		return "Warn"
	case ERROR:
		return "Error"
	default:
		return "Unknown"
	}
}

// LevelFromString parses a level name case-insensitively, accepting
// "warning" as an alias for WARN the way the teacher's logging package does.
func LevelFromString(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case INFO:
		return zapcore.InfoLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// MarshalText implements encoding.TextMarshaler so Level can appear in
// JSON-configured structures.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := LevelFromString(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Logger is the structured logging interface used by every reader,
// writer, and the converter. A nil Logger is never passed around; use
// NewNopLogger() for "don't log" call sites.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	// Named returns a child logger that prefixes its name to msg.
	Named(name string) Logger
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger builds a production JSON logger at INFO level named name.
func NewLogger(name string) Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(INFO.zapLevel())
	base, err := cfg.Build()
	if err != nil {
		// zap's production config is static and always builds; this would
		// only fail on a broken sink, which NewNopLogger sidesteps.
		return NewNopLogger()
	}
	return &zapLogger{sugar: base.Named(name).Sugar()}
}

// NewDevelopmentLogger builds a human-readable console logger at DEBUG
// level, grounded on the teacher's test-oriented logger construction.
func NewDevelopmentLogger(name string) Logger {
	base, err := zap.NewDevelopment()
	if err != nil {
		return NewNopLogger()
	}
	return &zapLogger{sugar: base.Named(name).Sugar()}
}

func (l *zapLogger) Debugw(msg string, kv ...interface{}) { l.sugar.Debugw(msg, kv...) }
func (l *zapLogger) Infow(msg string, kv ...interface{})  { l.sugar.Infow(msg, kv...) }
func (l *zapLogger) Warnw(msg string, kv ...interface{})  { l.sugar.Warnw(msg, kv...) }
func (l *zapLogger) Errorw(msg string, kv ...interface{}) { l.sugar.Errorw(msg, kv...) }
func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{sugar: l.sugar.Named(name)}
}

type nopLogger struct{}

func (nopLogger) Debugw(string, ...interface{}) {}
func (nopLogger) Infow(string, ...interface{})  {}
func (nopLogger) Warnw(string, ...interface{})  {}
func (nopLogger) Errorw(string, ...interface{}) {}
func (n nopLogger) Named(string) Logger         { return n }

// NewNopLogger returns a Logger that discards everything, used as the
// default when a caller does not supply one.
func NewNopLogger() Logger {
	return nopLogger{}
}
