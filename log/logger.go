/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package log provides structured logging on top of logf with JSON and text formats
// and optional file output with rotation.
package log

import (
	"fmt"
	"os"

	"github.com/ssgreg/logf"
)

// Field is a typed key/value attached to a log entry.
type Field = logf.Field

// CloseFunc flushes buffered entries and stops the background writer.
type CloseFunc logf.ChannelWriterCloseFunc

// LogFunc writes a message at a level bound in advance.
// nolint: revive
type LogFunc = logf.LogFunc

var (
	Error    = logf.Error
	String   = logf.String
	Strings  = logf.Strings
	Bytes    = logf.Bytes
	Int      = logf.Int
	Int64    = logf.Int64
	Bool     = logf.Bool
	Duration = logf.Duration
	Time     = logf.Time
	Any      = logf.Any
)

// FieldLogger is the logger used across the module.
// Loggers are cheap to derive: With and WithLevel return new loggers sharing the same output.
type FieldLogger interface {
	Debug(string, ...Field)
	Info(string, ...Field)
	Warn(string, ...Field)
	Error(string, ...Field)

	Debugf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Errorf(string, ...interface{})

	// AtLevel calls fn only if level is enabled, so expensive fields are not built for dropped entries.
	AtLevel(Level, func(LogFunc))

	With(...Field) FieldLogger
	// WithLevel can only raise the level of the parent logger.
	WithLevel(level Level) FieldLogger
}

// LogfAdapter implements FieldLogger with a *logf.Logger.
type LogfAdapter struct {
	Logger *logf.Logger
}

// NewDisabledLogger returns a logger that drops everything.
func NewDisabledLogger() FieldLogger {
	return &LogfAdapter{Logger: logf.NewDisabledLogger()}
}

// NewLogger builds a logger by cfg. Every entry carries the "pid" field.
// Entries are written asynchronously, so call CloseFunc before exit.
func NewLogger(cfg *Config) (FieldLogger, CloseFunc) {
	writer, closeWriter := logf.NewChannelWriter(logf.ChannelWriterConfig{
		Appender:          newAppender(cfg),
		EnableSyncOnError: true,
	})
	logger := logf.NewLogger(levelToLogf(cfg.Level), writer).With(logf.Int("pid", os.Getpid()))
	if cfg.AddCaller {
		logger = logger.WithCaller().WithCallerSkip(1) // skip the adapter frame
	}
	return &LogfAdapter{Logger: logger}, CloseFunc(closeWriter)
}

func (l *LogfAdapter) Debug(msg string, fields ...Field) { l.Logger.Debug(msg, fields...) }
func (l *LogfAdapter) Info(msg string, fields ...Field)  { l.Logger.Info(msg, fields...) }
func (l *LogfAdapter) Warn(msg string, fields ...Field)  { l.Logger.Warn(msg, fields...) }
func (l *LogfAdapter) Error(msg string, fields ...Field) { l.Logger.Error(msg, fields...) }

func (l *LogfAdapter) Debugf(format string, args ...interface{}) { l.printf(LevelDebug, format, args) }
func (l *LogfAdapter) Infof(format string, args ...interface{})  { l.printf(LevelInfo, format, args) }
func (l *LogfAdapter) Warnf(format string, args ...interface{})  { l.printf(LevelWarn, format, args) }
func (l *LogfAdapter) Errorf(format string, args ...interface{}) { l.printf(LevelError, format, args) }

// printf formats the message only when level is enabled.
func (l *LogfAdapter) printf(level Level, format string, args []interface{}) {
	l.Logger.AtLevel(levelToLogf(level), func(write LogFunc) {
		write(fmt.Sprintf(format, args...))
	})
}

func (l *LogfAdapter) AtLevel(level Level, fn func(logFunc LogFunc)) {
	l.Logger.AtLevel(levelToLogf(level), fn)
}

func (l *LogfAdapter) With(fs ...Field) FieldLogger {
	return &LogfAdapter{Logger: l.Logger.With(fs...)}
}

func (l *LogfAdapter) WithLevel(level Level) FieldLogger {
	return &LogfAdapter{Logger: l.Logger.WithLevel(levelToLogf(level))}
}

var logfLevels = map[Level]logf.Level{
	LevelError: logf.LevelError,
	LevelWarn:  logf.LevelWarn,
	LevelInfo:  logf.LevelInfo,
	LevelDebug: logf.LevelDebug,
}

// levelToLogf maps unknown levels to info.
func levelToLogf(level Level) logf.Level {
	if l, ok := logfLevels[level]; ok {
		return l
	}
	return logf.LevelInfo
}
