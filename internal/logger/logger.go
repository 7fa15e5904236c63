// Package logger provides a simple logging interface for sysmon components.
// It allows packages to log debug, info, warn, and error messages without
// being coupled to a specific logging implementation.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level is the severity threshold for a logger.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelOff discards everything, matching LOGLVL = "off".
	LevelOff
)

// ParseLevel converts a LOGLVL setting into a Level. Unknown values
// default to info rather than failing, matching the tolerant behavior of
// the settings file.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info", "":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "off", "none":
		return LevelOff
	default:
		return LevelInfo
	}
}

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// fileLogger implements Logger, writing to a destination with a severity
// threshold. The destination is either the configured log file or stderr.
type fileLogger struct {
	out   *log.Logger
	level Level
	file  *os.File // nil when logging to an externally owned writer
}

// New creates a logger writing to w at the given threshold.
func New(w io.Writer, level Level) Logger {
	return &fileLogger{
		out:   log.New(w, "", log.LstdFlags),
		level: level,
	}
}

// NewFile creates a logger appending to the file at path. The file is
// created if missing. Callers should Close the returned logger on exit.
func NewFile(path string, level Level) (Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return &fileLogger{
		out:   log.New(f, "", log.LstdFlags),
		level: level,
		file:  f,
	}, nil
}

// NewStderr creates a logger writing to stderr, used when no LOGFILE is
// configured.
func NewStderr(level Level) Logger {
	return New(os.Stderr, level)
}

func (l *fileLogger) logf(lvl Level, tag, format string, args ...interface{}) {
	if lvl < l.level {
		return
	}
	l.out.Printf(tag+format, args...)
}

func (l *fileLogger) Debug(format string, args ...interface{}) {
	l.logf(LevelDebug, "DEBUG: ", format, args...)
}

func (l *fileLogger) Info(format string, args ...interface{}) {
	l.logf(LevelInfo, "", format, args...)
}

func (l *fileLogger) Warn(format string, args ...interface{}) {
	l.logf(LevelWarn, "WARN: ", format, args...)
}

func (l *fileLogger) Error(format string, args ...interface{}) {
	l.logf(LevelError, "ERROR: ", format, args...)
}

// Close releases the underlying log file, if this logger owns one.
func Close(l Logger) error {
	if fl, ok := l.(*fileLogger); ok && fl.file != nil {
		return fl.file.Close()
	}
	return nil
}

// noopLogger implements Logger but discards all messages.
// Useful for testing or when logging is not desired.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(format string, args ...interface{}) {}
func (l *noopLogger) Info(format string, args ...interface{})  {}
func (l *noopLogger) Warn(format string, args ...interface{})  {}
func (l *noopLogger) Error(format string, args ...interface{}) {}

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger captures log messages for testing.
// Exported for use in test assertions.
type BufferLogger struct {
	Messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
// Useful for testing that code logs expected messages.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{
		Messages: make([]LogMessage, 0),
	}
}

func (l *BufferLogger) Debug(format string, args ...interface{}) {
	l.Messages = append(l.Messages, LogMessage{Level: "debug", Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Info(format string, args ...interface{}) {
	l.Messages = append(l.Messages, LogMessage{Level: "info", Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Warn(format string, args ...interface{}) {
	l.Messages = append(l.Messages, LogMessage{Level: "warn", Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Error(format string, args ...interface{}) {
	l.Messages = append(l.Messages, LogMessage{Level: "error", Message: fmt.Sprintf(format, args...)})
}

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	for _, m := range l.Messages {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.Messages = l.Messages[:0]
}
