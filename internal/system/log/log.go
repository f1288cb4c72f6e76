// Package log provides structured logging for all components, backed by logrus.
package log

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// LoggerKeyComponentName is the standard field key for the emitting component.
const LoggerKeyComponentName = "component"

// Field is a single structured logging field.
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Any creates a field holding an arbitrary value.
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Error creates a field for an error value.
func Error(err error) Field {
	return Field{Key: "error", Value: err}
}

// Logger wraps a logrus entry with the Field-based API used across the codebase.
type Logger struct {
	entry *logrus.Entry
}

var (
	rootLogger *Logger
	once       sync.Once
)

// GetLogger returns the process-wide logger, initializing it on first use.
func GetLogger() *Logger {
	once.Do(func() {
		l := logrus.New()
		l.SetFormatter(&logrus.JSONFormatter{})
		l.SetOutput(os.Stdout)
		l.SetLevel(logrus.InfoLevel)
		rootLogger = &Logger{entry: logrus.NewEntry(l)}
	})
	return rootLogger
}

// SetLevel adjusts the level of the process-wide logger.
// Unknown level strings leave the current level unchanged.
func SetLevel(level string) {
	if parsed, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		GetLogger().entry.Logger.SetLevel(parsed)
	}
}

// With returns a logger that includes the given fields in every entry.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{entry: l.entry.WithFields(toLogrusFields(fields))}
}

// Debug logs a message at debug level.
func (l *Logger) Debug(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Debug(msg)
}

// Info logs a message at info level.
func (l *Logger) Info(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Info(msg)
}

// Warn logs a message at warn level.
func (l *Logger) Warn(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Warn(msg)
}

// Error logs a message at error level.
func (l *Logger) Error(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Error(msg)
}

// Fatal logs a message at fatal level and exits the process.
func (l *Logger) Fatal(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Fatal(msg)
}

func toLogrusFields(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}
