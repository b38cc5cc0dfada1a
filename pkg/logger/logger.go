// Package logger provides the structured logging interface used across the
// service, backed by logrus.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger defines the logging interface.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)

	Named(name string) Logger
}

// Field is a key-value pair attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, val string) Field          { return Field{Key: key, Value: val} }
func Int(key string, val int) Field         { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field       { return Field{Key: key, Value: val} }
func Any(key string, val interface{}) Field { return Field{Key: key, Value: val} }
func Error(err error) Field                 { return Field{Key: logrus.ErrorKey, Value: err} }

type logrusLogger struct {
	entry *logrus.Entry
}

func (l *logrusLogger) with(ctx context.Context, fields []Field) *logrus.Entry {
	e := l.entry
	if ctx != nil {
		e = e.WithContext(ctx)
	}
	if len(fields) == 0 {
		return e
	}
	lf := make(logrus.Fields, len(fields))
	for _, f := range fields {
		lf[f.Key] = f.Value
	}
	return e.WithFields(lf)
}

func (l *logrusLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.with(ctx, fields).Info(msg)
}

func (l *logrusLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.with(ctx, fields).Error(msg)
}

func (l *logrusLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.with(ctx, fields).Debug(msg)
}

func (l *logrusLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.with(ctx, fields).Warn(msg)
}

// Named returns a child logger tagged with the component name.
func (l *logrusLogger) Named(name string) Logger {
	if prev, ok := l.entry.Data["component"].(string); ok && prev != "" {
		name = prev + "." + name
	}
	return &logrusLogger{entry: l.entry.WithField("component", name)}
}

type options struct {
	out    io.Writer
	level  string
	format string
}

// Option configures Init.
type Option func(*options)

func WithOutput(w io.Writer) Option { return func(o *options) { o.out = w } }

// WithLevel sets the initial level; see SetLevelString for accepted values.
func WithLevel(level string) Option { return func(o *options) { o.level = level } }

// WithFormat selects "text" (default) or "json" output.
func WithFormat(format string) Option { return func(o *options) { o.format = format } }

var (
	mu     sync.RWMutex
	base   *logrus.Logger
	global Logger
)

// Init initializes the global logger.
func Init(opts ...Option) error {
	o := options{out: os.Stdout, level: "info", format: "text"}
	for _, opt := range opts {
		opt(&o)
	}

	l := logrus.New()
	l.SetOutput(o.out)
	switch strings.ToLower(o.format) {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format: %s", o.format)
	}
	lvl, err := parseLevel(o.level)
	if err != nil {
		return err
	}
	l.SetLevel(lvl)

	mu.Lock()
	base = l
	global = &logrusLogger{entry: logrus.NewEntry(l)}
	mu.Unlock()
	return nil
}

// Get returns the global logger.
func Get() Logger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		panic("logger not initialized. Call logger.Init() first")
	}
	return global
}

// Named creates a named logger from the global one.
func Named(name string) Logger {
	return Get().Named(name)
}

// SetLevelString parses and sets the logging level.
// Accepts: debug, info, warn/warning, error (case-insensitive).
func SetLevelString(level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	mu.RLock()
	defer mu.RUnlock()
	if base == nil {
		return fmt.Errorf("logger not initialized")
	}
	base.SetLevel(lvl)
	return nil
}

func parseLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel, nil
	case "", "info":
		return logrus.InfoLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}
