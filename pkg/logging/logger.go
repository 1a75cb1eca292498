// Package logging provides the structured JSON logger shared by every
// binary. It is a thin facade over zap so call sites carry a service
// name, a version and free-form fields without touching zap directly.
package logging

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// String returns string representation of log level
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a configuration string to a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch s {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Fields represents structured log fields
type Fields map[string]interface{}

type contextKey string

// requestIDKey carries the per-request (or per-run) identifier through the
// context so every log line of one invocation can be correlated.
const requestIDKey contextKey = "request_id"

// WithRequestID returns a context carrying the given request identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the request identifier, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// StructuredLogger provides structured JSON logging with context
type StructuredLogger struct {
	zl *zap.Logger
}

// NewStructuredLogger creates a logger writing JSON lines to stdout.
func NewStructuredLogger(service, version string, level LogLevel) *StructuredLogger {
	core := zapcore.NewCore(newEncoder(), zapcore.AddSync(os.Stdout), zapLevel(level))
	return newFromCore(core, service, version)
}

// NewRotatingLogger creates a logger writing to stdout and to a
// size-rotated log file.
func NewRotatingLogger(service, version string, level LogLevel, path string) *StructuredLogger {
	rotated := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 10,
		MaxAge:     30, // days
		Compress:   true,
	}

	sink := zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout), zapcore.AddSync(rotated))
	core := zapcore.NewCore(newEncoder(), sink, zapLevel(level))
	return newFromCore(core, service, version)
}

// NewNopLogger returns a logger that discards everything. Intended for tests.
func NewNopLogger() *StructuredLogger {
	return &StructuredLogger{zl: zap.NewNop()}
}

func newFromCore(core zapcore.Core, service, version string) *StructuredLogger {
	hostname, _ := os.Hostname()

	zl := zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.FatalLevel),
	).With(
		zap.String("service", service),
		zap.String("version", version),
		zap.String("hostname", hostname),
	)

	return &StructuredLogger{zl: zl}
}

func newEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		CallerKey:      "caller",
		StacktraceKey:  "stack_trace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	})
}

func zapLevel(level LogLevel) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Debug logs a debug message with structured fields
func (l *StructuredLogger) Debug(ctx context.Context, message string, fields Fields) {
	l.zl.Debug(message, l.zapFields(ctx, fields, nil)...)
}

// Info logs an info message with structured fields
func (l *StructuredLogger) Info(ctx context.Context, message string, fields Fields) {
	l.zl.Info(message, l.zapFields(ctx, fields, nil)...)
}

// Warn logs a warning message with structured fields
func (l *StructuredLogger) Warn(ctx context.Context, message string, fields Fields) {
	l.zl.Warn(message, l.zapFields(ctx, fields, nil)...)
}

// Error logs an error message with structured fields and error details
func (l *StructuredLogger) Error(ctx context.Context, message string, fields Fields, err error) {
	l.zl.Error(message, l.zapFields(ctx, fields, err)...)
}

// Fatal logs a fatal message and exits the program
func (l *StructuredLogger) Fatal(ctx context.Context, message string, fields Fields, err error) {
	l.zl.Fatal(message, l.zapFields(ctx, fields, err)...)
}

// WithFields returns a child logger that includes the given fields on
// every entry.
func (l *StructuredLogger) WithFields(fields Fields) *StructuredLogger {
	zfs := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zfs = append(zfs, zap.Any(k, v))
	}
	return &StructuredLogger{zl: l.zl.With(zfs...)}
}

// Sync flushes any buffered log entries.
func (l *StructuredLogger) Sync() error {
	return l.zl.Sync()
}

func (l *StructuredLogger) zapFields(ctx context.Context, fields Fields, err error) []zap.Field {
	zfs := make([]zap.Field, 0, len(fields)+2)

	for k, v := range fields {
		zfs = append(zfs, zap.Any(k, v))
	}

	if id, ok := RequestIDFromContext(ctx); ok {
		zfs = append(zfs, zap.String("request_id", id))
	}

	if err != nil {
		zfs = append(zfs, zap.Error(err))
	}

	return zfs
}
