package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel maps a config string to a Level, defaulting to InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Fields represents structured logging fields
type Fields map[string]any

type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(err error, msg string, fields ...Fields)

	// WithFields returns a logger with preset fields
	WithFields(fields Fields) Logger
}

type slogLogger struct {
	l *slog.Logger
}

// New returns a text logger writing to w at the given minimum level.
func New(w io.Writer, level Level) Logger {
	var lv slog.LevelVar
	lv.Set(level.slogLevel())
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: &lv})
	return &slogLogger{l: slog.New(h)}
}

func attrs(fields []Fields) []any {
	var res []any
	for _, f := range fields {
		for k, v := range f {
			res = append(res, slog.Any(k, v))
		}
	}
	return res
}

func (s *slogLogger) Debug(msg string, fields ...Fields) {
	s.l.Debug(msg, attrs(fields)...)
}

func (s *slogLogger) Info(msg string, fields ...Fields) {
	s.l.Info(msg, attrs(fields)...)
}

func (s *slogLogger) Warn(msg string, fields ...Fields) {
	s.l.Warn(msg, attrs(fields)...)
}

func (s *slogLogger) Error(err error, msg string, fields ...Fields) {
	args := attrs(fields)
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	s.l.Error(msg, args...)
}

func (s *slogLogger) WithFields(fields Fields) Logger {
	return &slogLogger{l: s.l.With(attrs([]Fields{fields})...)}
}

// NoOpLogger discards everything. Handy in tests.
type NoOpLogger struct{}

func (n NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n NoOpLogger) WithFields(fields Fields) Logger               { return n }

var globalLogger Logger = New(os.Stderr, InfoLevel)

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger Logger) {
	if logger == nil {
		globalLogger = NoOpLogger{}
	} else {
		globalLogger = logger
	}
}

func GetGlobalLogger() Logger {
	return globalLogger
}

// Configure replaces the global logger with a stderr logger at level.
func Configure(level string) {
	SetGlobalLogger(New(os.Stderr, ParseLevel(level)))
}

func Debug(msg string, fields ...Fields) {
	globalLogger.Debug(msg, fields...)
}

func Info(msg string, fields ...Fields) {
	globalLogger.Info(msg, fields...)
}

func Warn(msg string, fields ...Fields) {
	globalLogger.Warn(msg, fields...)
}

func Error(err error, msg string, fields ...Fields) {
	globalLogger.Error(err, msg, fields...)
}

func WithFields(fields Fields) Logger {
	return globalLogger.WithFields(fields)
}
