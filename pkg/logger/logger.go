// Package logger provides structured logging for Sidechain.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel/trace"
)

// Level represents logging levels.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return "unknown"
	}
}

// slog maps the level onto its slog equivalent.
func (l Level) slog() slog.Level {
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

// ParseLevel parses a level string.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Config holds logger configuration.
type Config struct {
	Level  Level
	Format string // "json" or "text"
	Output string // "stdout", "stderr", or file path
}

// Logger is the interface for structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)

	With(args ...any) Logger
	SetLevel(level Level)

	// Close closes any resources held by the logger (e.g., file handles).
	Close() error
}

// SlogLogger is a Logger implementation using log/slog. Every log call runs
// through a single path that enriches context-aware calls with the active
// trace and span ids, keeping log/trace correlation uniform across packages.
type SlogLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar

	mu      sync.Mutex
	current Level
	closer  io.Closer // non-nil only when logging to a file this logger owns
}

var (
	// global is the global logger instance.
	global Logger
	// globalMu guards replacement of the global logger.
	globalMu sync.RWMutex
)

func init() {
	global = New(&Config{
		Level:  InfoLevel,
		Format: "text",
		Output: "stdout",
	})
}

// New creates a new Logger with the given configuration.
func New(cfg *Config) Logger {
	if cfg == nil {
		cfg = &Config{
			Level:  InfoLevel,
			Format: "json",
			Output: "stdout",
		}
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(cfg.Level.slog())

	writer, closer := openOutput(cfg.Output)

	opts := &slog.HandlerOptions{
		Level:     levelVar,
		AddSource: true,
	}
	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}

	return &SlogLogger{
		logger:  slog.New(handler),
		level:   levelVar,
		current: cfg.Level,
		closer:  closer,
	}
}

// openOutput resolves the output destination. File outputs return their
// closer; a file that cannot be opened degrades to stderr with a note there,
// rather than silently swallowing logs.
func openOutput(output string) (io.Writer, io.Closer) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}

	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: cannot open %s (%v), falling back to stderr\n", output, err)
		return os.Stderr, nil
	}
	return f, f
}

// log is the single emit path. A nil ctx means a context-free call; a valid
// span context contributes trace_id/span_id attributes.
func (l *SlogLogger) log(ctx context.Context, level Level, msg string, args []any) {
	if ctx == nil {
		l.logger.Log(context.Background(), level.slog(), msg, args...)
		return
	}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		args = append(args,
			"trace_id", spanCtx.TraceID().String(),
			"span_id", spanCtx.SpanID().String(),
		)
	}
	l.logger.Log(ctx, level.slog(), msg, args...)
}

// Debug logs a debug message.
func (l *SlogLogger) Debug(msg string, args ...any) { l.log(nil, DebugLevel, msg, args) }

// Info logs an info message.
func (l *SlogLogger) Info(msg string, args ...any) { l.log(nil, InfoLevel, msg, args) }

// Warn logs a warning message.
func (l *SlogLogger) Warn(msg string, args ...any) { l.log(nil, WarnLevel, msg, args) }

// Error logs an error message.
func (l *SlogLogger) Error(msg string, args ...any) { l.log(nil, ErrorLevel, msg, args) }

// DebugContext logs a debug message with trace correlation.
func (l *SlogLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, DebugLevel, msg, args)
}

// InfoContext logs an info message with trace correlation.
func (l *SlogLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, InfoLevel, msg, args)
}

// WarnContext logs a warning message with trace correlation.
func (l *SlogLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, WarnLevel, msg, args)
}

// ErrorContext logs an error message with trace correlation.
func (l *SlogLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, ErrorLevel, msg, args)
}

// With returns a new Logger with the given attributes. Derived loggers share
// the parent's level but never its closer.
func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{
		logger:  l.logger.With(args...),
		level:   l.level,
		current: l.Level(),
	}
}

// SetLevel dynamically changes the logging level.
func (l *SlogLogger) SetLevel(level Level) {
	l.mu.Lock()
	l.current = level
	l.mu.Unlock()
	l.level.Set(level.slog())
}

// Level reports the current logging level.
func (l *SlogLogger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Close closes any resources held by the logger.
func (l *SlogLogger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Global returns the global logger.
func Global() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// SetGlobal replaces the global logger.
func SetGlobal(l Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = l
}

// Convenience functions for the global logger.

func Debug(msg string, args ...any) {
	Global().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Global().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Global().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Global().Error(msg, args...)
}
