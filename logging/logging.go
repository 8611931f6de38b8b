// Package logging provides the structured logger shared by the engine's
// packages. It wraps log/slog with a context-first call style and a small set
// of helpers for recording operation outcomes.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel represents the minimum level a logger emits.
type LogLevel int

// Supported levels.
const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// LogFormat selects the slog handler.
type LogFormat string

// Supported formats.
const (
	FormatText LogFormat = "text"
	FormatJSON LogFormat = "json"
)

// LogConfig holds configuration for a Logger.
type LogConfig struct {
	// Level sets the minimum log level.
	Level LogLevel
	// Format selects text or JSON output. Defaults to text.
	Format LogFormat
	// EnableCallerInfo includes file and line number in logs.
	EnableCallerInfo bool
	// Output receives log records. Defaults to os.Stderr.
	Output io.Writer
}

// DefaultLogConfig returns info-level text logging to stderr.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  LogLevelInfo,
		Format: FormatText,
	}
}

// Logger provides structured logging. A nil *Logger and the nop logger
// both discard everything, so components never need to nil-check.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a logger with the given configuration.
func NewLogger(config LogConfig) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     config.Level.slogLevel(),
		AddSource: config.EnableCallerInfo,
	}

	var handler slog.Handler
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return &Logger{logger: slog.New(handler)}
}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *Logger {
	return &Logger{}
}

// OrNop returns l, or a nop logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}

func (lvl LogLevel) slogLevel() slog.Level {
	switch lvl {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs debug-level messages.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	if l != nil && l.logger != nil {
		l.logger.DebugContext(ctx, msg, args...)
	}
}

// Info logs info-level messages.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	if l != nil && l.logger != nil {
		l.logger.InfoContext(ctx, msg, args...)
	}
}

// Warn logs warning-level messages.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	if l != nil && l.logger != nil {
		l.logger.WarnContext(ctx, msg, args...)
	}
}

// Error logs error-level messages.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	if l != nil && l.logger != nil {
		l.logger.ErrorContext(ctx, msg, args...)
	}
}

// With returns a logger with additional context fields.
func (l *Logger) With(args ...any) *Logger {
	if l == nil || l.logger == nil {
		return l
	}
	return &Logger{logger: l.logger.With(args...)}
}

// WithOperation returns a logger tagged with an operation.
func (l *Logger) WithOperation(op Operation) *Logger {
	return l.With("operation", string(op))
}

// WithStore returns a logger tagged with a store identity.
func (l *Logger) WithStore(key fmt.Stringer) *Logger {
	return l.With("store", key.String())
}

// WithPath returns a logger tagged with a content path.
func (l *Logger) WithPath(path string) *Logger {
	return l.With("path", path)
}

// Operation names an engine operation for logging.
type Operation string

// Engine operations.
const (
	OpRetrieve   Operation = "retrieve"
	OpStore      Operation = "store"
	OpDelete     Operation = "delete"
	OpList       Operation = "list"
	OpExists     Operation = "exists"
	OpDigest     Operation = "digest"
	OpGenerate   Operation = "generate"
	OpInvalidate Operation = "invalidate"
	OpRescan     Operation = "rescan"
	OpNFCSweep   Operation = "nfc_sweep"
	OpResolve    Operation = "resolve"
)

// LogOperation logs the outcome of an operation with its duration.
// Successful operations log at debug, failures at warn.
func LogOperation(ctx context.Context, logger *Logger, op Operation, duration time.Duration, err error, args ...any) {
	if logger == nil {
		return
	}

	fields := append([]any{
		"operation", string(op),
		"duration_ms", duration.Milliseconds(),
		"success", err == nil,
	}, args...)

	if err != nil {
		fields = append(fields, "error", err.Error())
		logger.Warn(ctx, "operation failed", fields...)
		return
	}
	logger.Debug(ctx, "operation completed", fields...)
}

// ParseLogLevel parses a string log level into a LogLevel.
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LogLevelDebug, nil
	case "info", "":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}
