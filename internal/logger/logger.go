package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

var (
	// default logger instance
	defaultLogger *slog.Logger
	level         = new(slog.LevelVar)
)

// initializes the logger based on environment
func init() {
	Setup(os.Getenv("ENVIRONMENT") == "production", "")
}

// Setup replaces the default logger. Production writes JSON to stdout;
// otherwise a colored console handler writes to stderr. An empty levelName
// keeps the environment default (info in production, debug otherwise).
func Setup(production bool, levelName string) {
	if production {
		level.Set(slog.LevelInfo)
	} else {
		level.Set(slog.LevelDebug)
	}
	if levelName != "" {
		SetLevel(levelName)
	}

	var handler slog.Handler
	if production {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = NewConsoleHandler(os.Stderr, level)
	}
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// SetOutput redirects console output to w. The TUI uses it to keep log
// lines off the terminal it draws on.
func SetOutput(w io.Writer) {
	defaultLogger = slog.New(NewConsoleHandler(w, level))
	slog.SetDefault(defaultLogger)
}

// SetLevel changes the minimum level at runtime. Unknown names are ignored.
func SetLevel(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}
}

// returns the default logger instance
func Default() *slog.Logger {
	return defaultLogger
}

// creates a logger with additional context fields
func With(args ...any) *slog.Logger {
	return defaultLogger.With(args...)
}

// creates a logger with context
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return defaultLogger
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return defaultLogger
}

// adds logger to context
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

type loggerKey struct{}

func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// logs an error with context
func ErrorErr(err error, msg string, args ...any) {
	args = append(args, "error", err)
	defaultLogger.Error(msg, args...)
}

// logs a fatal error and exits
func Fatal(msg string, args ...any) {
	defaultLogger.Log(context.Background(), LevelFatal, msg, args...)
	os.Exit(1)
}

// logs a fatal error with error and exits
func FatalErr(err error, msg string, args ...any) {
	args = append(args, "error", err)
	Fatal(msg, args...)
}
