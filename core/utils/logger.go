package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Logger is a thin convenience wrapper over slog so call sites can keep the
// printf-style surface used throughout the handlers.
type Logger struct {
	sl *slog.Logger
}

func NewLogger() *Logger {
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.RFC3339,
	})
	return &Logger{sl: slog.New(handler)}
}

// NewLoggerTo writes to the given writer without color codes. Used by tests
// that assert on log output.
func NewLoggerTo(w io.Writer) *Logger {
	handler := tint.NewHandler(w, &tint.Options{
		Level:   slog.LevelInfo,
		NoColor: true,
	})
	return &Logger{sl: slog.New(handler)}
}

// NewDiscardLogger returns a logger that ships everything to a disabled
// handler. Used by tests that do not care about output.
func NewDiscardLogger() *Logger {
	handler := tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelError + 1})
	return &Logger{sl: slog.New(handler)}
}

func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.sl == nil {
		return
	}
	l.sl.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	if l == nil || l.sl == nil {
		return
	}
	l.sl.Error(fmt.Sprintf(format, args...))
}
