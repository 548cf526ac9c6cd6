package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
)

type ctxLoggerKey struct{}

var (
	process  atomic.Pointer[slog.Logger]
	fallback = New("info", os.Stdout)
)

// ParseLevel maps a level name (case-insensitive) to slog.Level. An empty
// name is info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, goerr.New("invalid log level", goerr.V("level", level))
}

// New builds a clog-backed logger writing to w (stdout when nil). An unknown
// level logs at info and says so.
func New(level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	lvl, levelErr := ParseLevel(level)
	logger := slog.New(clog.New(
		clog.WithWriter(w),
		clog.WithLevel(lvl),
		clog.WithTimeFmt("15:04:05"),
		clog.WithSource(false),
		clog.WithAttrHook(clog.GoerrHook),
	))

	if levelErr != nil {
		logger.Warn("invalid log level, falling back to info", "level", level)
	}
	return logger
}

// Configure installs New(level, w) as the process logger. Entry points call
// it once before doing any work.
func Configure(level string, w io.Writer) *slog.Logger {
	logger := New(level, w)
	SetDefault(logger)
	return logger
}

// Default is the process logger, used when a context carries none
func Default() *slog.Logger {
	if logger := process.Load(); logger != nil {
		return logger
	}
	return fallback
}

func SetDefault(logger *slog.Logger) {
	process.Store(logger)
}

// With attaches logger to ctx
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From returns the logger attached to ctx, or Default
func From(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return Default()
}
