// Package logging owns the process-wide operational logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var (
	opLogger atomic.Pointer[slog.Logger]
	logLevel = new(slog.LevelVar)
)

func init() {
	logLevel.Set(slog.LevelInfo)
	opLogger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

// Op returns the operational logger. Request-scoped loggers are derived from
// it and carried in the context (see contextx.Logger).
func Op() *slog.Logger {
	return opLogger.Load()
}

// Configure replaces the operational logger. format is "text" or "json"; a
// nil w means os.Stderr. The new logger also becomes slog.Default.
func Configure(w io.Writer, format, level string) error {
	if w == nil {
		w = os.Stderr
	}
	if err := SetLevelFromString(level); err != nil {
		return err
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	var h slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("logging: unknown format %q", format)
	}

	l := slog.New(h)
	opLogger.Store(l)
	slog.SetDefault(l)
	return nil
}

// SetLevel changes the log level for the operational logger.
func SetLevel(level slog.Level) {
	logLevel.Set(level)
}

// SetLevelFromString sets the log level from "debug", "info", "warn" or
// "error" (any case). An empty string leaves the level unchanged.
func SetLevelFromString(level string) error {
	switch strings.ToLower(level) {
	case "":
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		return fmt.Errorf("logging: unknown level %q", level)
	}
	return nil
}
