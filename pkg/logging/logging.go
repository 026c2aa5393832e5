// Package logging configures structured logging for talkd.
//
// Both binaries use Go's standard log/slog with configurable levels.
//
// Usage:
//
//	logging.Setup(logging.Options{Level: "debug", Format: "text"})
//	slog.Info("client connected", "remote", addr)
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls how logging is configured.
type Options struct {
	Level  string    // "debug", "info", "warn", "error" (default: "info")
	Format string    // "text" or "json" (default: "text")
	Output io.Writer // where to write logs (default: os.Stdout)
}

// LevelNames returns all valid level names, useful for --help text.
func LevelNames() string {
	return "debug, info, warn, error"
}

// ParseLevel converts a level name to slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (valid: %s)", level, LevelNames())
	}
}

// Setup initialises the global slog logger with the given options.
// Safe to call early in main() before any logging occurs.
func Setup(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // include file:line in debug mode
	}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, handlerOpts)
	default:
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}
