// Package logging configures the process-wide slog logger. Output goes to a
// rotating file when a path is set, otherwise to stderr. It never goes to
// stdout, which carries MCP traffic and CLI results.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logging configuration.
type Config struct {
	Level      string    // debug, info (default), warn, error
	Format     string    // text (default) or json
	FilePath   string    // Rotating log file; empty = Writer
	Writer     io.Writer // Destination without a file (default os.Stderr)
	MaxSizeMB  int       // Size before rotation
	MaxBackups int       // Rotated files kept
	MaxAgeDays int       // Days rotated files are kept
	Compress   bool      // gzip rotated files
}

// DefaultConfig returns the logging defaults.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "text",
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 28,
		Compress:   true,
	}
}

// Setup installs the default slog logger for cfg. The returned function
// flushes and closes the log file, if any.
func Setup(cfg Config) (func() error, error) {
	w, closeFn, err := open(cfg)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	slog.SetDefault(slog.New(newHandler(cfg.Format, w, opts)))
	return closeFn, nil
}

func open(cfg Config) (io.Writer, func() error, error) {
	if cfg.FilePath == "" {
		w := cfg.Writer
		if w == nil {
			w = os.Stderr
		}
		return w, func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, nil, err
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
	return lj, lj.Close, nil
}

func newHandler(format string, w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
