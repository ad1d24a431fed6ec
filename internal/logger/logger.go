package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/altafino/folder-import/internal/types"
	"github.com/golang-cz/devslog"
)

// Setup creates a new logger based on configuration.
// The returned closer releases the log file when logging.output is "file".
func Setup(cfg *types.Config) (*slog.Logger, io.Closer, error) {
	out, closer, err := output(cfg)
	if err != nil {
		return nil, nil, err
	}
	return New(out, cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.IncludeCaller), closer, nil
}

// ForProfile returns the logger configured by cfg, tagged with the profile ID.
// If the configured output cannot be opened, fallback is returned with the error.
func ForProfile(cfg *types.Config, fallback *slog.Logger) (*slog.Logger, io.Closer, error) {
	l, closer, err := Setup(cfg)
	if err != nil {
		return fallback.With("config_id", cfg.Meta.ID), io.NopCloser(nil), err
	}
	return l.With("config_id", cfg.Meta.ID), closer, nil
}

// New builds a logger writing to w
func New(w io.Writer, level, format string, includeCaller bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: includeCaller,
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "dev":
		handler = devslog.NewHandler(w, &devslog.Options{
			HandlerOptions:    opts,
			MaxSlicePrintSize: 10,
			SortKeys:          true,
			NewLineAfterLog:   true,
		})
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel maps a configured level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func output(cfg *types.Config) (io.Writer, io.Closer, error) {
	if cfg.Logging.Output != "file" {
		return os.Stdout, io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Logging.FilePath), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(cfg.Logging.FilePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, f, nil
}
