package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"owlmap/internal/config"
)

// LogFileName is the file written under paths.log_dir.
const LogFileName = "owlmap.log"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Console receives every line; nil means stderr. Command output goes to
	// stdout, so logs never mix with --json payloads.
	Console io.Writer
	// File, when set, also receives every line in append mode.
	File string
	// Source adds file:line to each record regardless of level.
	Source bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(opts.Level))

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	if format != "console" && format != "json" {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	out, err := openOutput(opts.Console, opts.File)
	if err != nil {
		return nil, err
	}
	addSource := opts.Source || levelVar.Level() <= slog.LevelDebug

	if format == "json" {
		return slog.New(newJSONHandler(out, levelVar, addSource)), nil
	}
	return slog.New(newConsoleHandler(out, levelVar, addSource)), nil
}

// NewFromConfig creates the command logger: console or JSON lines on stderr,
// mirrored to log_dir/owlmap.log when a log directory is configured.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{})
	}
	opts := Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		opts.File = filepath.Join(dir, LogFileName)
	}
	return New(opts)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openOutput(console io.Writer, file string) (io.Writer, error) {
	if console == nil {
		console = os.Stderr
	}
	file = strings.TrimSpace(file)
	if file == "" {
		return console, nil
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", file, err)
	}
	return io.MultiWriter(console, f), nil
}
