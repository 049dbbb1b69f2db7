// Package logging builds the slog logger shared by every devdeck command.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/justinpbarnett/devdeck/internal/config"
)

// DefaultTUILog is where the terminal runner logs when no file is configured,
// since stderr belongs to the UI.
const DefaultTUILog = "devdeck-debug.log"

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// New returns a text logger writing to w at the configured level.
func New(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// Setup installs the default logger for a server command: the configured file
// if any, stderr otherwise. The returned func closes the file.
func Setup(cfg config.LogConfig) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stderr
	cleanup := func() {}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w = f
		cleanup = func() { _ = f.Close() }
	}

	logger, err := New(cfg, w)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

// SetupTUI routes logging to a file through tea.LogToFile so nothing is
// written over the terminal UI.
func SetupTUI(cfg config.LogConfig) (*slog.Logger, func(), error) {
	path := cfg.File
	if path == "" {
		path = DefaultTUILog
	}
	f, err := tea.LogToFile(path, "devdeck")
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	logger, err := New(cfg, f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return logger, func() { _ = f.Close() }, nil
}

// Discard is a logger that drops everything, for tests and quiet commands.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
