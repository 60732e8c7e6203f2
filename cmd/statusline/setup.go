package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattjoyce/statusline/internal/config"
	"github.com/mattjoyce/statusline/internal/history"
	"github.com/mattjoyce/statusline/internal/log"
	"github.com/mattjoyce/statusline/internal/statusline"
	"github.com/mattjoyce/statusline/internal/storage"
)

func loadConfig(g *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	return cfg, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// setupLogging routes logs to log.file when set, else to fallbackFile when
// non-empty, else to stderr. The TUI passes a fallback so logs never draw
// over the screen.
func setupLogging(cfg *config.Config, fallbackFile string, stderr io.Writer) (io.Closer, error) {
	path := cfg.Log.File
	if path == "" {
		path = fallbackFile
	}
	if path == "" {
		log.Setup(cfg.Log.Level, cfg.Log.Format, stderr)
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.Setup(cfg.Log.Level, cfg.Log.Format, f)
	return f, nil
}

// openHistory returns nil when history is disabled.
func openHistory(ctx context.Context, cfg *config.Config) (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	db, err := storage.OpenSQLite(ctx, cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", cfg.History.Path, err)
	}
	return history.NewStore(db), nil
}

// newManager returns nil when no renderer command is configured.
func newManager(ctx context.Context, cfg *config.Config, store *history.Store) *statusline.Manager {
	opts := []statusline.Option{
		statusline.WithContext(ctx),
		statusline.WithLogger(log.WithComponent("statusline")),
	}
	if store != nil {
		opts = append(opts, statusline.WithRecorder(store))
	}
	return statusline.New(cfg.StatusLine, opts...)
}

func disabledError() error {
	return &exitError{
		code: exitDisabled,
		msg:  fmt.Sprintf("status line disabled: set status_line.command or $%s", config.EnvCommand),
	}
}
