package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"platter/internal/config"
	"platter/internal/controller"
	"platter/internal/daemon"
	"platter/internal/history"
	"platter/internal/logging"
)

// newLogger builds the daemon logger from configuration: the configured
// format on stdout plus a JSON-friendly append log under the log directory.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		OutputPaths: []string{
			"stdout",
			filepath.Join(cfg.Paths.LogDir, "platterd.log"),
		},
	})
}

// bootstrap wires the history store, controller, and daemon together.
func bootstrap(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	store, err := history.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	ctrl := controller.New(cfg, logger, controller.WithRecorder(store))

	d, err := daemon.New(cfg, logger, ctrl, store)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create daemon: %w", err)
	}
	return d, nil
}
