package main

import (
	"context"
	"testing"

	"platter/internal/config"
	"platter/internal/logging"
)

func TestBootstrap(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.TempDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Detection.OpticalDrive = ""

	d, err := bootstrap(&cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer d.Close()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Running() {
		t.Fatal("daemon must be running")
	}
	if d.APIAddr() == "" {
		t.Fatal("api must be bound")
	}
	d.Stop()
}

func TestNewLogger(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "debug"

	logger, err := newLogger(&cfg)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Info("startup check")
}
