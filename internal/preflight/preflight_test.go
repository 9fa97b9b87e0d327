package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"platter/internal/config"
)

func TestCheckDirectoryAccess(t *testing.T) {
	t.Run("writable directory passes", func(t *testing.T) {
		result := CheckDirectoryAccess("Output directory", t.TempDir())
		if !result.Passed {
			t.Fatalf("expected pass, got %+v", result)
		}
	})

	t.Run("missing directory fails", func(t *testing.T) {
		result := CheckDirectoryAccess("Output directory", filepath.Join(t.TempDir(), "absent"))
		if result.Passed {
			t.Fatalf("expected failure, got %+v", result)
		}
	})

	t.Run("file is not a directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		result := CheckDirectoryAccess("Output directory", path)
		if result.Passed {
			t.Fatalf("expected failure, got %+v", result)
		}
	})
}

func TestCheckOpticalDriveMissing(t *testing.T) {
	result := CheckOpticalDrive(filepath.Join(t.TempDir(), "sr9"))
	if result.Passed {
		t.Fatalf("expected failure for missing device, got %+v", result)
	}
}

func TestRunAll(t *testing.T) {
	cfg := &config.Config{
		Paths: config.Paths{
			OutputDir: t.TempDir(),
			TempDir:   t.TempDir(),
			LogDir:    t.TempDir(),
		},
	}
	results := RunAll(context.Background(), cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results without a drive, got %d", len(results))
	}
	for _, result := range results {
		if !result.Passed {
			t.Fatalf("expected all passes: %+v", result)
		}
	}

	cfg.Detection.OpticalDrive = "/dev/sr0"
	if results := RunAll(context.Background(), cfg); len(results) != 4 {
		t.Fatalf("expected drive check appended, got %d results", len(results))
	}

	if RunAll(context.Background(), nil) != nil {
		t.Fatal("nil config must produce no results")
	}
}
