package deps

import (
	"testing"

	"platter/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	statuses := CheckBinaries([]Requirement{
		{Name: "Shell", Command: "sh", Description: "always present"},
		{Name: "Ghost", Command: "definitely-not-a-binary-xyz", Optional: true},
		{Name: "Unset", Command: "  "},
	})
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if !statuses[0].Available {
		t.Fatalf("sh should be available: %+v", statuses[0])
	}
	if statuses[1].Available || statuses[1].Detail == "" {
		t.Fatalf("missing binary must carry detail: %+v", statuses[1])
	}
	if !statuses[1].Optional {
		t.Fatal("optional flag must survive")
	}
	if statuses[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for empty command: %q", statuses[2].Detail)
	}
}

func TestResolve(t *testing.T) {
	if got := Resolve(" /usr/local/bin/ffmpeg ", "ffmpeg"); got != "/usr/local/bin/ffmpeg" {
		t.Fatalf("Resolve configured = %q", got)
	}
	if got := Resolve("", "ffmpeg"); got != "ffmpeg" {
		t.Fatalf("Resolve fallback = %q", got)
	}
}

func TestRequirements(t *testing.T) {
	cfg := &config.Config{}
	cfg.Engine.FFmpegBinary = "/opt/ffmpeg/bin/ffmpeg"
	reqs := Requirements(cfg)
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(reqs))
	}
	if reqs[0].Command != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("configured binary not honored: %q", reqs[0].Command)
	}
	if reqs[1].Command != "ffprobe" {
		t.Fatalf("expected ffprobe fallback, got %q", reqs[1].Command)
	}
}
