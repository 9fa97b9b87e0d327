package history

import (
	"context"
	"testing"
	"time"

	"platter/internal/config"
	"platter/internal/controller"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := &config.Config{
		Paths: config.Paths{
			OutputDir: t.TempDir(),
			TempDir:   t.TempDir(),
			LogDir:    t.TempDir(),
		},
	}
	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func terminalState(jobID string, phase controller.Phase) controller.State {
	return controller.State{
		JobID:      jobID,
		SourcePath: "/mnt/disc",
		Format:     "mp4",
		Phase:      phase,
		Message:    "done",
		OutputFile: "/out/" + jobID + ".mp4",
		OutputSize: 1024,
		UpdatedAt:  time.Now(),
	}
}

func TestRecordAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, terminalState("job-1", controller.PhaseCompleted)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	failed := terminalState("job-2", controller.PhaseError)
	failed.Error = "segment transcode failed"
	if err := store.Record(ctx, failed); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].JobID != "job-2" {
		t.Fatalf("expected newest first, got %q", entries[0].JobID)
	}
	if entries[0].Error != "segment transcode failed" {
		t.Fatalf("error not persisted: %q", entries[0].Error)
	}
	if entries[1].OutputSize != 1024 {
		t.Fatalf("size not persisted: %d", entries[1].OutputSize)
	}
	if entries[1].SourcePath != "/mnt/disc" || entries[1].Format != "mp4" {
		t.Fatalf("source/format not persisted: %q %q", entries[1].SourcePath, entries[1].Format)
	}
	if entries[0].FinishedAt.IsZero() {
		t.Fatal("finished_at not parsed")
	}
}

func TestRecordRejectsNonTerminal(t *testing.T) {
	store := openTestStore(t)
	state := terminalState("job-1", controller.PhaseConverting)
	if err := store.Record(context.Background(), state); err == nil {
		t.Fatal("expected rejection of non-terminal phase")
	}
}

func TestListLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		state := terminalState("job", controller.PhaseCompleted)
		if err := store.Record(ctx, state); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	entries, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
}

func TestPrune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := store.Record(ctx, terminalState("job", controller.PhaseCompleted)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := store.Prune(ctx, 2); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after prune, got %d", len(entries))
	}
}
