package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"platter/internal/api"
	"platter/internal/config"
	"platter/internal/controller"
	"platter/internal/history"
	"platter/internal/inspect"
	"platter/internal/media/ffprobe"
)

type scriptedExecutor struct{}

func (scriptedExecutor) Run(_ context.Context, _ string, args []string, onLine func(string)) error {
	if onLine != nil {
		onLine("  Duration: 00:01:00.00, start: 0.000000, bitrate: 5000 kb/s")
		onLine("frame= 100 fps= 25 time=00:01:00.00 bitrate= 300.0kbits/s")
	}
	return os.WriteFile(args[len(args)-1], []byte("encoded"), 0o644)
}

func quietProbe(context.Context, string, string) (ffprobe.Result, error) {
	return ffprobe.Result{
		Format: ffprobe.Format{Duration: "60.0", Tags: ffprobe.Tags{Title: "Test Disc"}},
	}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Paths: config.Paths{
			OutputDir: t.TempDir(),
			TempDir:   t.TempDir(),
			LogDir:    t.TempDir(),
			APIBind:   "127.0.0.1:0",
		},
		Engine: config.Engine{FFmpegBinary: "ffmpeg", FFprobeBinary: "ffprobe"},
		Conversion: config.Conversion{
			DefaultFormat: "mp4",
			AudioTracks:   "all",
		},
	}
}

func makeVolume(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	vts := filepath.Join(root, "VIDEO_TS")
	if err := os.MkdirAll(vts, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(vts, "VTS_01_1.VOB"), []byte("vob"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return root
}

func startTestDaemon(t *testing.T, cfg *config.Config) (*Daemon, *controller.Controller) {
	t.Helper()
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	ctrl := controller.New(cfg, nil,
		controller.WithExecutor(scriptedExecutor{}),
		controller.WithInspector(inspect.New("ffprobe", inspect.WithProbe(quietProbe))),
		controller.WithProbe(quietProbe),
		controller.WithRecorder(store),
	)
	d, err := New(cfg, nil, ctrl, store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, ctrl
}

func TestDaemonLifecycleAndLock(t *testing.T) {
	cfg := testConfig(t)
	d, _ := startTestDaemon(t, cfg)
	if !d.Running() {
		t.Fatal("daemon must report running after Start")
	}
	if d.APIAddr() == "" {
		t.Fatal("api must be bound")
	}

	// A second instance over the same log directory must be refused.
	store2, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	defer store2.Close()
	ctrl2 := controller.New(cfg, nil, controller.WithExecutor(scriptedExecutor{}))
	second, err := New(cfg, nil, ctrl2, nil)
	if err != nil {
		t.Fatalf("New second: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second daemon instance must fail to start")
	}

	d.Stop()
	if d.Running() {
		t.Fatal("daemon must report stopped after Stop")
	}
}

func TestAPIConvertRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	d, ctrl := startTestDaemon(t, cfg)
	client := api.NewClient(d.APIAddr())
	ctx := context.Background()

	status, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.Job.Phase != controller.PhaseIdle {
		t.Fatalf("unexpected initial status: %+v", status)
	}
	if len(status.Dependencies) != 2 {
		t.Fatalf("expected ffmpeg+ffprobe dependency checks, got %d", len(status.Dependencies))
	}

	resp, err := client.Convert(ctx, api.ConvertRequest{SourcePath: makeVolume(t)})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if resp.Job.Phase != controller.PhaseStarting {
		t.Fatalf("expected starting phase, got %q", resp.Job.Phase)
	}

	ctrl.Wait()
	status, err = client.Status(ctx)
	if err != nil {
		t.Fatalf("Status after job: %v", err)
	}
	if status.Job.Phase != controller.PhaseCompleted {
		t.Fatalf("expected completed, got %q (%s)", status.Job.Phase, status.Job.Error)
	}

	hist, err := client.History(ctx, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist.Entries) != 1 || hist.Entries[0].Phase != string(controller.PhaseCompleted) {
		t.Fatalf("unexpected history: %+v", hist.Entries)
	}

	cancel, err := client.Cancel(ctx)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancel.Cancelled {
		t.Fatal("cancel must report false with no active job")
	}
}

func TestAPIDrives(t *testing.T) {
	cfg := testConfig(t)
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "DISC", "VIDEO_TS"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg.Detection.VolumeRoots = []string{root}

	d, _ := startTestDaemon(t, cfg)
	client := api.NewClient(d.APIAddr())

	drives, err := client.Drives(context.Background())
	if err != nil {
		t.Fatalf("Drives: %v", err)
	}
	if len(drives.Volumes) != 1 || !drives.Volumes[0].Structured {
		t.Fatalf("unexpected volumes: %+v", drives.Volumes)
	}
}

func TestEventsStreamDeliversTerminalState(t *testing.T) {
	cfg := testConfig(t)
	d, _ := startTestDaemon(t, cfg)
	client := api.NewClient(d.APIAddr())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	states := make(chan controller.State, 64)
	watchDone := make(chan error, 1)
	go func() {
		watchDone <- client.Watch(ctx, func(state controller.State) bool {
			states <- state
			return !state.Phase.Terminal()
		})
	}()

	// Give the watcher a moment to connect before the job starts.
	time.Sleep(100 * time.Millisecond)
	if _, err := client.Convert(ctx, api.ConvertRequest{SourcePath: makeVolume(t)}); err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if err := <-watchDone; err != nil {
		t.Fatalf("Watch: %v", err)
	}
	var last controller.State
	for {
		select {
		case state := <-states:
			last = state
			continue
		default:
		}
		break
	}
	if last.Phase != controller.PhaseCompleted {
		t.Fatalf("expected completed terminal event, got %q (%s)", last.Phase, last.Error)
	}
}
