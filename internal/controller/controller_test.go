package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"platter/internal/config"
	"platter/internal/inspect"
	"platter/internal/media/ffprobe"
	"platter/internal/profile"
)

// stubExecutor scripts engine behavior: it emits a fixed progress transcript,
// creates the output file named by the final argument, and can fail or block
// on a chosen call.
type stubExecutor struct {
	mu       sync.Mutex
	calls    [][]string
	failCall int           // 1-based call index that fails, 0 for none
	block    chan struct{} // when non-nil, Run waits for close or cancellation
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	s.mu.Lock()
	s.calls = append(s.calls, args)
	call := len(s.calls)
	s.mu.Unlock()

	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if onLine != nil {
		onLine("  Duration: 00:02:00.00, start: 0.000000, bitrate: 5000 kb/s")
		onLine("frame=  100 fps= 25 q=28.0 size=    1024KiB time=00:01:00.00 bitrate= 300.0kbits/s")
		onLine("frame=  200 fps= 25 q=28.0 size=    2048KiB time=00:02:00.00 bitrate= 300.0kbits/s")
	}
	if s.failCall == call {
		return fmt.Errorf("engine exited with status 1")
	}
	return os.WriteFile(args[len(args)-1], []byte("encoded"), 0o644)
}

func (s *stubExecutor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type stubRecorder struct {
	mu     sync.Mutex
	states []State
}

func (s *stubRecorder) Record(_ context.Context, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, state)
	return nil
}

func makeVolume(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	vts := filepath.Join(root, "VIDEO_TS")
	if err := os.MkdirAll(vts, 0o755); err != nil {
		t.Fatalf("mkdir VIDEO_TS: %v", err)
	}
	for _, name := range []string{"VTS_01_0.VOB", "VTS_01_1.VOB", "VTS_01_2.VOB"} {
		if err := os.WriteFile(filepath.Join(vts, name), []byte("vob"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Paths: config.Paths{
			OutputDir: t.TempDir(),
			TempDir:   t.TempDir(),
		},
		Engine: config.Engine{
			FFmpegBinary:  "ffmpeg",
			FFprobeBinary: "ffprobe",
		},
		Conversion: config.Conversion{
			DefaultFormat: "mp4",
			AudioTracks:   "all",
		},
	}
}

func goodProbe(title string) inspect.ProbeFunc {
	return func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{
			Streams: []ffprobe.Stream{
				{Index: 0, CodecName: "mpeg2video", CodecType: "video", Width: 720, Height: 480},
				{Index: 1, CodecName: "ac3", CodecType: "audio", Channels: 2, Tags: ffprobe.Tags{Language: "eng"}},
			},
			Format: ffprobe.Format{
				Duration: "120.000000",
				Tags:     ffprobe.Tags{Title: title},
			},
		}, nil
	}
}

func newTestController(t *testing.T, cfg *config.Config, exec *stubExecutor, probe inspect.ProbeFunc, extra ...Option) *Controller {
	t.Helper()
	opts := []Option{
		WithExecutor(exec),
		WithInspector(inspect.New(cfg.Engine.FFprobeBinary, inspect.WithProbe(probe))),
		WithProbe(probe),
	}
	opts = append(opts, extra...)
	c := New(cfg, nil, opts...)
	t.Cleanup(c.Close)
	return c
}

func drain(ch <-chan State) []State {
	var states []State
	for {
		select {
		case state, ok := <-ch:
			if !ok {
				return states
			}
			states = append(states, state)
		default:
			return states
		}
	}
}

func TestAdmitRejectsUnsupportedFormat(t *testing.T) {
	c := newTestController(t, testConfig(t), &stubExecutor{}, goodProbe("Movie"))

	_, err := c.Admit(Request{SourcePath: makeVolume(t), Format: "avi"})
	if !errors.Is(err, profile.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if got := c.Status().Phase; got != PhaseIdle {
		t.Fatalf("rejected admission must not disturb state, got phase %q", got)
	}
}

func TestAdmitRejectsMissingSource(t *testing.T) {
	c := newTestController(t, testConfig(t), &stubExecutor{}, goodProbe("Movie"))
	if _, err := c.Admit(Request{}); err == nil {
		t.Fatal("expected error for empty source path")
	}
}

func TestSingleJobAdmission(t *testing.T) {
	exec := &stubExecutor{block: make(chan struct{})}
	c := newTestController(t, testConfig(t), exec, goodProbe("Movie"))

	first, err := c.Admit(Request{SourcePath: makeVolume(t)})
	if err != nil {
		t.Fatalf("first Admit: %v", err)
	}

	if _, err := c.Admit(Request{SourcePath: makeVolume(t)}); !errors.Is(err, ErrJobActive) {
		t.Fatalf("expected ErrJobActive, got %v", err)
	}
	if got := c.Status().JobID; got != first.JobID {
		t.Fatalf("rejected admission changed active job: %q != %q", got, first.JobID)
	}

	close(exec.block)
	c.Wait()
	if got := c.Status().Phase; got != PhaseCompleted {
		t.Fatalf("expected completed after release, got %q", got)
	}
}

func TestJobCompletes(t *testing.T) {
	cfg := testConfig(t)
	exec := &stubExecutor{}
	c := newTestController(t, cfg, exec, goodProbe("My Movie"))

	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()

	if _, err := c.Admit(Request{SourcePath: makeVolume(t)}); err != nil {
		t.Fatalf("Admit: %v", err)
	}
	c.Wait()

	final := c.Status()
	if final.Phase != PhaseCompleted {
		t.Fatalf("expected completed, got %q (%s)", final.Phase, final.Error)
	}
	if final.Progress != 100 {
		t.Fatalf("expected progress 100, got %v", final.Progress)
	}
	if final.OutputSize == 0 {
		t.Fatal("expected recorded output size")
	}
	if final.OutputDuration != 120 {
		t.Fatalf("expected re-probed duration 120, got %v", final.OutputDuration)
	}
	base := filepath.Base(final.OutputFile)
	if !strings.HasPrefix(base, "My_Movie_") || !strings.HasSuffix(base, ".mp4") {
		t.Fatalf("unexpected output name %q", base)
	}
	if _, err := os.Stat(final.OutputFile); err != nil {
		t.Fatalf("output file missing: %v", err)
	}

	// Two menu-less segments plus one concatenation.
	if got := exec.callCount(); got != 3 {
		t.Fatalf("expected 3 engine invocations, got %d", got)
	}

	// Scratch files are gone after success.
	entries, err := os.ReadDir(cfg.Paths.TempDir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp dir not cleaned: %v", entries)
	}

	// Published snapshots walk the phases in order with monotonic progress.
	states := drain(updates)
	if len(states) == 0 {
		t.Fatal("expected published state transitions")
	}
	var last float64
	phaseOrder := map[Phase]int{
		PhaseStarting:      0,
		PhaseInspecting:    1,
		PhaseConverting:    2,
		PhaseConcatenating: 3,
		PhaseCompleted:     4,
	}
	lastRank := -1
	for _, state := range states {
		if state.Progress < last {
			t.Fatalf("progress regressed: %v -> %v", last, state.Progress)
		}
		last = state.Progress
		rank, ok := phaseOrder[state.Phase]
		if !ok {
			t.Fatalf("unexpected phase %q", state.Phase)
		}
		if rank < lastRank {
			t.Fatalf("phase order violated at %q", state.Phase)
		}
		lastRank = rank
	}
	if states[len(states)-1].Phase != PhaseCompleted {
		t.Fatalf("last snapshot must be terminal, got %q", states[len(states)-1].Phase)
	}
}

func TestSegmentFailureCleansUp(t *testing.T) {
	cfg := testConfig(t)
	exec := &stubExecutor{failCall: 2}
	c := newTestController(t, cfg, exec, goodProbe("Movie"))

	if _, err := c.Admit(Request{SourcePath: makeVolume(t)}); err != nil {
		t.Fatalf("Admit: %v", err)
	}
	c.Wait()

	final := c.Status()
	if final.Phase != PhaseError {
		t.Fatalf("expected error phase, got %q", final.Phase)
	}
	if !strings.Contains(final.Error, "segment transcode failed") {
		t.Fatalf("error must name the failed phase: %q", final.Error)
	}
	if !strings.Contains(final.Error, "segment 2 of 2") {
		t.Fatalf("error must name the failed segment: %q", final.Error)
	}

	entries, err := os.ReadDir(cfg.Paths.TempDir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp dir not cleaned after failure: %v", entries)
	}
}

func TestCancelActiveJob(t *testing.T) {
	cfg := testConfig(t)
	exec := &stubExecutor{block: make(chan struct{})}
	c := newTestController(t, cfg, exec, goodProbe("Movie"))

	if _, err := c.Admit(Request{SourcePath: makeVolume(t)}); err != nil {
		t.Fatalf("Admit: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for exec.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("engine never invoked")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if !c.Cancel() {
		t.Fatal("Cancel must succeed while a job is active")
	}
	c.Wait()

	final := c.Status()
	if final.Phase != PhaseCancelled {
		t.Fatalf("expected cancelled, got %q", final.Phase)
	}
	if final.Error != "" {
		t.Fatalf("cancellation is not an error: %q", final.Error)
	}
	if c.Cancel() {
		t.Fatal("Cancel must report false with no active job")
	}

	entries, err := os.ReadDir(cfg.Paths.TempDir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp dir not cleaned after cancel: %v", entries)
	}
}

func TestInspectionFailureFallsBack(t *testing.T) {
	failingProbe := func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{}, errors.New("probe exploded")
	}
	c := newTestController(t, testConfig(t), &stubExecutor{}, failingProbe)

	if _, err := c.Admit(Request{SourcePath: makeVolume(t)}); err != nil {
		t.Fatalf("Admit: %v", err)
	}
	c.Wait()

	final := c.Status()
	if final.Phase != PhaseCompleted {
		t.Fatalf("inspection failure must not abort the job, got %q (%s)", final.Phase, final.Error)
	}
	if !strings.HasPrefix(filepath.Base(final.OutputFile), inspect.FallbackTitle) {
		t.Fatalf("expected fallback title in output name, got %q", final.OutputFile)
	}
}

func TestRecorderReceivesTerminalState(t *testing.T) {
	rec := &stubRecorder{}
	c := newTestController(t, testConfig(t), &stubExecutor{}, goodProbe("Movie"), WithRecorder(rec))

	if _, err := c.Admit(Request{SourcePath: makeVolume(t)}); err != nil {
		t.Fatalf("Admit: %v", err)
	}
	c.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.states) != 1 {
		t.Fatalf("expected one recorded outcome, got %d", len(rec.states))
	}
	if rec.states[0].Phase != PhaseCompleted {
		t.Fatalf("recorded phase %q", rec.states[0].Phase)
	}
}

func TestExplicitOutputName(t *testing.T) {
	cfg := testConfig(t)
	c := newTestController(t, cfg, &stubExecutor{}, goodProbe("Movie"))

	if _, err := c.Admit(Request{SourcePath: makeVolume(t), OutputName: "family-reunion"}); err != nil {
		t.Fatalf("Admit: %v", err)
	}
	c.Wait()

	final := c.Status()
	if want := filepath.Join(cfg.Paths.OutputDir, "family-reunion.mp4"); final.OutputFile != want {
		t.Fatalf("expected %q, got %q", want, final.OutputFile)
	}
}
