package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"platter/internal/catalog"
	"platter/internal/command"
	"platter/internal/config"
	"platter/internal/engine"
	"platter/internal/inspect"
	"platter/internal/logging"
	"platter/internal/media/ffprobe"
	"platter/internal/profile"
	"platter/internal/progress"
)

var (
	// ErrJobActive reports that a job is already in flight. Admission is
	// rejected synchronously and the active job's state is untouched.
	ErrJobActive = errors.New("a conversion job is already active")
	// ErrSegmentTranscode reports a Phase-A failure. The wrapped message
	// names the segment that failed.
	ErrSegmentTranscode = errors.New("segment transcode failed")
	// ErrConcatenation reports a Phase-B failure.
	ErrConcatenation = errors.New("segment concatenation failed")
)

// Progress span constants. Inspection is cheap, so the converting phase
// carries nearly the whole bar; concatenation is stream copy and fast.
const (
	progressInspecting = 5.0
	progressConvertEnd = 90.0
)

// Recorder persists terminal job outcomes. Implementations must tolerate
// being called from the worker goroutine.
type Recorder interface {
	Record(ctx context.Context, state State) error
}

// Request carries the admission parameters for one conversion job. Zero-value
// fields fall back to configured defaults.
type Request struct {
	SourcePath string
	OutputDir  string
	OutputName string
	Format     string
	AudioMode  string
	Subtitles  *bool
}

// Option configures the controller.
type Option func(*Controller)

// WithExecutor injects a custom engine executor (primarily for tests).
func WithExecutor(exec engine.Executor) Option {
	return func(c *Controller) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithInspector injects a custom stream inspector.
func WithInspector(inspector *inspect.Inspector) Option {
	return func(c *Controller) {
		if inspector != nil {
			c.inspector = inspector
		}
	}
}

// WithProbe injects the probe used for the post-completion duration check.
func WithProbe(fn inspect.ProbeFunc) Option {
	return func(c *Controller) {
		if fn != nil {
			c.probe = fn
		}
	}
}

// WithRecorder attaches a terminal-outcome recorder.
func WithRecorder(rec Recorder) Option {
	return func(c *Controller) {
		if rec != nil {
			c.recorder = rec
		}
	}
}

// Controller runs at most one conversion job at a time. A single worker
// goroutine owns every state transition; all other methods only read
// snapshots or signal the worker.
type Controller struct {
	cfg       *config.Config
	logger    *slog.Logger
	exec      engine.Executor
	inspector *inspect.Inspector
	probe     inspect.ProbeFunc
	recorder  Recorder
	hub       *broadcaster

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs a controller in the idle state.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Controller{
		cfg:       cfg,
		logger:    logging.WithComponent(logger, "controller"),
		exec:      engine.CommandExecutor{},
		inspector: inspect.New(cfg.Engine.FFprobeBinary),
		probe:     ffprobe.Inspect,
		hub:       newBroadcaster(),
		state:     State{Phase: PhaseIdle, UpdatedAt: time.Now()},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status returns the current job snapshot.
func (c *Controller) Status() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers a listener for every state transition. The cancel
// function releases the subscription.
func (c *Controller) Subscribe() (<-chan State, func()) {
	return c.hub.subscribe()
}

// Cancel requests termination of the active job. It returns false when no job
// is active. The worker observes the cancelled context, kills the running
// engine invocation, cleans up, and publishes the cancelled state.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Phase.Active() || c.cancel == nil {
		return false
	}
	c.cancel()
	return true
}

// Wait blocks until the current job's worker has exited. Used by shutdown and
// tests; returns immediately when no job ran.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close cancels any active job, waits for the worker, and drops all
// subscribers.
func (c *Controller) Close() {
	c.Cancel()
	c.Wait()
	c.hub.close()
}

// Admit validates a request and, if no job is active, starts its worker. The
// returned snapshot is the job's initial state. All admission errors are
// synchronous; on rejection the current state is untouched.
func (c *Controller) Admit(req Request) (State, error) {
	if strings.TrimSpace(req.SourcePath) == "" {
		return State{}, errors.New("source path required")
	}

	format := req.Format
	if format == "" {
		format = c.cfg.Conversion.DefaultFormat
	}
	prof, err := profile.Lookup(format)
	if err != nil {
		return State{}, err
	}

	audioValue := req.AudioMode
	if audioValue == "" {
		audioValue = c.cfg.Conversion.AudioTracks
	}
	audioMode, err := command.ParseAudioMode(audioValue)
	if err != nil {
		return State{}, err
	}

	subtitles := c.cfg.Conversion.Subtitles
	if req.Subtitles != nil {
		subtitles = *req.Subtitles
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = c.cfg.Paths.OutputDir
	}

	c.mu.Lock()
	if c.state.Phase.Active() {
		c.mu.Unlock()
		return State{}, ErrJobActive
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	job := jobParams{
		id:         uuid.NewString(),
		sourcePath: req.SourcePath,
		outputDir:  outputDir,
		outputName: req.OutputName,
		profile:    prof,
		audioMode:  audioMode,
		subtitles:  subtitles,
	}
	c.cancel = cancel
	c.done = make(chan struct{})
	c.state = State{
		JobID:      job.id,
		SourcePath: job.sourcePath,
		Format:     job.profile.Format,
		Phase:      PhaseStarting,
		Message:    "scanning source volume",
		UpdatedAt:  time.Now(),
	}
	snapshot := c.state
	done := c.done
	c.mu.Unlock()

	c.hub.publish(snapshot)
	c.logger.Info("job admitted",
		logging.String(logging.FieldJobID, job.id),
		logging.String("source", job.sourcePath),
		logging.String("format", job.profile.Format))

	go func() {
		defer close(done)
		defer cancel()
		c.run(jobCtx, job)
	}()
	return snapshot, nil
}

// --- worker ---

type jobParams struct {
	id         string
	sourcePath string
	outputDir  string
	outputName string
	profile    profile.Profile
	audioMode  command.AudioMode
	subtitles  bool
}

// run drives one job end to end. It is the sole writer of controller state
// while it lives.
func (c *Controller) run(ctx context.Context, job jobParams) {
	log := c.logger.With(logging.String(logging.FieldJobID, job.id))

	segments, err := catalog.Scan(job.sourcePath)
	if err != nil {
		c.fail(ctx, job, fmt.Errorf("scan source: %w", err))
		return
	}
	log.Info("segments catalogued", logging.Int("count", len(segments)))

	c.transition(PhaseInspecting, progressInspecting, "inspecting source streams", nil)
	info, err := c.inspector.Inspect(ctx, job.sourcePath, segments)
	if err != nil {
		// Inspection failure degrades to fallback defaults; the job goes on.
		log.Warn("inspection failed, converting with defaults", logging.Error(err))
	}

	outputPath, err := c.resolveOutputPath(job, info.Title)
	if err != nil {
		c.fail(ctx, job, err)
		return
	}

	plan, err := command.BuildPlan(command.Request{
		JobID:      job.id,
		Segments:   segments,
		Title:      info,
		Profile:    job.profile,
		AudioMode:  job.audioMode,
		Subtitles:  job.subtitles,
		TempDir:    c.cfg.Paths.TempDir,
		OutputPath: outputPath,
		Binary:     c.cfg.Engine.FFmpegBinary,
	})
	if err != nil {
		c.fail(ctx, job, err)
		return
	}

	// Scratch files go away on every exit path, success included.
	defer removeAll(plan.TempFiles(), log)

	if err := c.convertSegments(ctx, job, plan, log); err != nil {
		c.fail(ctx, job, err)
		return
	}

	c.transition(PhaseConcatenating, progressConvertEnd, "combining segments", nil)
	if err := c.concatenate(ctx, plan); err != nil {
		c.fail(ctx, job, err)
		return
	}

	c.complete(ctx, job, outputPath, log)
}

// convertSegments runs Phase A: one transcode per segment, in catalog order.
// Per-segment progress from the engine's diagnostic stream is folded into the
// overall bar.
func (c *Controller) convertSegments(ctx context.Context, job jobParams, plan command.Plan, log *slog.Logger) error {
	total := len(plan.Segments)
	span := progressConvertEnd - progressInspecting

	for i, inv := range plan.Segments {
		message := fmt.Sprintf("converting segment %d of %d", i+1, total)
		base := progressInspecting + span*float64(i)/float64(total)
		c.transition(PhaseConverting, base, message, nil)
		log.Info("segment transcode starting",
			logging.Int(logging.FieldSegment, i+1),
			logging.String("output", inv.Output))

		monitor := progress.NewMonitor()
		onLine := func(line string) {
			sample, ok := monitor.ObserveLine(line)
			if !ok || !sample.HasPercent {
				return
			}
			overall := base + span*sample.Percent/100/float64(total)
			c.transition(PhaseConverting, overall, message, nil)
		}

		if err := c.runInvocation(ctx, inv, onLine); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: segment %d of %d: %w", ErrSegmentTranscode, i+1, total, err)
		}
	}
	return nil
}

// concatenate runs Phase B: write the manifest, then stream-copy the encoded
// pieces into the final output.
func (c *Controller) concatenate(ctx context.Context, plan command.Plan) error {
	outputs := make([]string, 0, len(plan.Segments))
	for _, inv := range plan.Segments {
		outputs = append(outputs, inv.Output)
	}
	if err := command.WriteManifest(plan.ManifestPath, outputs); err != nil {
		return fmt.Errorf("%w: %w", ErrConcatenation, err)
	}
	if err := c.runInvocation(ctx, plan.Concat, nil); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrConcatenation, err)
	}
	return nil
}

// runInvocation executes one engine command under the per-phase timeout.
func (c *Controller) runInvocation(ctx context.Context, inv command.Invocation, onLine func(string)) error {
	if timeout := c.cfg.Engine.PhaseTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}
	return c.exec.Run(ctx, inv.Binary, inv.Args, onLine)
}

// complete stamps the terminal success state: output size from the filesystem
// and a best-effort duration re-probe of the finished file.
func (c *Controller) complete(ctx context.Context, job jobParams, outputPath string, log *slog.Logger) {
	var size int64
	if fi, err := os.Stat(outputPath); err == nil {
		size = fi.Size()
	}

	var duration float64
	probeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if result, err := c.probe(probeCtx, c.cfg.Engine.FFprobeBinary, outputPath); err == nil {
		duration = result.DurationSeconds()
	} else {
		log.Warn("output duration probe failed", logging.Error(err))
	}
	cancel()

	c.transition(PhaseCompleted, 100, "conversion complete", func(s *State) {
		s.OutputFile = outputPath
		s.OutputSize = size
		s.OutputDuration = duration
	})
	log.Info("job completed",
		logging.String("output", outputPath),
		logging.Int64("size_bytes", size),
		logging.Float64("duration_seconds", duration))
	c.record(ctx)
}

// fail stamps the terminal failure state. A cancelled job context yields the
// cancelled phase instead of error.
func (c *Controller) fail(ctx context.Context, job jobParams, err error) {
	if ctx.Err() != nil {
		c.transition(PhaseCancelled, -1, "cancelled by request", func(s *State) {
			s.Error = ""
		})
		c.logger.Info("job cancelled", logging.String(logging.FieldJobID, job.id))
	} else {
		c.transition(PhaseError, -1, "conversion failed", func(s *State) {
			s.Error = err.Error()
		})
		c.logger.Error("job failed",
			logging.String(logging.FieldJobID, job.id),
			logging.Error(err))
	}
	c.record(ctx)
}

// transition applies one state change and publishes the snapshot. A negative
// progress keeps the previous value; progress never regresses within a job.
func (c *Controller) transition(phase Phase, percent float64, message string, mutate func(*State)) {
	c.mu.Lock()
	if percent < 0 || percent < c.state.Progress {
		percent = c.state.Progress
	}
	if percent > 100 {
		percent = 100
	}
	c.state.Phase = phase
	c.state.Progress = percent
	c.state.Message = message
	c.state.UpdatedAt = time.Now()
	if mutate != nil {
		mutate(&c.state)
	}
	snapshot := c.state
	c.mu.Unlock()

	c.hub.publish(snapshot)
}

// record hands the terminal snapshot to the recorder, best effort.
func (c *Controller) record(ctx context.Context) {
	if c.recorder == nil {
		return
	}
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := c.recorder.Record(recordCtx, c.Status()); err != nil {
		c.logger.Warn("record job outcome", logging.Error(err))
	}
}

// resolveOutputPath derives the final output location. An explicit output name
// wins; otherwise the sanitized title plus a timestamp keeps repeated runs
// from clobbering each other. The extension always matches the target format.
func (c *Controller) resolveOutputPath(job jobParams, title string) (string, error) {
	name := strings.TrimSpace(job.outputName)
	if name == "" {
		name = fmt.Sprintf("%s_%s", title, time.Now().Format("20060102_150405"))
	}
	ext := "." + job.profile.Format
	if !strings.HasSuffix(strings.ToLower(name), ext) {
		name += ext
	}
	if job.outputDir == "" {
		return "", errors.New("output directory required")
	}
	if err := os.MkdirAll(job.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return filepath.Join(job.outputDir, name), nil
}

func removeAll(paths []string, log *slog.Logger) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("remove scratch file", logging.String("path", path), logging.Error(err))
		}
	}
}
