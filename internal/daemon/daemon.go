package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"platter/internal/config"
	"platter/internal/controller"
	"platter/internal/deps"
	"platter/internal/discdetect"
	"platter/internal/history"
	"platter/internal/logging"
	"platter/internal/preflight"
)

// Daemon ties the conversion controller, disc monitor, and HTTP API into one
// lifecycle with flock-based locking so only a single instance runs per log
// directory.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	ctrl   *controller.Controller
	store  *history.Store

	monitor *discdetect.Monitor
	api     *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	Job           controller.State
	HistoryDBPath string
	LockFilePath  string
	Dependencies  []deps.Status
	Preflight     []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, ctrl *controller.Controller, store *history.Store) (*Daemon, error) {
	if cfg == nil || ctrl == nil {
		return nil, errors.New("daemon requires config and controller")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "platterd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		ctrl:     ctrl,
		store:    store,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.monitor = discdetect.NewMonitor(cfg.Detection.OpticalDrive, logger, d.onDiscInserted)

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock and launches the monitor and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another platter daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	for _, result := range preflight.RunAll(runCtx, d.cfg) {
		if !result.Passed {
			d.logger.Warn("preflight check failed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
		}
	}

	if err := d.monitor.Start(runCtx); err != nil {
		d.releaseLock()
		cancel()
		return fmt.Errorf("start disc monitor: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		d.monitor.Stop()
		d.releaseLock()
		cancel()
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("platter daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts background processing, waits for any active job to terminate,
// and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.monitor.Stop()
	d.ctrl.Cancel()
	d.ctrl.Wait()
	d.releaseLock()
	d.running.Store(false)
	d.logger.Info("platter daemon stopped")
}

// Close stops the daemon and releases held resources.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon lifecycle is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// APIAddr returns the bound API address, or empty when the API is disabled or
// not started.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status returns current runtime information.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Job:          d.ctrl.Status(),
		LockFilePath: d.lockPath,
		Dependencies: preflight.CheckSystemDeps(d.cfg),
		Preflight:    preflight.RunAll(ctx, d.cfg),
	}
	if d.store != nil {
		status.HistoryDBPath = d.store.Path()
	}
	return status
}

// onDiscInserted reacts to media insertion: the mounted volume roots are
// probed for disc structure and the first structured volume is admitted with
// the configured defaults. An already active job just logs.
func (d *Daemon) onDiscInserted(_ context.Context, device string) {
	volumes := discdetect.StructuredVolumes(d.cfg.Detection.VolumeRoots)
	if len(volumes) == 0 {
		d.logger.Info("disc inserted but no structured volume mounted yet",
			logging.String("device", device))
		return
	}

	source := volumes[0]
	state, err := d.ctrl.Admit(controller.Request{SourcePath: source.Path})
	if err != nil {
		if errors.Is(err, controller.ErrJobActive) {
			d.logger.Info("disc detected while a job is active, ignoring",
				logging.String("volume", source.Path))
		} else {
			d.logger.Warn("auto-admit failed",
				logging.String("volume", source.Path),
				logging.Error(err))
		}
		return
	}
	d.logger.Info("disc conversion started",
		logging.String(logging.FieldJobID, state.JobID),
		logging.String("volume", source.Path))
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock", logging.Error(err))
	}
}
