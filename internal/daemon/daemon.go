package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"livelens/internal/config"
	"livelens/internal/grouping"
	"livelens/internal/logging"
	"livelens/internal/queue"
	"livelens/internal/scheduler"
)

// Daemon owns the scheduler lifecycle and enforces single-instance
// execution through a lock file.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *queue.Store
	sched  *scheduler.Scheduler
	groups *grouping.FileStore

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	started time.Time
}

// Status reports daemon runtime information.
type Status struct {
	Running       bool        `json:"running"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	ActiveJobs    []string    `json:"active_jobs"`
	MaxWorkers    int         `json:"max_workers"`
	Queue         queue.Stats `json:"queue"`
	QueueDBPath   string      `json:"queue_db_path"`
	LockFilePath  string      `json:"lock_file_path"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, sched *scheduler.Scheduler, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || sched == nil {
		return nil, errors.New("daemon requires config, store, and scheduler")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockFilePath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		sched:    sched,
		groups:   grouping.NewFileStore(cfg.GroupStorePath()),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the scheduler.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !ok {
		return errors.New("another livelens daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.sched.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel
	d.started = time.Now()
	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts the scheduler down and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.sched.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and closes the queue store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Status collects a snapshot of daemon and queue state.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		return Status{}, err
	}
	status := Status{
		Running:      d.running.Load(),
		ActiveJobs:   d.sched.ActiveKeys(),
		MaxWorkers:   d.cfg.Queue.MaxWorkers,
		Queue:        stats,
		QueueDBPath:  d.cfg.QueueDBPath(),
		LockFilePath: d.lockPath,
	}
	if status.Running {
		status.UptimeSeconds = int64(time.Since(d.started).Seconds())
	}
	return status, nil
}

// ListQueue returns every message currently in the queue.
func (d *Daemon) ListQueue(ctx context.Context) ([]queue.Message, error) {
	return d.store.List(ctx)
}

// ListGroups returns the persisted cluster groups.
func (d *Daemon) ListGroups(ctx context.Context) ([]grouping.Group, error) {
	return d.groups.Load(ctx)
}
