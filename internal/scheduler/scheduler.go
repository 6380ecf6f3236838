package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"livelens/internal/config"
	"livelens/internal/logging"
	"livelens/internal/queue"
)

// Scheduler owns the poll loop and worker pool.
type Scheduler struct {
	store  *queue.Store
	runner Runner
	logger *slog.Logger

	pollInterval  time.Duration
	errorInterval time.Duration
	maxWorkers    int
	batchCap      int
	visibility    time.Duration

	mu      sync.Mutex
	active  map[string]struct{}
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	workers sync.WaitGroup
}

// New builds a scheduler from configuration.
func New(cfg *config.Config, store *queue.Store, runner Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		store:         store,
		runner:        runner,
		logger:        logging.NewComponentLogger(logger, "scheduler"),
		pollInterval:  time.Duration(cfg.Queue.PollInterval) * time.Second,
		errorInterval: time.Duration(cfg.Queue.ErrorRetryInterval) * time.Second,
		maxWorkers:    cfg.Queue.MaxWorkers,
		batchCap:      cfg.Queue.BatchCap,
		visibility:    time.Duration(cfg.Queue.VisibilityTimeout) * time.Second,
		active:        map[string]struct{}{},
	}
}

// Start launches the poll loop. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("scheduler already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go s.pollLoop(runCtx)

	s.logger.Info("scheduler started",
		logging.Int("max_workers", s.maxWorkers),
		logging.Duration("poll_interval", s.pollInterval),
		logging.Duration("visibility_timeout", s.visibility))
	return nil
}

// Stop cancels polling and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()

	if active := s.ActiveCount(); active > 0 {
		s.logger.Info("waiting for active jobs", logging.Int("count", active))
	}
	s.workers.Wait()
	s.logger.Info("scheduler stopped")
}

// Running reports whether the poll loop is live.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ActiveCount returns the number of jobs currently executing.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// ActiveKeys returns the job keys currently executing.
func (s *Scheduler) ActiveKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.active))
	for key := range s.active {
		keys = append(keys, key)
	}
	return keys
}

func (s *Scheduler) pollLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		interval := s.pollInterval
		if err := s.pollOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("poll failed", logging.Error(err))
			interval = s.errorInterval
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// pollOnce receives up to the free worker count (capped at the batch size),
// deletes each message, and dispatches its job. Undecodable messages are
// left in place so they resurface after the visibility timeout instead of
// being lost silently.
func (s *Scheduler) pollOnce(ctx context.Context) error {
	free := s.freeSlots()
	if free == 0 {
		return nil
	}
	batch := min(free, s.batchCap)

	messages, err := s.store.Receive(ctx, batch, s.visibility)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		job, err := queue.DecodeJob(msg.Payload)
		if err != nil {
			s.logger.Error("undecodable message left for redelivery",
				logging.String("message_id", msg.ID),
				logging.Error(err))
			continue
		}
		if err := job.Validate(); err != nil {
			s.logger.Error("invalid job discarded",
				logging.String("message_id", msg.ID),
				logging.Error(err))
			if err := s.store.Delete(ctx, msg.ID); err != nil {
				s.logger.Error("delete invalid message", logging.Error(err))
			}
			continue
		}

		key := job.Key()
		if !s.claim(key) {
			s.logger.Info("duplicate job already in progress",
				logging.String("job", key))
			continue
		}

		// Ack before dispatch: a failed job is not retried automatically.
		if err := s.store.Delete(ctx, msg.ID); err != nil {
			s.release(key)
			s.logger.Error("delete message before dispatch",
				logging.String("message_id", msg.ID),
				logging.Error(err))
			continue
		}

		s.logger.Info("job dispatched",
			logging.String("job", key),
			logging.String("type", job.Kind()),
			logging.Int("active", s.ActiveCount()),
			logging.Int("max_workers", s.maxWorkers))

		s.workers.Add(1)
		go func(job queue.Job, key string) {
			defer s.workers.Done()
			defer s.release(key)
			// Stop cancels only the poll loop; a dispatched job always
			// runs to completion before Stop returns.
			jobCtx := context.WithoutCancel(ctx)
			start := time.Now()
			if err := s.runner.Run(jobCtx, job); err != nil {
				s.logger.Error("job failed",
					logging.String("job", key),
					logging.Duration("elapsed", time.Since(start)),
					logging.Error(err))
				return
			}
			s.logger.Info("job completed",
				logging.String("job", key),
				logging.Duration("elapsed", time.Since(start)))
		}(job, key)
	}
	return nil
}

func (s *Scheduler) freeSlots() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	free := s.maxWorkers - len(s.active)
	if free < 0 {
		return 0
	}
	return free
}

func (s *Scheduler) claim(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.active[key]; busy {
		return false
	}
	s.active[key] = struct{}{}
	return true
}

func (s *Scheduler) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, key)
}
