package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"livelens/internal/config"
	"livelens/internal/queue"
)

func testConfig(t *testing.T, workers int) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Queue.MaxWorkers = workers
	cfg.Queue.PollInterval = 1
	cfg.Queue.BatchCap = 5
	return &cfg
}

func openStore(t *testing.T) *queue.Store {
	t.Helper()
	store, err := queue.OpenPath(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

type recordingRunner struct {
	mu      sync.Mutex
	jobs    []queue.Job
	started chan struct{}
	release chan struct{}
}

func (r *recordingRunner) Run(_ context.Context, job queue.Job) error {
	r.mu.Lock()
	r.jobs = append(r.jobs, job)
	r.mu.Unlock()
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.release != nil {
		<-r.release
	}
	return nil
}

func (r *recordingRunner) ran() []queue.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]queue.Job(nil), r.jobs...)
}

func TestPollDispatchesAndAcks(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	runner := &recordingRunner{}
	s := New(testConfig(t, 1), store, runner, nil)

	job := queue.Job{VideoID: "abc", BlobURL: "http://x/y.mp4"}
	if _, err := store.Enqueue(ctx, job); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if err := s.pollOnce(ctx); err != nil {
		t.Fatalf("pollOnce: %v", err)
	}
	s.workers.Wait()

	ran := runner.ran()
	if len(ran) != 1 || ran[0].VideoID != "abc" || ran[0].BlobURL != "http://x/y.mp4" {
		t.Fatalf("unexpected jobs %v", ran)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 0 {
		t.Fatalf("message not acked: %+v", stats)
	}
	if s.ActiveCount() != 0 {
		t.Fatalf("active count %d after completion", s.ActiveCount())
	}
}

func TestPollSkipsDuplicateJobs(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	runner := &recordingRunner{started: make(chan struct{}, 2), release: make(chan struct{})}
	s := New(testConfig(t, 3), store, runner, nil)

	job := queue.Job{VideoID: "abc", BlobURL: "http://x/y.mp4"}
	for i := 0; i < 2; i++ {
		if _, err := store.Enqueue(ctx, job); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	if err := s.pollOnce(ctx); err != nil {
		t.Fatalf("pollOnce: %v", err)
	}

	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("job never started")
	}
	if s.ActiveCount() != 1 {
		t.Fatalf("active count %d, want 1", s.ActiveCount())
	}

	// The duplicate stays queued, hidden until its visibility deadline.
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 1 {
		t.Fatalf("expected duplicate left in queue, got %+v", stats)
	}

	close(runner.release)
	s.workers.Wait()
	if got := len(runner.ran()); got != 1 {
		t.Fatalf("duplicate executed: %d runs", got)
	}
}

func TestPollRespectsWorkerLimit(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	runner := &recordingRunner{started: make(chan struct{}, 1), release: make(chan struct{})}
	s := New(testConfig(t, 1), store, runner, nil)

	for _, id := range []string{"vid-1", "vid-2"} {
		if _, err := store.Enqueue(ctx, queue.Job{VideoID: id, BlobURL: "http://x/" + id}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	if err := s.pollOnce(ctx); err != nil {
		t.Fatalf("pollOnce: %v", err)
	}
	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("job never started")
	}

	// The single slot is busy; polling again must not dispatch.
	if err := s.pollOnce(ctx); err != nil {
		t.Fatalf("second pollOnce: %v", err)
	}
	if got := len(runner.ran()); got != 1 {
		t.Fatalf("worker limit exceeded: %d runs", got)
	}

	close(runner.release)
	s.workers.Wait()
}

// blockedRunner holds a job open until released and records whether the
// job's context was cancelled out from under it.
type blockedRunner struct {
	started   chan struct{}
	release   chan struct{}
	mu        sync.Mutex
	cancelled bool
}

func (r *blockedRunner) Run(ctx context.Context, _ queue.Job) error {
	close(r.started)
	select {
	case <-ctx.Done():
	case <-r.release:
	}
	r.mu.Lock()
	r.cancelled = ctx.Err() != nil
	r.mu.Unlock()
	return ctx.Err()
}

func (r *blockedRunner) wasCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

func TestStopWaitsForActiveJobs(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	runner := &blockedRunner{started: make(chan struct{}), release: make(chan struct{})}
	s := New(testConfig(t, 1), store, runner, nil)

	if _, err := store.Enqueue(ctx, queue.Job{VideoID: "abc", BlobURL: "http://x/y.mp4"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-runner.started:
	case <-time.After(5 * time.Second):
		t.Fatal("job never started")
	}

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	// The poll loop exits only after Stop's cancellation has propagated;
	// the running job must still be untouched at that point.
	s.wg.Wait()
	close(runner.release)

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop never returned")
	}
	if runner.wasCancelled() {
		t.Fatal("graceful stop cancelled an in-flight job")
	}
	if s.ActiveCount() != 0 {
		t.Fatalf("active count %d after stop", s.ActiveCount())
	}
}

func TestStartStop(t *testing.T) {
	store := openStore(t)
	runner := &recordingRunner{}
	s := New(testConfig(t, 2), store, runner, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("second Start must fail")
	}
	if !s.Running() {
		t.Fatal("expected running state")
	}

	s.Stop()
	if s.Running() {
		t.Fatal("expected stopped state")
	}
	// Stop again is a no-op.
	s.Stop()
}
