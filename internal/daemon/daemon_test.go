package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"livelens/internal/config"
	"livelens/internal/queue"
	"livelens/internal/scheduler"
)

func testDaemon(t *testing.T) *Daemon {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(dir, "work")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.GroupDir = filepath.Join(dir, "groups")
	cfg.Paths.APIBind = "127.0.0.1:0"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	store, err := queue.OpenPath(cfg.QueueDBPath())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	noop := scheduler.RunnerFunc(func(context.Context, queue.Job) error { return nil })
	sched := scheduler.New(&cfg, store, noop, nil)

	d, err := New(&cfg, store, sched, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestStartRejectsSecondInstance(t *testing.T) {
	d := testDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)

	second, err := New(d.cfg, d.store, scheduler.New(d.cfg, d.store,
		scheduler.RunnerFunc(func(context.Context, queue.Job) error { return nil }), nil), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second instance to fail lock acquisition")
	}
}

func TestStopReleasesLock(t *testing.T) {
	d := testDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	d.Stop()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("restart after Stop: %v", err)
	}
	d.Stop()
}

func TestStatusSnapshot(t *testing.T) {
	ctx := context.Background()
	d := testDaemon(t)
	if _, err := d.store.Enqueue(ctx, queue.Job{VideoID: "abc", BlobURL: "http://x/y.mp4"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	status, err := d.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Running {
		t.Fatal("expected not running before Start")
	}
	if status.Queue.Total != 1 || status.Queue.Visible != 1 {
		t.Fatalf("unexpected queue stats %+v", status.Queue)
	}
	if status.MaxWorkers != d.cfg.Queue.MaxWorkers {
		t.Fatalf("max workers %d", status.MaxWorkers)
	}
}

func TestAPIEndpoints(t *testing.T) {
	ctx := context.Background()
	d := testDaemon(t)
	if _, err := d.store.Enqueue(ctx, queue.Job{VideoID: "abc", BlobURL: "http://x/y.mp4"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	api := NewAPIServer(d, nil)
	ts := httptest.NewServer(api.routes())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code %d", resp.StatusCode)
	}
	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Queue.Total != 1 {
		t.Fatalf("unexpected status %+v", status)
	}

	qr, err := http.Get(ts.URL + "/api/queue")
	if err != nil {
		t.Fatalf("GET queue: %v", err)
	}
	defer qr.Body.Close()
	var qv queueView
	if err := json.NewDecoder(qr.Body).Decode(&qv); err != nil {
		t.Fatalf("decode queue: %v", err)
	}
	if len(qv.Messages) != 1 || qv.Stats.Total != 1 {
		t.Fatalf("unexpected queue view %+v", qv)
	}

	gr, err := http.Get(ts.URL + "/api/groups")
	if err != nil {
		t.Fatalf("GET groups: %v", err)
	}
	defer gr.Body.Close()
	var gv groupsView
	if err := json.NewDecoder(gr.Body).Decode(&gv); err != nil {
		t.Fatalf("decode groups: %v", err)
	}
	if gv.Groups == nil {
		t.Fatal("groups must decode to an empty slice")
	}
}
