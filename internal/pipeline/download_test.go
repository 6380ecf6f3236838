package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"livelens/internal/services"
)

func TestDownloaderFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	t.Cleanup(server.Close)

	dest := filepath.Join(t.TempDir(), "nested", "file.bin")
	d := NewDownloader(0)
	if err := d.Fetch(context.Background(), server.URL, dest); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "payload" {
		t.Fatalf("read %q, err %v", data, err)
	}
}

func TestDownloaderFetchRejectsNon200(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	d := NewDownloader(0)
	err := d.Fetch(context.Background(), server.URL, filepath.Join(t.TempDir(), "x"))
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !errors.Is(err, services.ErrExternalAPI) {
		t.Fatalf("expected external API marker, got %v", err)
	}
}

func TestResolveVideoPrefersCache(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(dest, []byte("cached"), 0o644); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	d := NewDownloader(0)
	// No server: a network hit would fail, so success proves cache use.
	path, err := d.ResolveVideo(context.Background(), dest, "", "http://127.0.0.1:1/video.mp4")
	if err != nil || path != dest {
		t.Fatalf("ResolveVideo = %q, %v", path, err)
	}
}

func TestResolveVideoPrefersLocalPath(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "recording.mp4")
	if err := os.WriteFile(local, []byte("local"), 0o644); err != nil {
		t.Fatalf("seed local file: %v", err)
	}
	d := NewDownloader(0)
	// An explicit path wins over both the cache slot and the URL.
	path, err := d.ResolveVideo(context.Background(), filepath.Join(dir, "video.mp4"), local, "http://127.0.0.1:1/video.mp4")
	if err != nil || path != local {
		t.Fatalf("ResolveVideo = %q, %v", path, err)
	}
}

func TestResolveVideoRejectsMissingLocalPath(t *testing.T) {
	d := NewDownloader(0)
	_, err := d.ResolveVideo(context.Background(), filepath.Join(t.TempDir(), "video.mp4"), "/nonexistent/recording.mp4", "")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveVideoRequiresURLWhenUncached(t *testing.T) {
	d := NewDownloader(0)
	_, err := d.ResolveVideo(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), "", "")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSheetDest(t *testing.T) {
	dir := t.TempDir()
	got := sheetDest(dir, "vid", "products", "https://example.com/catalog.xlsx?sig=abc")
	if filepath.Base(got) != "vid_products.xlsx" {
		t.Fatalf("sheetDest = %q", got)
	}
	got = sheetDest(dir, "vid", "trends", "https://example.com/export")
	if filepath.Base(got) != "vid_trends.csv" {
		t.Fatalf("default extension: %q", got)
	}
}
