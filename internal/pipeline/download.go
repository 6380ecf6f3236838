package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"livelens/internal/services"
)

// Downloader fetches blob URLs into local files.
type Downloader struct {
	client *http.Client
}

// NewDownloader builds a downloader. A zero timeout defaults to 30 minutes,
// sized for full livestream recordings.
func NewDownloader(timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &Downloader{client: &http.Client{Timeout: timeout}}
}

// Fetch streams rawURL into dest. The write goes through a temp file so a
// partial download never masquerades as a complete one.
func (d *Downloader) Fetch(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "pipeline", "download", "build request", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalAPI, "pipeline", "download", "fetch "+rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrExternalAPI, "pipeline", "download",
			fmt.Sprintf("fetch %s: status %d", rawURL, resp.StatusCode), nil)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return services.Wrap(services.ErrExternalAPI, "pipeline", "download", "stream body", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), dest)
}

// ResolveVideo returns a local video path. An explicit localPath wins, then
// the cached dest, then a download from blobURL.
func (d *Downloader) ResolveVideo(ctx context.Context, dest, localPath, blobURL string) (string, error) {
	if localPath != "" {
		if _, err := os.Stat(localPath); err != nil {
			return "", services.Wrap(services.ErrValidation, "pipeline", "resolve",
				"video path "+localPath, err)
		}
		return localPath, nil
	}
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}
	if blobURL == "" {
		return "", services.Wrap(services.ErrValidation, "pipeline", "resolve",
			"no cached video and no blob URL", nil)
	}
	if err := d.Fetch(ctx, blobURL, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func urlPath(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return parsed.Path
}
