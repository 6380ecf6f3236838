package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"livelens/internal/config"
	"livelens/internal/logging"
	"livelens/internal/services"
)

// ClipRequest identifies one highlight clip to render.
type ClipRequest struct {
	ClipID      string
	VideoID     string
	BlobURL     string
	TimeStart   float64
	TimeEnd     float64
	PhaseIndex  int
	SpeedFactor float64
}

// Clipper renders highlight clips from analyzed videos.
type Clipper struct {
	cfg        *config.Config
	media      Media
	downloader *Downloader
	logger     *slog.Logger
}

// NewClipper wires a clipper from configuration.
func NewClipper(cfg *config.Config, media Media, logger *slog.Logger) (*Clipper, error) {
	if cfg == nil || media == nil {
		return nil, fmt.Errorf("clipper requires config and media")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Clipper{
		cfg:        cfg,
		media:      media,
		downloader: NewDownloader(0),
		logger:     logging.NewComponentLogger(logger, "clipper"),
	}, nil
}

// Run resolves the source video and renders the clip into the work dir.
// It returns the rendered clip path.
func (c *Clipper) Run(ctx context.Context, req ClipRequest) (string, error) {
	if req.ClipID == "" || req.VideoID == "" {
		return "", services.Wrap(services.ErrValidation, "clipper", "clip", "clip id and video id are required", nil)
	}
	if req.TimeEnd <= req.TimeStart {
		return "", services.Wrap(services.ErrValidation, "clipper", "clip",
			fmt.Sprintf("empty time range [%.2f, %.2f]", req.TimeStart, req.TimeEnd), nil)
	}
	ctx = services.WithVideoID(ctx, req.VideoID)
	logger := c.logger.With(
		logging.String("clip_id", req.ClipID),
		logging.String("video_id", req.VideoID))
	started := time.Now()

	work := c.cfg.Paths.WorkDir
	source, err := c.downloader.ResolveVideo(ctx,
		filepath.Join(work, "videos", req.VideoID+".mp4"), "", req.BlobURL)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(work, "clips", req.ClipID+".mp4")
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create clip directory: %w", err)
	}
	if err := c.media.Clip(ctx, source, dest, req.TimeStart, req.TimeEnd, req.SpeedFactor); err != nil {
		return "", services.Wrap(services.ErrSubprocess, "clipper", "clip", "render clip", err)
	}

	logger.Info("clip rendered",
		logging.String("path", dest),
		logging.Float64("time_start", req.TimeStart),
		logging.Float64("time_end", req.TimeEnd),
		logging.Duration("elapsed", time.Since(started)))
	return dest, nil
}
