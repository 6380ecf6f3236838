package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"livelens/internal/config"
	"livelens/internal/exposure"
	"livelens/internal/grouping"
	"livelens/internal/logging"
)

// Media covers the ffmpeg operations the pipeline needs.
type Media interface {
	ExtractFrames(ctx context.Context, source, outDir string) ([]string, error)
	ExtractAudio(ctx context.Context, source, dest string) error
	SceneTimes(ctx context.Context, source string) ([]float64, error)
	Duration(ctx context.Context, source string) (float64, error)
	Clip(ctx context.Context, source, dest string, start, end, speed float64) error
}

// Vision detects catalog products in a single frame image.
type Vision interface {
	DetectFrame(ctx context.Context, imagePath string, frameIndex int, prompt string) ([]exposure.FrameDetection, error)
}

// Speech transcribes an audio file into timestamped segments.
type Speech interface {
	Transcribe(ctx context.Context, audioPath string) ([]exposure.TranscriptSegment, error)
}

// Embedder turns texts into embedding vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
}

// Analyzer orchestrates the video analysis steps.
type Analyzer struct {
	cfg        *config.Config
	media      Media
	vision     Vision
	speech     Speech
	embedder   Embedder
	groups     *grouping.FileStore
	bestPhases *grouping.BestPhaseStore
	downloader *Downloader
	logger     *slog.Logger
}

// NewAnalyzer wires an analyzer from configuration and collaborators.
func NewAnalyzer(cfg *config.Config, media Media, vision Vision, speech Speech, embedder Embedder, logger *slog.Logger) (*Analyzer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("analyzer requires config")
	}
	if media == nil {
		return nil, fmt.Errorf("analyzer requires a media processor")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{
		cfg:        cfg,
		media:      media,
		vision:     vision,
		speech:     speech,
		embedder:   embedder,
		groups:     grouping.NewFileStore(cfg.GroupStorePath()),
		bestPhases: grouping.NewBestPhaseStore(cfg.BestPhasePath()),
		downloader: NewDownloader(0),
		logger:     logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// workPaths resolves the per-video working locations under the work dir.
type workPaths struct {
	video    string
	frames   string
	audio    string
	report   string
	sheets   string
	clipsDir string
}

func (a *Analyzer) paths(videoID string) workPaths {
	work := a.cfg.Paths.WorkDir
	return workPaths{
		video:    filepath.Join(work, "videos", videoID+".mp4"),
		frames:   filepath.Join(work, "frames", videoID),
		audio:    filepath.Join(work, "audio", videoID+".wav"),
		report:   filepath.Join(work, "reports", videoID+".json"),
		sheets:   filepath.Join(work, "sheets"),
		clipsDir: filepath.Join(work, "clips"),
	}
}

// sheetDest derives a local path for a downloaded spreadsheet, keeping the
// source extension so the loader can pick the right reader.
func sheetDest(dir, videoID, kind, rawURL string) string {
	ext := strings.ToLower(filepath.Ext(urlPath(rawURL)))
	switch ext {
	case ".csv", ".xlsx", ".xlsm":
	default:
		ext = ".csv"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", videoID, kind, ext))
}
