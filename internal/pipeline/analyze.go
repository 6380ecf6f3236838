package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"livelens/internal/exposure"
	"livelens/internal/grouping"
	"livelens/internal/logging"
	"livelens/internal/services"
	"livelens/internal/services/vision"
	"livelens/internal/sheet"
	"livelens/internal/timeline"
	"livelens/internal/trends"
)

// AnalyzeRequest identifies the video and optional spreadsheet inputs. The
// video comes from VideoPath when set, otherwise from BlobURL.
type AnalyzeRequest struct {
	VideoID         string
	BlobURL         string
	VideoPath       string
	ProductSheetURL string
	TrendSheetURL   string
}

// AnalyzeResult summarizes a completed analysis run.
type AnalyzeResult struct {
	VideoID         string
	DurationSec     float64
	Exposures       []exposure.Segment
	DroppedSegments int
	PhaseUnits      []PhaseUnit
	ReportPath      string
}

// Run executes the full analysis flow for one video. Collaborator failures
// degrade the result (fewer detections, empty transcript, no grouping)
// rather than aborting; only input resolution and frame extraction are
// fatal.
func (a *Analyzer) Run(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	if req.VideoID == "" {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "analyze", "video id is required", nil)
	}
	ctx = services.WithVideoID(ctx, req.VideoID)
	logger := a.logger.With(logging.String("video_id", req.VideoID))
	started := time.Now()
	paths := a.paths(req.VideoID)

	videoPath, err := a.downloader.ResolveVideo(ctx, paths.video, req.VideoPath, req.BlobURL)
	if err != nil {
		return nil, err
	}

	products, trendRows := a.loadSheets(ctx, req, paths, logger)

	frames, err := a.media.ExtractFrames(ctx, videoPath, paths.frames)
	if err != nil {
		return nil, services.Wrap(services.ErrSubprocess, "pipeline", "extract_frames", "frame extraction", err)
	}
	logger.Info("frames extracted", logging.Int("count", len(frames)))

	duration, err := a.media.Duration(ctx, videoPath)
	if err != nil || duration <= 0 {
		// One frame per second makes the frame count a serviceable stand-in.
		duration = float64(len(frames))
		logger.Warn("duration probe failed, using frame count",
			logging.Float64("duration", duration), logging.Error(err))
	}

	phases := a.detectPhases(ctx, videoPath, duration, logger)
	ranges := a.importantRanges(trendRows, duration, logger)
	phases = MarkImportant(phases, ranges)

	detections := a.detectProducts(ctx, frames, ranges, products, logger)
	transcript := a.transcribe(ctx, videoPath, paths.audio, logger)

	segments := exposure.BuildSegments(detections, exposure.SegmentOptions{
		SampleInterval:      a.cfg.Detection.SampleInterval,
		ConfidenceThreshold: a.cfg.Detection.ConfidenceThreshold,
		MinDuration:         a.cfg.Detection.MinDuration,
	})
	fused := exposure.FuseTranscript(segments, transcript, products,
		exposure.FuseOptions{GatherMargin: a.cfg.Detection.FusionMargin}, logger)
	filtered, dropped := exposure.PostFilter(fused)
	enriched := exposure.FillBrandInfo(filtered, products)
	logger.Info("exposures built",
		logging.Int("segments", len(enriched)),
		logging.Int("dropped", dropped))

	units := BuildPhaseUnits(phases, enriched, transcript)
	a.assignGroups(ctx, req.VideoID, units, logger)

	reportPath, err := a.writeReport(req.VideoID, duration, enriched, dropped, units, paths.report)
	if err != nil {
		return nil, err
	}

	logger.Info("analysis complete",
		logging.Int("phases", len(units)),
		logging.Int("exposures", len(enriched)),
		logging.Duration("elapsed", time.Since(started)))

	return &AnalyzeResult{
		VideoID:         req.VideoID,
		DurationSec:     duration,
		Exposures:       enriched,
		DroppedSegments: dropped,
		PhaseUnits:      units,
		ReportPath:      reportPath,
	}, nil
}

// loadSheets downloads and parses the product and trend spreadsheets.
// Either sheet failing leaves its slice empty; analysis proceeds without it.
func (a *Analyzer) loadSheets(ctx context.Context, req AnalyzeRequest, paths workPaths, logger *slog.Logger) ([]sheet.Product, []trends.Row) {
	var products []sheet.Product
	if req.ProductSheetURL != "" {
		dest := sheetDest(paths.sheets, req.VideoID, "products", req.ProductSheetURL)
		if rows, err := a.fetchSheet(ctx, req.ProductSheetURL, dest); err != nil {
			logger.Warn("product sheet unavailable", logging.Error(err))
		} else {
			products = sheet.Products(rows)
			logger.Info("product sheet loaded", logging.Int("products", len(products)))
		}
	}

	var trendRows []trends.Row
	if req.TrendSheetURL != "" {
		dest := sheetDest(paths.sheets, req.VideoID, "trends", req.TrendSheetURL)
		if rows, err := a.fetchSheet(ctx, req.TrendSheetURL, dest); err != nil {
			logger.Warn("trend sheet unavailable", logging.Error(err))
		} else {
			trendRows = rows
			logger.Info("trend sheet loaded", logging.Int("rows", len(rows)))
		}
	}
	return products, trendRows
}

func (a *Analyzer) fetchSheet(ctx context.Context, rawURL, dest string) ([]trends.Row, error) {
	if err := a.downloader.Fetch(ctx, rawURL, dest); err != nil {
		return nil, err
	}
	return sheet.Load(dest)
}

// detectPhases runs scene detection. A failure collapses the video into a
// single phase instead of aborting.
func (a *Analyzer) detectPhases(ctx context.Context, videoPath string, duration float64, logger *slog.Logger) []Phase {
	sceneTimes, err := a.media.SceneTimes(ctx, videoPath)
	if err != nil {
		logger.Warn("scene detection failed, using a single phase", logging.Error(err))
		sceneTimes = nil
	}
	phases := BuildPhases(sceneTimes, duration)
	logger.Info("phases detected", logging.Int("count", len(phases)))
	return phases
}

func (a *Analyzer) importantRanges(trendRows []trends.Row, duration float64, logger *slog.Logger) []timeline.Range {
	if len(trendRows) == 0 {
		return nil
	}
	scorer := trends.NewScorer(trends.DefaultRules(), a.logger)
	opts := trends.DefaultRangeOptions()
	if a.cfg.Importance.MarginSec > 0 {
		opts.MarginSec = a.cfg.Importance.MarginSec
	}
	if a.cfg.Importance.MinScore > 0 {
		opts.MinScore = a.cfg.Importance.MinScore
	}
	ranges, err := scorer.ImportantTimeRanges(trendRows, duration, opts)
	if err != nil {
		logger.Warn("importance scoring failed, analyzing everything", logging.Error(err))
		return nil
	}
	logger.Info("importance ranges computed", logging.Int("ranges", len(ranges)))
	return ranges
}

// detectProducts runs vision detection over the sampled frames that fall in
// an important range. Per-frame failures are skipped.
func (a *Analyzer) detectProducts(ctx context.Context, frames []string, ranges []timeline.Range, products []sheet.Product, logger *slog.Logger) []exposure.FrameDetection {
	if a.vision == nil || len(products) == 0 || len(frames) == 0 {
		return nil
	}
	prompt := vision.BuildPrompt(products)
	interval := a.cfg.Detection.SampleInterval
	sampled := exposure.SelectSampleFrames(len(frames), interval)

	var detections []exposure.FrameDetection
	analyzed := 0
	for _, idx := range sampled {
		if !timeline.Overlaps(idx, idx, ranges) {
			continue
		}
		dets, err := a.vision.DetectFrame(ctx, frames[idx], idx, prompt)
		if err != nil {
			logger.Warn("frame detection failed",
				logging.Int("frame", idx), logging.Error(err))
			continue
		}
		analyzed++
		detections = append(detections, dets...)
	}
	logger.Info("vision detection done",
		logging.Int("frames_analyzed", analyzed),
		logging.Int("detections", len(detections)))
	return detections
}

// transcribe extracts the audio track and transcribes it. Any failure
// yields an empty transcript.
func (a *Analyzer) transcribe(ctx context.Context, videoPath, audioPath string, logger *slog.Logger) []exposure.TranscriptSegment {
	if a.speech == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(audioPath), 0o755); err != nil {
		logger.Warn("create audio directory", logging.Error(err))
		return nil
	}
	if err := a.media.ExtractAudio(ctx, videoPath, audioPath); err != nil {
		logger.Warn("audio extraction failed, skipping transcript", logging.Error(err))
		return nil
	}
	segments, err := a.speech.Transcribe(ctx, audioPath)
	if err != nil {
		logger.Warn("transcription failed, skipping transcript", logging.Error(err))
		return nil
	}
	logger.Info("transcript ready", logging.Int("segments", len(segments)))
	return segments
}

// assignGroups embeds phase descriptions and clusters them into the global
// groups under the store lock, then records per-group best phases. A
// failure leaves every unit ungrouped.
func (a *Analyzer) assignGroups(ctx context.Context, videoID string, units []PhaseUnit, logger *slog.Logger) {
	if a.embedder == nil || len(units) == 0 {
		return
	}
	texts := make([]string, len(units))
	for i, unit := range units {
		texts[i] = unit.Description
	}
	vectors, err := a.embedder.EmbedTexts(ctx, texts)
	if err != nil || len(vectors) != len(units) {
		logger.Warn("embedding failed, skipping grouping", logging.Error(err))
		return
	}

	// Assigning inside Update keeps concurrent analyzers from overwriting
	// each other's groups.
	_, err = a.groups.Update(ctx, func(groups []grouping.Group) ([]grouping.Group, error) {
		engine := grouping.NewEngine(a.cfg.Grouping.CosineThreshold, groups)
		for i := range units {
			units[i].GroupID = engine.Assign(vectors[i])
		}
		return engine.Groups(), nil
	})
	if err != nil {
		logger.Warn("group store update failed", logging.Error(err))
		return
	}

	_, err = a.bestPhases.Update(ctx, func(best grouping.BestPhases) error {
		for _, unit := range units {
			if unit.GroupID == 0 {
				continue
			}
			best.Update(unit.GroupID, grouping.BestPhase{
				VideoID:    videoID,
				PhaseIndex: unit.Index,
				Score:      unit.Score,
			})
		}
		return nil
	})
	if err != nil {
		logger.Warn("best phase update failed", logging.Error(err))
	}
}
