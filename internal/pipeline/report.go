package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/sjson"

	"livelens/internal/exposure"
)

// BuildReport renders the analysis report JSON: the exposure timeline plus
// per-phase insights with their cluster assignments.
func BuildReport(videoID string, duration float64, exposures []exposure.Segment, dropped int, units []PhaseUnit, generatedAt time.Time) (string, error) {
	doc := "{}"
	var err error
	set := func(path string, value any) {
		if err != nil {
			return
		}
		doc, err = sjson.Set(doc, path, value)
	}

	set("video_id", videoID)
	set("generated_at", generatedAt.UTC().Format(time.RFC3339))
	set("duration_sec", duration)
	set("dropped_segments", dropped)

	set("exposures", []any{})
	for i, seg := range exposures {
		prefix := fmt.Sprintf("exposures.%d", i)
		set(prefix+".product_name", seg.ProductName)
		if seg.BrandName != "" {
			set(prefix+".brand_name", seg.BrandName)
		}
		if seg.ImageURL != "" {
			set(prefix+".product_image_url", seg.ImageURL)
		}
		set(prefix+".time_start", seg.TimeStart)
		set(prefix+".time_end", seg.TimeEnd)
		set(prefix+".confidence", seg.Confidence)
		set(prefix+".audio_confirmed", seg.AudioConfirmed)
	}

	set("phases", []any{})
	for i, unit := range units {
		prefix := fmt.Sprintf("phases.%d", i)
		set(prefix+".phase_index", unit.Index)
		set(prefix+".start_sec", unit.StartSec)
		set(prefix+".end_sec", unit.EndSec)
		set(prefix+".important", unit.Important)
		set(prefix+".group_id", unit.GroupID)
		set(prefix+".score", unit.Score)
		set(prefix+".exposure_count", len(unit.Exposures))
		set(prefix+".description", unit.Description)
	}

	if err != nil {
		return "", fmt.Errorf("build report: %w", err)
	}
	return doc, nil
}

func (a *Analyzer) writeReport(videoID string, duration float64, exposures []exposure.Segment, dropped int, units []PhaseUnit, dest string) (string, error) {
	doc, err := BuildReport(videoID, duration, exposures, dropped, units, time.Now())
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(dest, []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return dest, nil
}
