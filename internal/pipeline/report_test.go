package pipeline

import (
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"livelens/internal/exposure"
)

func TestBuildReport(t *testing.T) {
	exposures := []exposure.Segment{
		{
			ProductName:    "SuperGlow Serum",
			BrandName:      "Kyoto Beauty",
			ImageURL:       "http://x/serum.jpg",
			TimeStart:      0,
			TimeEnd:        15,
			Confidence:     0.95,
			AudioConfirmed: true,
		},
		{ProductName: "Mini Fan", TimeStart: 30, TimeEnd: 40, Confidence: 0.6},
	}
	units := []PhaseUnit{
		{
			Phase:       Phase{Index: 0, StartSec: 0, EndSec: 60, Important: true},
			GroupID:     3,
			Score:       14.25,
			Description: "Phase 0 (0s-60s). Products: SuperGlow Serum (Kyoto Beauty).",
			Exposures:   exposures[:1],
		},
	}
	generated := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	doc, err := BuildReport("vid-1", 120.5, exposures, 2, units, generated)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if !gjson.Valid(doc) {
		t.Fatalf("invalid JSON: %s", doc)
	}
	checks := map[string]string{
		"video_id":                   "vid-1",
		"generated_at":               "2026-08-29T12:00:00Z",
		"duration_sec":               "120.5",
		"dropped_segments":           "2",
		"exposures.#":                "2",
		"exposures.0.product_name":   "SuperGlow Serum",
		"exposures.0.brand_name":     "Kyoto Beauty",
		"exposures.0.product_image_url": "http://x/serum.jpg",
		"exposures.0.audio_confirmed": "true",
		"exposures.1.product_name":   "Mini Fan",
		"phases.#":                   "1",
		"phases.0.group_id":          "3",
		"phases.0.score":             "14.25",
		"phases.0.important":         "true",
		"phases.0.exposure_count":    "1",
	}
	for path, want := range checks {
		if got := gjson.Get(doc, path).String(); got != want {
			t.Fatalf("%s = %q, want %q", path, got, want)
		}
	}
	// Empty brand and image URL are omitted entirely.
	if gjson.Get(doc, "exposures.1.brand_name").Exists() {
		t.Fatal("empty brand must be omitted")
	}
	if gjson.Get(doc, "exposures.1.product_image_url").Exists() {
		t.Fatal("empty image URL must be omitted")
	}
}

func TestBuildReportEmpty(t *testing.T) {
	doc, err := BuildReport("vid-2", 0, nil, 0, nil, time.Now())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if got := gjson.Get(doc, "exposures.#").Int(); got != 0 {
		t.Fatalf("exposures %d", got)
	}
	if got := gjson.Get(doc, "phases.#").Int(); got != 0 {
		t.Fatalf("phases %d", got)
	}
}
