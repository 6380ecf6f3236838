package vision_test

import (
	"strings"
	"testing"

	"livelens/internal/services/vision"
	"livelens/internal/sheet"
)

func TestParseDetections(t *testing.T) {
	content := `{
  "detected_products": [
    {"product_name": "京極クレンジングオイル", "confidence": 0.9, "detection_reason": "hand_holding"},
    {"product_name": "カラーシャンプー", "confidence": 0.8, "detection_reason": "background_only"},
    {"product_name": "", "confidence": 0.7, "detection_reason": "closeup"}
  ]
}`
	detections := vision.ParseDetections(content, 42)
	if len(detections) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(detections))
	}
	det := detections[0]
	if det.ProductName != "京極クレンジングオイル" || det.FrameIndex != 42 {
		t.Fatalf("unexpected detection %+v", det)
	}
	if det.Confidence != 0.9 {
		t.Fatalf("confidence %v, want 0.9", det.Confidence)
	}
}

func TestParseDetectionsFencedResponse(t *testing.T) {
	content := "```json\n{\"detected_products\": [{\"product_name\": \"oil\", \"confidence\": 0.75, \"detection_reason\": \"closeup\"}]}\n```"
	detections := vision.ParseDetections(content, 0)
	if len(detections) != 1 || detections[0].ProductName != "oil" {
		t.Fatalf("unexpected detections %v", detections)
	}
}

func TestParseDetectionsDefaultConfidence(t *testing.T) {
	content := `{"detected_products": [{"product_name": "oil", "detection_reason": "closeup"}]}`
	detections := vision.ParseDetections(content, 0)
	if len(detections) != 1 || detections[0].Confidence != 0.5 {
		t.Fatalf("missing confidence should default to 0.5, got %v", detections)
	}
}

func TestParseDetectionsGarbage(t *testing.T) {
	for _, content := range []string{"", "sorry, I cannot help", `{"other": 1}`} {
		if detections := vision.ParseDetections(content, 0); detections != nil {
			t.Fatalf("expected nil for %q, got %v", content, detections)
		}
	}
}

func TestStripFences(t *testing.T) {
	if got := vision.StripFences("```json\n{}\n```"); got != "{}" {
		t.Fatalf("got %q", got)
	}
	if got := vision.StripFences("{}"); got != "{}" {
		t.Fatalf("got %q", got)
	}
}

func TestBuildPromptListsCatalogue(t *testing.T) {
	prompt := vision.BuildPrompt([]sheet.Product{
		{Name: "京極クレンジングオイル", Brand: "KYOGOKU"},
		{Name: "カラーシャンプー"},
	})
	if !strings.Contains(prompt, "- 京極クレンジングオイル (KYOGOKU)") {
		t.Fatalf("branded product missing from prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "- カラーシャンプー\n") {
		t.Fatalf("unbranded product missing from prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "background_only") {
		t.Fatal("reason vocabulary missing from prompt")
	}
}
