package trends_test

import (
	"testing"

	"livelens/internal/timeline"
	"livelens/internal/trends"
)

func TestComputeSlotScoresGreaterThanZero(t *testing.T) {
	rows := []trends.Row{
		{"Time": "18:00", "GMV": "0"},
		{"Time": "18:05", "GMV": "100"},
		{"Time": "18:10", "GMV": "50"},
	}
	scorer := trends.NewScorer(nil, nil)

	slots := scorer.ComputeSlotScores(rows)
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	if slots[0].Score != 0 {
		t.Fatalf("zero GMV slot scored %d", slots[0].Score)
	}
	for _, slot := range slots[1:] {
		if slot.Score != 3 {
			t.Fatalf("slot %s scored %d, want 3", slot.TimeLabel, slot.Score)
		}
		if len(slot.MatchedRules) != 1 || slot.MatchedRules[0] != "high_gmv" {
			t.Fatalf("slot %s matched %v", slot.TimeLabel, slot.MatchedRules)
		}
	}
}

func TestComputeSlotScoresAboveMean(t *testing.T) {
	rows := []trends.Row{
		{"Time": "18:00", "GPM": "10"},
		{"Time": "18:05", "GPM": "20"},
		{"Time": "18:10", "GPM": "30"},
	}
	scorer := trends.NewScorer(nil, nil)

	slots := scorer.ComputeSlotScores(rows)
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	// Mean is 20; only the strictly greater value triggers.
	if slots[0].Score != 0 || slots[1].Score != 0 {
		t.Fatalf("scores below or at the mean should be 0, got %d and %d",
			slots[0].Score, slots[1].Score)
	}
	if slots[2].Score != 2 {
		t.Fatalf("above-mean slot scored %d, want 2", slots[2].Score)
	}
}

func TestComputeSlotScoresSkipsBadRows(t *testing.T) {
	rows := []trends.Row{
		{"Time": "not a time", "GMV": "100"},
		{"Time": "18:05", "GMV": "1,200"},
	}
	scorer := trends.NewScorer(nil, nil)

	slots := scorer.ComputeSlotScores(rows)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if slots[0].Score != 3 {
		t.Fatalf("comma-separated GMV should still score, got %d", slots[0].Score)
	}
}

func TestComputeSlotScoresNoTimeColumn(t *testing.T) {
	rows := []trends.Row{{"GMV": "100"}}
	scorer := trends.NewScorer(nil, nil)
	if slots := scorer.ComputeSlotScores(rows); slots != nil {
		t.Fatalf("expected nil slots without a time column, got %v", slots)
	}
}

func TestImportantTimeRangesMergesAdjacentSlots(t *testing.T) {
	rows := []trends.Row{
		{"Time": "18:00", "GMV": "100"},
		{"Time": "18:05", "GMV": "50"},
		{"Time": "19:30", "GMV": "0"},
	}
	scorer := trends.NewScorer(nil, nil)

	ranges, err := scorer.ImportantTimeRanges(rows, 7200, trends.DefaultRangeOptions())
	if err != nil {
		t.Fatalf("ImportantTimeRanges: %v", err)
	}
	if len(ranges) != 1 {
		t.Fatalf("expected the padded slots to merge into 1 range, got %d", len(ranges))
	}
	r := ranges[0]
	if r.StartSec != 0 {
		t.Fatalf("range start %v, want clipped to 0", r.StartSec)
	}
	// Second slot sits 300s in; its margin reaches 900s.
	if r.EndSec != 900 {
		t.Fatalf("range end %v, want 900", r.EndSec)
	}
	if r.Score != 3 {
		t.Fatalf("range score %d, want 3", r.Score)
	}
}

func TestImportantTimeRangesFailsOpen(t *testing.T) {
	scorer := trends.NewScorer(nil, nil)

	// No rows at all.
	ranges, err := scorer.ImportantTimeRanges(nil, 3600, trends.DefaultRangeOptions())
	if err != nil || ranges != nil {
		t.Fatalf("expected nil ranges and nil error, got %v, %v", ranges, err)
	}

	// Rows present but nothing scores.
	rows := []trends.Row{{"Time": "18:00", "GMV": "0"}}
	ranges, err = scorer.ImportantTimeRanges(rows, 3600, trends.DefaultRangeOptions())
	if err != nil || ranges != nil {
		t.Fatalf("expected nil ranges and nil error, got %v, %v", ranges, err)
	}

	// Empty ranges mean every phase is analyzed.
	if !trends.PhaseInImportantRange(0, 10, nil) {
		t.Fatal("empty range list must fail open")
	}
}

func TestImportantTimeRangesExplicitVideoStart(t *testing.T) {
	rows := []trends.Row{
		{"Time": "18:30", "GMV": "100"},
	}
	scorer := trends.NewScorer(nil, nil)
	opts := trends.RangeOptions{VideoStartSec: 18 * 3600, MarginSec: 60, MinScore: 1}

	ranges, err := scorer.ImportantTimeRanges(rows, 7200, opts)
	if err != nil {
		t.Fatalf("ImportantTimeRanges: %v", err)
	}
	if len(ranges) != 1 {
		t.Fatalf("expected 1 range, got %d", len(ranges))
	}
	if ranges[0].StartSec != 1740 || ranges[0].EndSec != 1860 {
		t.Fatalf("unexpected range [%v, %v]", ranges[0].StartSec, ranges[0].EndSec)
	}
}

func TestFilterPhasesByImportance(t *testing.T) {
	ranges := []timeline.Range{{StartSec: 0, EndSec: 100, StartFrame: 0, EndFrame: 100}}

	marks := trends.FilterPhasesByImportance([]int{50, 200}, 300, ranges)
	if len(marks) != 3 {
		t.Fatalf("expected 3 phases, got %d", len(marks))
	}
	if !marks[0] || !marks[1] {
		t.Fatalf("phases touching the range must be marked, got %v", marks)
	}
	if marks[2] {
		t.Fatalf("phase beyond the range must not be marked, got %v", marks)
	}

	open := trends.FilterPhasesByImportance([]int{50}, 300, nil)
	for i, mark := range open {
		if !mark {
			t.Fatalf("phase %d should fail open", i)
		}
	}
}
