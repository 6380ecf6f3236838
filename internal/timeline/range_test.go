package timeline_test

import (
	"reflect"
	"testing"

	"livelens/internal/timeline"
)

func TestMergeCollapsesOverlapsAndTouches(t *testing.T) {
	ranges := []timeline.Range{
		{StartSec: 30, EndSec: 40, StartFrame: 30, EndFrame: 40, Score: 1, Reasons: []string{"high_viewers"}},
		{StartSec: 0, EndSec: 10, StartFrame: 0, EndFrame: 10, Score: 3, Reasons: []string{"high_gmv"}},
		{StartSec: 10, EndSec: 20, StartFrame: 10, EndFrame: 20, Score: 2, Reasons: []string{"high_orders"}},
	}

	merged, err := timeline.Merge(ranges)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged ranges, got %d: %#v", len(merged), merged)
	}

	first := merged[0]
	if first.StartSec != 0 || first.EndSec != 20 {
		t.Fatalf("unexpected first range bounds: %#v", first)
	}
	if first.Score != 3 {
		t.Fatalf("expected max score 3, got %d", first.Score)
	}
	if !reflect.DeepEqual(first.Reasons, []string{"high_gmv", "high_orders"}) {
		t.Fatalf("unexpected reasons: %v", first.Reasons)
	}
	if merged[1].StartSec != 30 {
		t.Fatalf("expected disjoint range preserved, got %#v", merged[1])
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	ranges := []timeline.Range{
		{StartSec: 5, EndSec: 25, StartFrame: 5, EndFrame: 25, Score: 2, Reasons: []string{"a"}},
		{StartSec: 0, EndSec: 6, StartFrame: 0, EndFrame: 6, Score: 1, Reasons: []string{"b"}},
		{StartSec: 40, EndSec: 50, StartFrame: 40, EndFrame: 50, Score: 1, Reasons: []string{"c"}},
	}
	once, err := timeline.Merge(ranges)
	if err != nil {
		t.Fatalf("first merge: %v", err)
	}
	twice, err := timeline.Merge(once)
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merge not idempotent:\nonce:  %#v\ntwice: %#v", once, twice)
	}
}

func TestMergePreservesCoverage(t *testing.T) {
	ranges := []timeline.Range{
		{StartSec: 0, EndSec: 10},
		{StartSec: 8, EndSec: 14},
		{StartSec: 20, EndSec: 30},
	}
	merged, err := timeline.Merge(ranges)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	covered := func(sec float64, rs []timeline.Range) bool {
		for _, r := range rs {
			if sec >= r.StartSec && sec <= r.EndSec {
				return true
			}
		}
		return false
	}
	for sec := 0.0; sec <= 35; sec += 0.5 {
		if covered(sec, ranges) != covered(sec, merged) {
			t.Fatalf("coverage mismatch at %.1f", sec)
		}
	}
}

func TestMergeRejectsMalformedRange(t *testing.T) {
	if _, err := timeline.Merge([]timeline.Range{{StartSec: 10, EndSec: 5}}); err == nil {
		t.Fatal("expected error for start after end")
	}
}

func TestOverlaps(t *testing.T) {
	ranges := []timeline.Range{{StartFrame: 100, EndFrame: 200}}

	if !timeline.Overlaps(200, 250, ranges) {
		t.Fatal("single shared frame should overlap")
	}
	if !timeline.Overlaps(50, 100, ranges) {
		t.Fatal("boundary frame should overlap")
	}
	if timeline.Overlaps(201, 300, ranges) {
		t.Fatal("strictly disjoint intervals must not overlap")
	}
	if !timeline.Overlaps(500, 600, nil) {
		t.Fatal("empty range list fails open")
	}
}
