package grouping_test

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"livelens/internal/grouping"
)

func TestAssignSameVectorGrowsOneGroup(t *testing.T) {
	engine := grouping.NewEngine(0.82, nil)
	vec := []float64{3, 4, 0}

	for i := 0; i < 5; i++ {
		if id := engine.Assign(vec); id != 1 {
			t.Fatalf("assignment %d placed in group %d, want 1", i, id)
		}
	}

	groups := engine.Groups()
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].Size != 5 {
		t.Fatalf("group size %d, want 5", groups[0].Size)
	}
	if norm := vectorNorm(groups[0].Centroid); math.Abs(norm-1) > 1e-9 {
		t.Fatalf("centroid norm %v, want 1", norm)
	}
}

func TestAssignOrthogonalVectorsNeverMerge(t *testing.T) {
	engine := grouping.NewEngine(0.82, nil)

	a := engine.Assign([]float64{1, 0, 0})
	b := engine.Assign([]float64{0, 1, 0})
	c := engine.Assign([]float64{0, 0, 1})
	if a != 1 || b != 2 || c != 3 {
		t.Fatalf("expected ids 1,2,3, got %d,%d,%d", a, b, c)
	}
	if len(engine.Groups()) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(engine.Groups()))
	}
}

func TestAssignJoinsNearestAboveThreshold(t *testing.T) {
	engine := grouping.NewEngine(0.82, []grouping.Group{
		{ID: 1, Centroid: []float64{1, 0}, Size: 1},
		{ID: 2, Centroid: []float64{0, 1}, Size: 1},
	})

	// Close to group 2 but not group 1.
	id := engine.Assign([]float64{0.1, 1})
	if id != 2 {
		t.Fatalf("assigned to group %d, want 2", id)
	}
	groups := engine.Groups()
	if groups[1].Size != 2 {
		t.Fatalf("group 2 size %d, want 2", groups[1].Size)
	}
	if norm := vectorNorm(groups[1].Centroid); math.Abs(norm-1) > 1e-9 {
		t.Fatalf("merged centroid norm %v, want 1", norm)
	}
}

func TestAssignZeroVectorFoundsGroup(t *testing.T) {
	engine := grouping.NewEngine(0.82, nil)
	if id := engine.Assign([]float64{0, 0, 0}); id != 1 {
		t.Fatalf("zero vector placed in group %d, want 1", id)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := grouping.NewFileStore(filepath.Join(t.TempDir(), "groups", "groups.json"))

	groups, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load empty: %v", err)
	}
	if groups != nil {
		t.Fatalf("expected nil for missing file, got %v", groups)
	}

	want := []grouping.Group{{ID: 1, Centroid: []float64{1, 0}, Size: 3}}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 || got[0].Size != 3 {
		t.Fatalf("round trip mismatch: %v", got)
	}
}

func TestFileStoreUpdateAssignsUnderLock(t *testing.T) {
	ctx := context.Background()
	store := grouping.NewFileStore(filepath.Join(t.TempDir(), "groups.json"))

	for i := 0; i < 3; i++ {
		_, err := store.Update(ctx, func(groups []grouping.Group) ([]grouping.Group, error) {
			engine := grouping.NewEngine(0.82, groups)
			engine.Assign([]float64{0, 1})
			return engine.Groups(), nil
		})
		if err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}
	}

	groups, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(groups) != 1 || groups[0].Size != 3 {
		t.Fatalf("expected one group of size 3, got %v", groups)
	}
}

func TestBestPhasesUpdate(t *testing.T) {
	best := grouping.BestPhases{}

	if !best.Update(1, grouping.BestPhase{VideoID: "a", PhaseIndex: 0, Score: 2}) {
		t.Fatal("first phase for a group must win")
	}
	if best.Update(1, grouping.BestPhase{VideoID: "b", PhaseIndex: 1, Score: 2}) {
		t.Fatal("tied score must not replace the holder")
	}
	if !best.Update(1, grouping.BestPhase{VideoID: "c", PhaseIndex: 2, Score: 5}) {
		t.Fatal("higher score must replace the holder")
	}
	if best[1].VideoID != "c" {
		t.Fatalf("unexpected holder %+v", best[1])
	}
}

func TestBestPhaseStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := grouping.NewBestPhaseStore(filepath.Join(t.TempDir(), "best_phases.json"))

	_, err := store.Update(ctx, func(best grouping.BestPhases) error {
		best.Update(1, grouping.BestPhase{VideoID: "vid-1", PhaseIndex: 2, Score: 4})
		best.Update(7, grouping.BestPhase{VideoID: "vid-2", PhaseIndex: 0, Score: 1})
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	best, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(best) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(best))
	}
	if best[1].VideoID != "vid-1" || best[1].Score != 4 {
		t.Fatalf("unexpected entry %+v", best[1])
	}
}

func vectorNorm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
