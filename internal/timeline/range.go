package timeline

import (
	"fmt"
	"sort"
)

// Range is a scored span of video time. Frame fields assume fps = 1, so they
// track the second fields as integers.
type Range struct {
	StartSec   float64
	EndSec     float64
	StartFrame int
	EndFrame   int
	Score      int
	Reasons    []string
}

// Duration returns the covered span in seconds.
func (r Range) Duration() float64 {
	return r.EndSec - r.StartSec
}

// Merge sorts the input by start time and collapses overlapping or touching
// ranges. Touching is inclusive: a range whose start equals the previous end
// merges into it. Merged ranges take the max end, the max score, and the
// union of reasons. The result is sorted and pairwise non-adjacent, and
// merging it again returns an equal slice.
func Merge(ranges []Range) ([]Range, error) {
	if len(ranges) == 0 {
		return nil, nil
	}
	for _, r := range ranges {
		if r.StartSec > r.EndSec {
			return nil, fmt.Errorf("timeline: malformed range: start %.3f after end %.3f", r.StartSec, r.EndSec)
		}
	}

	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartSec < sorted[j].StartSec
	})

	merged := make([]Range, 0, len(sorted))
	merged = append(merged, cloneRange(sorted[0]))
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.StartSec > last.EndSec {
			merged = append(merged, cloneRange(r))
			continue
		}
		if r.EndSec > last.EndSec {
			last.EndSec = r.EndSec
		}
		if r.EndFrame > last.EndFrame {
			last.EndFrame = r.EndFrame
		}
		if r.Score > last.Score {
			last.Score = r.Score
		}
		last.Reasons = unionReasons(last.Reasons, r.Reasons)
	}
	return merged, nil
}

// Overlaps reports whether the closed frame interval [startFrame, endFrame]
// intersects any of the provided ranges. An empty range list is treated as
// "no importance signal", which fails open: every phase overlaps.
func Overlaps(startFrame, endFrame int, ranges []Range) bool {
	if len(ranges) == 0 {
		return true
	}
	for _, r := range ranges {
		if startFrame <= r.EndFrame && endFrame >= r.StartFrame {
			return true
		}
	}
	return false
}

func cloneRange(r Range) Range {
	out := r
	out.Reasons = append([]string(nil), r.Reasons...)
	return out
}

func unionReasons(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, reason := range list {
			if _, ok := seen[reason]; ok {
				continue
			}
			seen[reason] = struct{}{}
			out = append(out, reason)
		}
	}
	sort.Strings(out)
	return out
}
