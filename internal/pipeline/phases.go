package pipeline

import (
	"fmt"
	"strings"

	"livelens/internal/exposure"
	"livelens/internal/timeline"
	"livelens/internal/trends"
)

// Phase is one contiguous span of the stream delimited by scene changes.
type Phase struct {
	Index     int     `json:"phase_index"`
	StartSec  float64 `json:"start_sec"`
	EndSec    float64 `json:"end_sec"`
	Important bool    `json:"important"`
}

// PhaseUnit is a phase enriched with its exposures, transcript slice,
// description, and cluster assignment.
type PhaseUnit struct {
	Phase
	Exposures   []exposure.Segment `json:"exposures"`
	Transcript  string             `json:"transcript"`
	Description string             `json:"description"`
	GroupID     int                `json:"group_id"`
	Score       float64            `json:"score"`
}

// minPhaseGap drops scene cuts closer than this to the previous boundary.
const minPhaseGap = 1.0

// BuildPhases turns scene change timestamps into contiguous phases covering
// [0, duration). With no scene cuts the whole video is one phase.
func BuildPhases(sceneTimes []float64, duration float64) []Phase {
	if duration <= 0 {
		return nil
	}
	boundaries := []float64{0}
	for _, t := range sceneTimes {
		if t <= boundaries[len(boundaries)-1]+minPhaseGap || t >= duration {
			continue
		}
		boundaries = append(boundaries, t)
	}
	boundaries = append(boundaries, duration)

	phases := make([]Phase, 0, len(boundaries)-1)
	for i := 0; i < len(boundaries)-1; i++ {
		phases = append(phases, Phase{
			Index:    i,
			StartSec: boundaries[i],
			EndSec:   boundaries[i+1],
		})
	}
	return phases
}

// MarkImportant flags phases overlapping any important range. An empty
// range list marks everything important.
func MarkImportant(phases []Phase, ranges []timeline.Range) []Phase {
	marked := make([]Phase, len(phases))
	for i, phase := range phases {
		phase.Important = trends.PhaseInImportantRange(int(phase.StartSec), int(phase.EndSec), ranges)
		marked[i] = phase
	}
	return marked
}

// BuildPhaseUnits attaches exposures and transcript text to each phase and
// derives a description and score.
func BuildPhaseUnits(phases []Phase, segments []exposure.Segment, transcript []exposure.TranscriptSegment) []PhaseUnit {
	units := make([]PhaseUnit, 0, len(phases))
	for _, phase := range phases {
		unit := PhaseUnit{Phase: phase}
		for _, seg := range segments {
			if seg.TimeEnd <= phase.StartSec || seg.TimeStart >= phase.EndSec {
				continue
			}
			unit.Exposures = append(unit.Exposures, seg)
			overlap := min(seg.TimeEnd, phase.EndSec) - max(seg.TimeStart, phase.StartSec)
			unit.Score += overlap * seg.Confidence
		}
		var texts []string
		for _, ts := range transcript {
			if ts.End <= phase.StartSec || ts.Start >= phase.EndSec {
				continue
			}
			texts = append(texts, strings.TrimSpace(ts.Text))
		}
		unit.Transcript = strings.Join(texts, " ")
		unit.Description = describePhase(unit)
		units = append(units, unit)
	}
	return units
}

// describePhase builds the text embedded for grouping. It leads with the
// products on screen so phases showing the same product cluster together
// even when the talk track differs.
func describePhase(unit PhaseUnit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phase %d (%.0fs-%.0fs).", unit.Index, unit.StartSec, unit.EndSec)
	if len(unit.Exposures) > 0 {
		names := make([]string, 0, len(unit.Exposures))
		seen := map[string]struct{}{}
		for _, seg := range unit.Exposures {
			label := seg.ProductName
			if seg.BrandName != "" {
				label += " (" + seg.BrandName + ")"
			}
			if _, dup := seen[label]; dup {
				continue
			}
			seen[label] = struct{}{}
			names = append(names, label)
		}
		fmt.Fprintf(&b, " Products: %s.", strings.Join(names, ", "))
	}
	if unit.Transcript != "" {
		fmt.Fprintf(&b, " Talk: %s", truncateRunes(unit.Transcript, 300))
	}
	return b.String()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
