package trends

import (
	"log/slog"
	"math"

	"livelens/internal/logging"
	"livelens/internal/timeline"
)

// ScoredSlot is one trend row with its importance score attached.
type ScoredSlot struct {
	TimeLabel    string
	TimeSec      float64
	Score        int
	MatchedRules []string
	Row          Row
}

// Scorer evaluates trend rows against a rule table.
type Scorer struct {
	rules  []Rule
	logger *slog.Logger
}

// NewScorer builds a scorer; a nil logger is replaced with a no-op.
func NewScorer(rules []Rule, logger *slog.Logger) *Scorer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scorer{rules: rules, logger: logger}
}

type resolvedRule struct {
	rule Rule
	key  string
	mean float64
}

// ComputeSlotScores resolves the time column and scores every row with a
// parseable timestamp. Rows with unparseable times or values contribute
// nothing and never abort the batch. A missing time column yields an empty
// result, which callers must treat as "analyze everything".
func (s *Scorer) ComputeSlotScores(rows []Row) []ScoredSlot {
	if len(rows) == 0 {
		return nil
	}
	timeKey, ok := DetectTimeColumn(rows)
	if !ok {
		s.logger.Warn("no time column found in trend data",
			logging.Int("rows", len(rows)))
		return nil
	}

	resolved := s.resolveRules(rows)

	slots := make([]ScoredSlot, 0, len(rows))
	for _, row := range rows {
		label := row[timeKey]
		timeSec, ok := ParseTimeToSeconds(label)
		if !ok {
			continue
		}

		score := 0
		var matched []string
		for _, rr := range resolved {
			value, ok := parseNumeric(row[rr.key])
			if !ok {
				continue
			}
			triggered := false
			switch rr.rule.Condition {
			case CondGreaterThanZero:
				triggered = value > 0
			case CondAboveMean:
				triggered = value > rr.mean
			}
			if triggered {
				score += rr.rule.Weight
				matched = append(matched, rr.rule.Name)
			}
		}

		slots = append(slots, ScoredSlot{
			TimeLabel:    label,
			TimeSec:      timeSec,
			Score:        score,
			MatchedRules: matched,
			Row:          row,
		})
	}
	return slots
}

// resolveRules binds each rule to an actual column of the sheet and
// precomputes the column mean over rows with parseable values.
func (s *Scorer) resolveRules(rows []Row) []resolvedRule {
	resolved := make([]resolvedRule, 0, len(s.rules))
	for _, rule := range s.rules {
		key, ok := ResolveKey(rows[0], Aliases(rule.KPI))
		if !ok {
			continue
		}
		sum := 0.0
		count := 0
		for _, row := range rows {
			if v, ok := parseNumeric(row[key]); ok {
				sum += v
				count++
			}
		}
		if count == 0 {
			continue
		}
		resolved = append(resolved, resolvedRule{rule: rule, key: key, mean: sum / float64(count)})
	}
	return resolved
}

// RangeOptions tunes ImportantTimeRanges.
type RangeOptions struct {
	// VideoStartSec is the wall-clock time the recording began. Negative
	// means unknown; the first scored slot's time is used instead.
	VideoStartSec float64
	// MarginSec pads each important slot on both sides. Defaults to 600.
	MarginSec float64
	// MinScore is the minimum slot score considered important. Defaults to 1.
	MinScore int
}

// DefaultRangeOptions mirrors the production tuning.
func DefaultRangeOptions() RangeOptions {
	return RangeOptions{VideoStartSec: -1, MarginSec: 600, MinScore: 1}
}

// ImportantTimeRanges converts scored slots into merged, margin-padded video
// ranges clipped to [0, videoDurationSec]. An empty result always means
// "no importance signal; analyze everything" — both when no time column
// resolves and when no slot reaches MinScore.
func (s *Scorer) ImportantTimeRanges(rows []Row, videoDurationSec float64, opts RangeOptions) ([]timeline.Range, error) {
	if opts.MarginSec <= 0 {
		opts.MarginSec = 600
	}
	if opts.MinScore <= 0 {
		opts.MinScore = 1
	}

	scored := s.ComputeSlotScores(rows)
	if len(scored) == 0 {
		s.logger.Info("no scored slots; analyzing all frames")
		return nil, nil
	}

	videoStart := opts.VideoStartSec
	if videoStart < 0 {
		videoStart = scored[0].TimeSec
		s.logger.Info("estimated video start from first slot",
			logging.String("slot", scored[0].TimeLabel),
			logging.Float64("start_sec", videoStart))
	}

	var important []ScoredSlot
	for _, slot := range scored {
		if slot.Score >= opts.MinScore {
			important = append(important, slot)
		}
	}
	if len(important) == 0 {
		s.logger.Info("no important slots found",
			logging.Int("min_score", opts.MinScore),
			logging.Int("slots", len(scored)))
		return nil, nil
	}
	s.logger.Info("important slots selected",
		logging.Int("important", len(important)),
		logging.Int("total", len(scored)))

	ranges := make([]timeline.Range, 0, len(important))
	for _, slot := range important {
		slotVideoSec := slot.TimeSec - videoStart
		start := math.Max(0, slotVideoSec-opts.MarginSec)
		end := math.Min(videoDurationSec, slotVideoSec+opts.MarginSec)
		if end < start {
			continue
		}
		ranges = append(ranges, timeline.Range{
			StartSec:   start,
			EndSec:     end,
			StartFrame: int(start),
			EndFrame:   int(end),
			Score:      slot.Score,
			Reasons:    slot.MatchedRules,
		})
	}

	merged, err := timeline.Merge(ranges)
	if err != nil {
		return nil, err
	}
	for _, r := range merged {
		s.logger.Info("importance range",
			logging.Float64("start_sec", r.StartSec),
			logging.Float64("end_sec", r.EndSec),
			logging.Int("score", r.Score),
			logging.Any("reasons", r.Reasons))
	}
	return merged, nil
}

// PhaseInImportantRange reports whether a phase's frame interval overlaps any
// importance range. An empty range list fails open.
func PhaseInImportantRange(phaseStartFrame, phaseEndFrame int, ranges []timeline.Range) bool {
	return timeline.Overlaps(phaseStartFrame, phaseEndFrame, ranges)
}

// FilterPhasesByImportance returns one boolean per phase delimited by the
// keyframe boundaries (len(keyframes)+1 phases across totalFrames).
func FilterPhasesByImportance(keyframes []int, totalFrames int, ranges []timeline.Range) []bool {
	phaseCount := len(keyframes) + 1
	if len(ranges) == 0 {
		marks := make([]bool, phaseCount)
		for i := range marks {
			marks[i] = true
		}
		return marks
	}

	bounds := make([]int, 0, phaseCount+1)
	bounds = append(bounds, 0)
	bounds = append(bounds, keyframes...)
	bounds = append(bounds, totalFrames-1)

	marks := make([]bool, 0, phaseCount)
	for i := 0; i+1 < len(bounds); i++ {
		marks = append(marks, PhaseInImportantRange(bounds[i], bounds[i+1], ranges))
	}
	return marks
}
