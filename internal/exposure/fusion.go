package exposure

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"livelens/internal/logging"
	"livelens/internal/sheet"
)

// TranscriptSegment is one speech recognition span.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// FuseOptions tunes FuseTranscript.
type FuseOptions struct {
	// GatherMargin widens the transcript window around a segment on both
	// sides, in seconds.
	GatherMargin float64
}

// DefaultFuseOptions mirrors the production tuning.
func DefaultFuseOptions() FuseOptions {
	return FuseOptions{GatherMargin: 10}
}

var keywordSplitter = regexp.MustCompile(`[\s　・/\-]+`)

// stopwords are tokens too generic to count as a product mention.
var stopwords = map[string]struct{}{
	"kyogoku": {}, "the": {}, "and": {}, "for": {}, "pro": {},
	"用": {}, "式": {}, "型": {},
}

// productKeywords builds the lowered keyword set used to spot a product in
// speech: the full name, the brand, and every name token of at least three
// runes that is not a stopword.
func productKeywords(products []sheet.Product) map[string][]string {
	keywords := make(map[string][]string, len(products))
	for _, p := range products {
		if p.Name == "" {
			continue
		}
		seen := map[string]struct{}{}
		var kws []string
		add := func(kw string) {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				return
			}
			if _, ok := seen[kw]; ok {
				return
			}
			seen[kw] = struct{}{}
			kws = append(kws, kw)
		}
		add(p.Name)
		if p.Brand != "" {
			add(p.Brand)
		}
		for _, token := range keywordSplitter.Split(p.Name, -1) {
			token = strings.ToLower(strings.TrimSpace(token))
			if utf8.RuneCountInString(token) < 3 {
				continue
			}
			if _, skip := stopwords[token]; skip {
				continue
			}
			add(token)
		}
		keywords[p.Name] = kws
	}
	return keywords
}

// FuseTranscript cross checks visual exposure segments against the speech
// transcript. Segments whose surrounding speech mentions the product gain a
// confidence boost of min(0.20, matches·0.08) capped at 1.0 and are marked
// audio confirmed; unmentioned segments are penalized to 60% confidence.
// Products mentioned in speech but never seen on screen become audio-only
// segments at 0.55 confidence, unless an existing segment for the product
// comes within 10s of the mention. The result is re-sorted by start time.
// Without transcript or catalogue data the input is returned unchanged.
func FuseTranscript(segments []Segment, transcript []TranscriptSegment, products []sheet.Product, opts FuseOptions, logger *slog.Logger) []Segment {
	if len(transcript) == 0 || len(products) == 0 {
		return segments
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.GatherMargin <= 0 {
		opts.GatherMargin = DefaultFuseOptions().GatherMargin
	}

	keywords := productKeywords(products)

	gather := func(start, end float64) string {
		var texts []string
		for _, seg := range transcript {
			if seg.End >= start-opts.GatherMargin && seg.Start <= end+opts.GatherMargin {
				texts = append(texts, seg.Text)
			}
		}
		return strings.ToLower(strings.Join(texts, " "))
	}

	fused := make([]Segment, len(segments))
	copy(fused, segments)
	for i := range fused {
		seg := &fused[i]
		text := gather(seg.TimeStart, seg.TimeEnd)
		matches := 0
		for _, kw := range keywords[seg.ProductName] {
			if strings.Contains(text, kw) {
				matches++
			}
		}
		if matches > 0 {
			boost := float64(matches) * 0.08
			if boost > 0.20 {
				boost = 0.20
			}
			seg.Confidence = seg.Confidence + boost
			if seg.Confidence > 1.0 {
				seg.Confidence = 1.0
			}
			seg.AudioConfirmed = true
			logger.Debug("audio confirmed exposure",
				logging.String("product", seg.ProductName),
				logging.Int("matches", matches))
		} else {
			seg.Confidence = round2(seg.Confidence * 0.6)
			seg.AudioConfirmed = false
		}
	}

	// Products only ever heard, never seen.
	var audioOnly []Segment
	for _, ts := range transcript {
		text := strings.ToLower(ts.Text)
		for name, kws := range keywords {
			for _, kw := range kws {
				if utf8.RuneCountInString(kw) < 3 || !strings.Contains(text, kw) {
					continue
				}
				if hasNearbySegment(fused, name, ts.Start, ts.End, opts.GatherMargin) {
					break
				}
				audioOnly = append(audioOnly, Segment{
					ProductName:    name,
					TimeStart:      ts.Start,
					TimeEnd:        ts.End,
					Confidence:     0.55,
					AudioConfirmed: true,
				})
				break
			}
		}
	}
	if len(audioOnly) > 0 {
		logger.Debug("audio-only exposures added", logging.Int("count", len(audioOnly)))
		fused = append(fused, audioOnly...)
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].TimeStart < fused[j].TimeStart
	})
	return fused
}

// hasNearbySegment reports whether any segment for the product overlaps the
// mention window, tolerating up to tolerance seconds of separation.
func hasNearbySegment(segments []Segment, product string, start, end, tolerance float64) bool {
	for _, seg := range segments {
		if seg.ProductName != product {
			continue
		}
		overlap := min(seg.TimeEnd, end) - max(seg.TimeStart, start)
		if overlap > -tolerance {
			return true
		}
	}
	return false
}
