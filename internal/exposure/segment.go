package exposure

import (
	"math"
	"sort"
)

// Segment is one continuous exposure of a product. Times are seconds from
// the start of the recording.
type Segment struct {
	ProductName    string  `json:"product_name"`
	BrandName      string  `json:"brand_name"`
	ImageURL       string  `json:"product_image_url,omitempty"`
	TimeStart      float64 `json:"time_start"`
	TimeEnd        float64 `json:"time_end"`
	Confidence     float64 `json:"confidence"`
	AudioConfirmed bool    `json:"audio_confirmed"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.TimeEnd - s.TimeStart
}

// SegmentOptions tunes BuildSegments.
type SegmentOptions struct {
	// SampleInterval is the seconds between sampled frames.
	SampleInterval int
	// ConfidenceThreshold drops individual detections below it.
	ConfidenceThreshold float64
	// MinDuration drops segments shorter than this many seconds.
	MinDuration float64
}

// DefaultSegmentOptions mirrors the production tuning: 5s sampling, 0.5
// confidence floor, 8s minimum exposure.
func DefaultSegmentOptions() SegmentOptions {
	return SegmentOptions{SampleInterval: 5, ConfidenceThreshold: 0.5, MinDuration: 8}
}

// BuildSegments groups per-frame detections into continuous exposure
// segments per product. Detections within 2·interval+1 frames of each other
// join the same segment; each segment extends one interval past its last
// detection and its confidence is the mean of its members. Background-only
// sightings never contribute.
func BuildSegments(detections []FrameDetection, opts SegmentOptions) []Segment {
	if len(detections) == 0 {
		return nil
	}
	if opts.SampleInterval < 1 {
		opts.SampleInterval = DefaultSegmentOptions().SampleInterval
	}

	type sighting struct {
		frame int
		conf  float64
	}
	byProduct := map[string][]sighting{}
	var order []string
	for _, det := range detections {
		if det.Reason == ReasonBackgroundOnly {
			continue
		}
		if det.ProductName == "" || det.Confidence < opts.ConfidenceThreshold {
			continue
		}
		if _, ok := byProduct[det.ProductName]; !ok {
			order = append(order, det.ProductName)
		}
		byProduct[det.ProductName] = append(byProduct[det.ProductName], sighting{det.FrameIndex, det.Confidence})
	}

	gapTolerance := opts.SampleInterval*2 + 1

	var segments []Segment
	for _, name := range order {
		frames := byProduct[name]
		sort.Slice(frames, func(i, j int) bool { return frames[i].frame < frames[j].frame })

		segStart := frames[0].frame
		segEnd := frames[0].frame
		confs := []float64{frames[0].conf}

		flush := func() {
			start := float64(segStart)
			end := float64(segEnd + opts.SampleInterval)
			if end-start < opts.MinDuration {
				return
			}
			sum := 0.0
			for _, c := range confs {
				sum += c
			}
			segments = append(segments, Segment{
				ProductName: name,
				TimeStart:   start,
				TimeEnd:     end,
				Confidence:  round2(sum / float64(len(confs))),
			})
		}

		for _, s := range frames[1:] {
			if s.frame-segEnd <= gapTolerance {
				segEnd = s.frame
				confs = append(confs, s.conf)
				continue
			}
			flush()
			segStart = s.frame
			segEnd = s.frame
			confs = []float64{s.conf}
		}
		flush()
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].TimeStart < segments[j].TimeStart
	})
	return segments
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
