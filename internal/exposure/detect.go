package exposure

// Reason classifies how a product appeared in a frame. Only active
// presentation reasons count toward exposure; background sightings are
// discarded at ingestion.
type Reason string

const (
	ReasonHandHolding    Reason = "hand_holding"
	ReasonShowingCamera  Reason = "showing_camera"
	ReasonCloseup        Reason = "closeup"
	ReasonPointing       Reason = "pointing"
	ReasonBackgroundOnly Reason = "background_only"
)

// FrameDetection is one product sighting in one sampled frame. FrameIndex is
// also the second offset into the recording since frames are extracted at
// one per second.
type FrameDetection struct {
	FrameIndex  int
	ProductName string
	Confidence  float64
	Reason      Reason
}

// SelectSampleFrames returns the frame indices to analyze: every interval-th
// frame plus the final frame. Sampling keeps vision API volume proportional
// to duration / interval instead of duration.
func SelectSampleFrames(totalFrames, interval int) []int {
	if totalFrames <= 0 {
		return nil
	}
	if interval < 1 {
		interval = 1
	}
	indices := make([]int, 0, totalFrames/interval+2)
	for i := 0; i < totalFrames; i += interval {
		indices = append(indices, i)
	}
	if last := totalFrames - 1; indices[len(indices)-1] != last {
		indices = append(indices, last)
	}
	return indices
}
