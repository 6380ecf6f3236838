package queue

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Job types understood by the scheduler.
const (
	JobTypeVideoAnalysis = "video_analysis"
	JobTypeGenerateClip  = "generate_clip"
)

// Job is the message payload describing one unit of work. Video analysis
// jobs need VideoID and BlobURL; clip jobs additionally carry the cut.
type Job struct {
	Type        string  `json:"job_type,omitempty"`
	VideoID     string  `json:"video_id,omitempty"`
	ClipID      string  `json:"clip_id,omitempty"`
	BlobURL     string  `json:"blob_url,omitempty"`
	TimeStart   float64 `json:"time_start,omitempty"`
	TimeEnd     float64 `json:"time_end,omitempty"`
	PhaseIndex  int     `json:"phase_index,omitempty"`
	SpeedFactor float64 `json:"speed_factor,omitempty"`

	// Optional analytics workbook locations for analysis jobs.
	ExcelProductBlobURL string `json:"excel_product_blob_url,omitempty"`
	ExcelTrendBlobURL   string `json:"excel_trend_blob_url,omitempty"`
}

// Kind returns the job type, defaulting to video analysis like legacy
// producers that omit the field.
func (j Job) Kind() string {
	if strings.TrimSpace(j.Type) == "" {
		return JobTypeVideoAnalysis
	}
	return j.Type
}

// Key identifies the job for deduplication: clip jobs by clip, analysis
// jobs by video.
func (j Job) Key() string {
	if j.Kind() == JobTypeGenerateClip && j.ClipID != "" {
		return j.ClipID
	}
	if j.VideoID != "" {
		return j.VideoID
	}
	if j.ClipID != "" {
		return j.ClipID
	}
	return "unknown"
}

// Validate checks the fields the job kind requires.
func (j Job) Validate() error {
	switch j.Kind() {
	case JobTypeVideoAnalysis:
		if j.VideoID == "" || j.BlobURL == "" {
			return fmt.Errorf("analysis job requires video_id and blob_url")
		}
	case JobTypeGenerateClip:
		if j.ClipID == "" || j.VideoID == "" || j.BlobURL == "" {
			return fmt.Errorf("clip job requires clip_id, video_id, and blob_url")
		}
		if j.TimeEnd <= j.TimeStart {
			return fmt.Errorf("clip job requires time_end > time_start")
		}
	default:
		return fmt.Errorf("unknown job type %q", j.Type)
	}
	return nil
}

// Encode serializes the job for enqueueing.
func (j Job) Encode() (string, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return "", fmt.Errorf("encode job: %w", err)
	}
	return string(data), nil
}

// DecodeJob parses a message payload.
func DecodeJob(payload string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}
