package config

import (
	"strings"
)

// Normalize expands user paths and fills empty fields with defaults so the
// rest of the system never sees a partial configuration.
func (c *Config) Normalize() error {
	defaults := Default()

	for _, field := range []*string{&c.Paths.WorkDir, &c.Paths.LogDir, &c.Paths.GroupDir} {
		expanded, err := ExpandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}
	if c.Paths.WorkDir == "" {
		expanded, err := ExpandPath(defaults.Paths.WorkDir)
		if err != nil {
			return err
		}
		c.Paths.WorkDir = expanded
	}
	if c.Paths.LogDir == "" {
		expanded, err := ExpandPath(defaults.Paths.LogDir)
		if err != nil {
			return err
		}
		c.Paths.LogDir = expanded
	}
	if c.Paths.GroupDir == "" {
		expanded, err := ExpandPath(defaults.Paths.GroupDir)
		if err != nil {
			return err
		}
		c.Paths.GroupDir = expanded
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		c.Paths.APIBind = defaults.Paths.APIBind
	}

	if c.Queue.PollInterval <= 0 {
		c.Queue.PollInterval = defaults.Queue.PollInterval
	}
	if c.Queue.ErrorRetryInterval <= 0 {
		c.Queue.ErrorRetryInterval = defaults.Queue.ErrorRetryInterval
	}
	if c.Queue.MaxWorkers <= 0 {
		c.Queue.MaxWorkers = defaults.Queue.MaxWorkers
	}
	if c.Queue.BatchCap <= 0 {
		c.Queue.BatchCap = defaults.Queue.BatchCap
	}
	if c.Queue.VisibilityTimeout <= 0 {
		c.Queue.VisibilityTimeout = defaults.Queue.VisibilityTimeout
	}

	if strings.TrimSpace(c.OpenAI.BaseURL) == "" {
		c.OpenAI.BaseURL = defaults.OpenAI.BaseURL
	}
	if strings.TrimSpace(c.OpenAI.VisionModel) == "" {
		c.OpenAI.VisionModel = defaults.OpenAI.VisionModel
	}
	if strings.TrimSpace(c.OpenAI.TranscribeModel) == "" {
		c.OpenAI.TranscribeModel = defaults.OpenAI.TranscribeModel
	}
	if strings.TrimSpace(c.OpenAI.EmbedModel) == "" {
		c.OpenAI.EmbedModel = defaults.OpenAI.EmbedModel
	}
	if c.OpenAI.TimeoutSeconds <= 0 {
		c.OpenAI.TimeoutSeconds = defaults.OpenAI.TimeoutSeconds
	}

	if c.Detection.SampleInterval <= 0 {
		c.Detection.SampleInterval = defaults.Detection.SampleInterval
	}
	if c.Detection.ConfidenceThreshold <= 0 {
		c.Detection.ConfidenceThreshold = defaults.Detection.ConfidenceThreshold
	}
	if c.Detection.MinDuration <= 0 {
		c.Detection.MinDuration = defaults.Detection.MinDuration
	}
	if c.Detection.FusionMargin <= 0 {
		c.Detection.FusionMargin = defaults.Detection.FusionMargin
	}

	if c.Importance.MarginSec <= 0 {
		c.Importance.MarginSec = defaults.Importance.MarginSec
	}
	if c.Importance.MinScore <= 0 {
		c.Importance.MinScore = defaults.Importance.MinScore
	}

	if c.Grouping.CosineThreshold <= 0 {
		c.Grouping.CosineThreshold = defaults.Grouping.CosineThreshold
	}

	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	return nil
}
