package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports configuration values a normalized config still cannot run
// with. It returns all problems at once so users fix their file in one pass.
func (c *Config) Validate() error {
	var problems []string

	if c.Paths.WorkDir == "" {
		problems = append(problems, "paths.work_dir must be set")
	}
	if c.Paths.LogDir == "" {
		problems = append(problems, "paths.log_dir must be set")
	}
	if c.Queue.MaxWorkers < 1 {
		problems = append(problems, "queue.max_workers must be at least 1")
	}
	if c.Detection.ConfidenceThreshold > 1 {
		problems = append(problems, "detection.confidence_threshold must be within (0, 1]")
	}
	if c.Grouping.CosineThreshold > 1 {
		problems = append(problems, "grouping.cosine_threshold must be within (0, 1]")
	}
	if format := strings.ToLower(c.Logging.Format); format != "auto" && format != "console" && format != "json" {
		problems = append(problems, fmt.Sprintf("logging.format %q is not auto, console, or json", c.Logging.Format))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}
