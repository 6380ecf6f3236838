package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkDir  string `toml:"work_dir"`
	LogDir   string `toml:"log_dir"`
	GroupDir string `toml:"group_dir"`
	APIBind  string `toml:"api_bind"`
}

// Queue contains scheduler and queue store configuration. Durations are
// seconds.
type Queue struct {
	PollInterval       int `toml:"poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	MaxWorkers         int `toml:"max_workers"`
	BatchCap           int `toml:"batch_cap"`
	VisibilityTimeout  int `toml:"visibility_timeout"`
}

// OpenAI contains connection settings for the vision, transcription, and
// embedding collaborators.
type OpenAI struct {
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	VisionModel     string `toml:"vision_model"`
	TranscribeModel string `toml:"transcribe_model"`
	EmbedModel      string `toml:"embed_model"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// Detection tunes the product exposure segmenter and transcript fusion.
type Detection struct {
	// SampleInterval is the seconds between sampled frames (fps = 1).
	SampleInterval int `toml:"sample_interval"`
	// ConfidenceThreshold drops per-frame detections below it.
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	// MinDuration drops segments shorter than this many seconds.
	MinDuration float64 `toml:"min_duration"`
	// FusionMargin widens the transcript gather window on both sides.
	FusionMargin float64 `toml:"fusion_margin"`
}

// Importance tunes the trend slot scorer.
type Importance struct {
	MarginSec float64 `toml:"margin_sec"`
	MinScore  int     `toml:"min_score"`
}

// Grouping tunes the incremental clustering engine.
type Grouping struct {
	CosineThreshold float64 `toml:"cosine_threshold"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for livelens.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Queue      Queue      `toml:"queue"`
	OpenAI     OpenAI     `toml:"openai"`
	Detection  Detection  `toml:"detection"`
	Importance Importance `toml:"importance"`
	Grouping   Grouping   `toml:"grouping"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the standard config file location.
func DefaultConfigPath() string {
	return "~/.config/livelens/config.toml"
}

// Load reads configuration from path (or the default location when path is
// empty), applies environment fallbacks, normalizes paths, and validates.
// A missing file yields defaults rather than an error.
func Load(path string) (*Config, error) {
	// .env is a convenience for development; absence is not an error.
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("LIVELENS_CONFIG")
	}
	if path == "" {
		path = DefaultConfigPath()
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(expanded)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", expanded, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults apply.
	default:
		return nil, fmt.Errorf("read config %s: %w", expanded, err)
	}

	cfg.applyEnvFallbacks()
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvFallbacks() {
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	}
}

// QueueDBPath returns the SQLite file backing the job queue.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.WorkDir, "queue.db")
}

// GroupStorePath returns the persisted cluster group file.
func (c *Config) GroupStorePath() string {
	return filepath.Join(c.Paths.GroupDir, "groups.json")
}

// BestPhasePath returns the persisted per-group best phase file.
func (c *Config) BestPhasePath() string {
	return filepath.Join(c.Paths.GroupDir, "best_phases.json")
}

// LockFilePath returns the daemon single-instance lock file.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.LogDir, "livelensd.lock")
}

// EnsureDirectories creates every directory the daemon writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir, c.Paths.GroupDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// ExpandPath resolves ~ prefixes against the current user's home directory.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Clean(trimmed), nil
}
