package config

const (
	defaultWorkDir  = "~/.local/share/livelens/work"
	defaultLogDir   = "~/.local/share/livelens/logs"
	defaultGroupDir = "~/.local/share/livelens/groups"
	defaultAPIBind  = "127.0.0.1:7519"

	defaultPollInterval       = 5
	defaultErrorRetryInterval = 10
	defaultMaxWorkers         = 3
	defaultBatchCap           = 5
	// Analysis jobs run for hours; messages stay hidden for the worst case.
	defaultVisibilityTimeout = 14400

	defaultBaseURL         = "https://api.openai.com/v1"
	defaultVisionModel     = "gpt-4o"
	defaultTranscribeModel = "whisper-1"
	defaultEmbedModel      = "text-embedding-3-large"
	defaultTimeoutSeconds  = 120

	defaultSampleInterval      = 5
	defaultConfidenceThreshold = 0.5
	defaultMinDuration         = 8.0
	defaultFusionMargin        = 10.0

	defaultImportanceMargin   = 600.0
	defaultImportanceMinScore = 1

	defaultCosineThreshold = 0.82

	defaultLogFormat = "auto"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			LogDir:   defaultLogDir,
			GroupDir: defaultGroupDir,
			APIBind:  defaultAPIBind,
		},
		Queue: Queue{
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			MaxWorkers:         defaultMaxWorkers,
			BatchCap:           defaultBatchCap,
			VisibilityTimeout:  defaultVisibilityTimeout,
		},
		OpenAI: OpenAI{
			BaseURL:         defaultBaseURL,
			VisionModel:     defaultVisionModel,
			TranscribeModel: defaultTranscribeModel,
			EmbedModel:      defaultEmbedModel,
			TimeoutSeconds:  defaultTimeoutSeconds,
		},
		Detection: Detection{
			SampleInterval:      defaultSampleInterval,
			ConfidenceThreshold: defaultConfidenceThreshold,
			MinDuration:         defaultMinDuration,
			FusionMargin:        defaultFusionMargin,
		},
		Importance: Importance{
			MarginSec: defaultImportanceMargin,
			MinScore:  defaultImportanceMinScore,
		},
		Grouping: Grouping{
			CosineThreshold: defaultCosineThreshold,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
