package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"

	"livelens/internal/config"
	"livelens/internal/exposure"
	"livelens/internal/logging"
	"livelens/internal/services"
)

// Client issues per-frame product detection requests.
type Client struct {
	api    openai.Client
	model  string
	retry  *services.RetryPolicy
	logger *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy *services.RetryPolicy) Option {
	return func(c *Client) {
		if policy != nil {
			c.retry = policy
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a vision client from configuration.
func NewClient(cfg config.OpenAI, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "vision", "new client", "api key required", nil)
	}
	requestOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.BaseURL))
	}
	client := &Client{
		api:    openai.NewClient(requestOpts...),
		model:  cfg.VisionModel,
		retry:  services.NewRetryPolicy(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// DetectFrame analyzes one frame image and returns product detections tagged
// with the frame index. Background-only sightings are dropped at this layer.
// Unusable model output yields an empty result, not an error; transport
// failures retry and surface after exhaustion.
func (c *Client) DetectFrame(ctx context.Context, imagePath string, frameIndex int, prompt string) ([]exposure.FrameDetection, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "vision", "read frame", imagePath, err)
	}
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)

	var content string
	err = c.retry.Do(ctx, "vision detect", func(ctx context.Context) error {
		resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: c.model,
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
					openai.TextContentPart(prompt),
					openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
						URL: dataURL,
					}),
				}),
			},
			MaxTokens: openai.Int(512),
		})
		if err != nil {
			return classifyAPIError(err)
		}
		if len(resp.Choices) == 0 {
			return services.Wrap(services.ErrExternalAPI, "vision", "detect", "empty choices", nil)
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return nil, err
	}

	detections := ParseDetections(content, frameIndex)
	if len(detections) == 0 && strings.TrimSpace(content) != "" && !gjson.Valid(StripFences(content)) {
		c.logger.Warn("unparseable vision response",
			logging.Int("frame", frameIndex),
			logging.String("snippet", snippet(content)))
	}
	return detections, nil
}

// ParseDetections extracts frame detections from a model response,
// tolerating code fences. Background-only and nameless entries are dropped.
func ParseDetections(content string, frameIndex int) []exposure.FrameDetection {
	body := StripFences(content)
	products := gjson.Get(body, "detected_products")
	if !products.Exists() || !products.IsArray() {
		return nil
	}

	var detections []exposure.FrameDetection
	products.ForEach(func(_, det gjson.Result) bool {
		reason := exposure.Reason(det.Get("detection_reason").String())
		if reason == exposure.ReasonBackgroundOnly {
			return true
		}
		name := strings.TrimSpace(det.Get("product_name").String())
		if name == "" {
			return true
		}
		confidence := det.Get("confidence").Float()
		if confidence == 0 && !det.Get("confidence").Exists() {
			confidence = 0.5
		}
		detections = append(detections, exposure.FrameDetection{
			FrameIndex:  frameIndex,
			ProductName: name,
			Confidence:  confidence,
			Reason:      reason,
		})
		return true
	})
	return detections
}

// StripFences removes a surrounding markdown code fence if present.
func StripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if strings.HasPrefix(lines[0], "```") {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func classifyAPIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 || apiErr.StatusCode >= 500 {
			return services.Wrap(services.ErrExternalAPI, "vision", "detect", fmt.Sprintf("http %d", apiErr.StatusCode), err)
		}
		return services.Wrap(services.ErrValidation, "vision", "detect", fmt.Sprintf("http %d", apiErr.StatusCode), err)
	}
	return services.Wrap(services.ErrExternalAPI, "vision", "detect", "", err)
}

func snippet(content string) string {
	content = strings.TrimSpace(content)
	if len(content) > 160 {
		return content[:160] + "..."
	}
	return content
}
