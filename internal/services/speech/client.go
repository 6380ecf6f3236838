package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"livelens/internal/config"
	"livelens/internal/exposure"
	"livelens/internal/services"
)

const defaultHTTPTimeout = 10 * time.Minute

// Client uploads audio files for transcription. The audio endpoint takes
// multipart uploads, so this client speaks HTTP directly instead of going
// through the SDK.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	retry      *services.RetryPolicy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy *services.RetryPolicy) Option {
	return func(c *Client) {
		if policy != nil {
			c.retry = policy
		}
	}
}

// NewClient builds a transcription client from configuration.
func NewClient(cfg config.OpenAI, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "speech", "new client", "api key required", nil)
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    baseURL,
		model:      cfg.TranscribeModel,
		httpClient: &http.Client{Timeout: timeout},
		retry:      services.NewRetryPolicy(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Transcribe uploads the audio file and returns timestamped segments.
func (c *Client) Transcribe(ctx context.Context, audioPath string) ([]exposure.TranscriptSegment, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "speech", "read audio", audioPath, err)
	}

	var segments []exposure.TranscriptSegment
	err = c.retry.Do(ctx, "speech transcribe", func(ctx context.Context) error {
		body, err := c.requestOnce(ctx, filepath.Base(audioPath), audio)
		if err != nil {
			return err
		}
		segments = ParseSegments(body)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return segments, nil
}

func (c *Client) requestOnce(ctx context.Context, filename string, audio []byte) (string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "speech", "build form", "", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", services.Wrap(services.ErrTransient, "speech", "build form", "", err)
	}
	_ = form.WriteField("model", c.model)
	_ = form.WriteField("response_format", "verbose_json")
	if err := form.Close(); err != nil {
		return "", services.Wrap(services.ErrTransient, "speech", "build form", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "speech", "new request", "", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExternalAPI, "speech", "transcribe", "http error", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrExternalAPI, "speech", "transcribe", "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		marker := services.ErrExternalAPI
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			marker = services.ErrValidation
		}
		return "", services.Wrap(marker, "speech", "transcribe",
			fmt.Sprintf("http %d: %s", resp.StatusCode, snippet(body)), nil)
	}
	return string(body), nil
}

// ParseSegments extracts timestamped segments from a verbose_json payload.
// A payload without segments but with text becomes one segment spanning the
// reported duration.
func ParseSegments(body string) []exposure.TranscriptSegment {
	raw := gjson.Get(body, "segments")
	if raw.IsArray() {
		var segments []exposure.TranscriptSegment
		raw.ForEach(func(_, seg gjson.Result) bool {
			text := strings.TrimSpace(seg.Get("text").String())
			if text == "" {
				return true
			}
			segments = append(segments, exposure.TranscriptSegment{
				Start: seg.Get("start").Float(),
				End:   seg.Get("end").Float(),
				Text:  text,
			})
			return true
		})
		if len(segments) > 0 {
			return segments
		}
	}

	text := strings.TrimSpace(gjson.Get(body, "text").String())
	if text == "" {
		return nil
	}
	return []exposure.TranscriptSegment{{
		Start: 0,
		End:   gjson.Get(body, "duration").Float(),
		Text:  text,
	}}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
