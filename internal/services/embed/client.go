package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"livelens/internal/config"
	"livelens/internal/services"
)

// Client issues batch embedding requests.
type Client struct {
	api   openai.Client
	model string
	retry *services.RetryPolicy
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

// NewClient builds an embedding client from configuration.
func NewClient(cfg config.OpenAI, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "embed", "new client", "api key required", nil)
	}
	requestOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.BaseURL))
	}
	client := &Client{
		api:   openai.NewClient(requestOpts...),
		model: cfg.EmbedModel,
		retry: services.NewRetryPolicy(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// EmbedTexts embeds every text in one batch request and returns the raw
// vectors in input order. Normalization happens in the clustering engine.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, services.Wrap(services.ErrValidation, "embed", "embed texts",
				fmt.Sprintf("empty text at index %d", i), nil)
		}
	}

	var vectors [][]float64
	err := c.retry.Do(ctx, "embed texts", func(ctx context.Context) error {
		resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Model: c.model,
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
		})
		if err != nil {
			return classifyAPIError(err)
		}
		if len(resp.Data) != len(texts) {
			return services.Wrap(services.ErrExternalAPI, "embed", "embed texts",
				fmt.Sprintf("got %d vectors for %d texts", len(resp.Data), len(texts)), nil)
		}
		vectors = make([][]float64, len(resp.Data))
		for i, item := range resp.Data {
			vectors[i] = item.Embedding
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

func classifyAPIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 || apiErr.StatusCode >= 500 {
			return services.Wrap(services.ErrExternalAPI, "embed", "embed texts", fmt.Sprintf("http %d", apiErr.StatusCode), err)
		}
		return services.Wrap(services.ErrValidation, "embed", "embed texts", fmt.Sprintf("http %d", apiErr.StatusCode), err)
	}
	return services.Wrap(services.ErrExternalAPI, "embed", "embed texts", "", err)
}
