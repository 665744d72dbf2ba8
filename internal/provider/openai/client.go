package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/TeamSparkAI/tsagent-sub003/internal/provider"
)

// Client defines the interface for interacting with the OpenAI API.
// This abstraction allows for easier testing and potential future implementations.
type Client interface {
	// NewCompletion sends a request to the Chat Completions API and returns the response
	NewCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)

	// ListModels returns the models the API key can use
	ListModels(ctx context.Context) ([]provider.ModelInfo, error)
}

// apiClient wraps the official SDK client to satisfy Client.
type apiClient struct {
	client openai.Client
}

// NewClient creates a Client backed by the official SDK. A non-empty
// baseURL redirects requests to a compatible gateway.
func NewClient(apiKey, baseURL string) Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &apiClient{client: openai.NewClient(opts...)}
}

func (c *apiClient) NewCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}

func (c *apiClient) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	page, err := c.client.Models.List(ctx)
	if err != nil {
		return nil, err
	}
	models := make([]provider.ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		models = append(models, provider.ModelInfo{ID: m.ID, Name: m.ID})
	}
	return models, nil
}
