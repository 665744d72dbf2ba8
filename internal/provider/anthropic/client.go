package anthropic

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/TeamSparkAI/tsagent-sub003/internal/provider"
)

// Client defines the interface for interacting with the Anthropic API.
// This abstraction allows for easier testing and potential future implementations.
type Client interface {
	// NewMessage sends a request to the Messages API and returns the response
	NewMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)

	// ListModels returns the models the API key can use
	ListModels(ctx context.Context) ([]provider.ModelInfo, error)
}

// apiClient wraps the official SDK client to satisfy Client.
type apiClient struct {
	client anthropic.Client
}

// NewClient creates a Client backed by the official SDK. A non-empty
// baseURL redirects requests to a compatible gateway.
func NewClient(apiKey, baseURL string) Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &apiClient{client: anthropic.NewClient(opts...)}
}

func (c *apiClient) NewMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	return c.client.Messages.New(ctx, params)
}

func (c *apiClient) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	page, err := c.client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		return nil, err
	}
	models := make([]provider.ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		models = append(models, provider.ModelInfo{
			ID:   string(m.ID),
			Name: m.DisplayName,
		})
	}
	return models, nil
}
