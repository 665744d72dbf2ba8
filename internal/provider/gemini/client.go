package gemini

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/TeamSparkAI/tsagent-sub003/internal/provider"
)

// Client defines the interface for interacting with the Gemini API.
// This abstraction allows for easier testing and potential future implementations.
type Client interface {
	// GenerateContent sends a request to the Gemini API and returns the response
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

	// ListModels returns the conversational models the API key can use
	ListModels(ctx context.Context) ([]provider.ModelInfo, error)
}

// apiClient wraps the official SDK client to satisfy Client.
type apiClient struct {
	client *genai.Client
}

// NewClient creates a Client backed by the official SDK.
func NewClient(ctx context.Context, apiKey string) (Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &apiClient{client: c}, nil
}

func (c *apiClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, model, contents, config)
}

// ListModels filters the catalog to text generation models, excluding
// embedding, image, audio, live, and robotics variants.
func (c *apiClient) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	var models []provider.ModelInfo
	for model, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(model.Name, "models/gemini-") ||
			strings.Contains(model.Name, "embedding") ||
			strings.Contains(model.Name, "image") ||
			strings.Contains(model.Name, "audio") ||
			strings.Contains(model.Name, "live") ||
			strings.Contains(model.Name, "robotic") {
			continue
		}
		models = append(models, provider.ModelInfo{
			ID:          strings.TrimPrefix(model.Name, "models/"),
			Name:        model.DisplayName,
			Description: model.Description,
		})
	}
	return models, nil
}
