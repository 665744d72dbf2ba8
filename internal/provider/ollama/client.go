package ollama

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/TeamSparkAI/tsagent-sub003/internal/provider"
)

// chatMessage is one entry in the Ollama chat payload. Tool results
// travel as role "tool" messages and carry no call identifier.
type chatMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
}

type toolCall struct {
	Function toolCallFunction `json:"function"`
}

type toolCallFunction struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type toolDef struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Tools    []toolDef      `json:"tools,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message         chatMessage `json:"message"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Client defines the interface for interacting with an Ollama server.
// This abstraction allows for easier testing and potential future implementations.
type Client interface {
	// Chat sends a request to the chat endpoint and returns the response
	Chat(ctx context.Context, req *chatRequest) (*chatResponse, error)

	// ListModels returns the models pulled on the server
	ListModels(ctx context.Context) ([]provider.ModelInfo, error)
}

// httpClient talks to the Ollama HTTP API.
type httpClient struct {
	host   string
	client *resty.Client
}

// NewClient creates a Client for the given host, such as
// http://localhost:11434.
func NewClient(host string) Client {
	client := resty.New()
	client.SetTimeout(120 * time.Second)
	client.SetRetryCount(2)
	client.SetRetryWaitTime(1 * time.Second)
	client.SetRetryMaxWaitTime(5 * time.Second)

	return &httpClient{host: host, client: client}
}

func (c *httpClient) Chat(ctx context.Context, req *chatRequest) (*chatResponse, error) {
	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.host + "/api/chat")
	if err != nil {
		return nil, fmt.Errorf("ollama chat request failed: %w", err)
	}
	if response.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("ollama returned %d: %s", response.StatusCode(), response.String())
	}

	var result chatResponse
	if err := response.Unmarshal(&result); err != nil {
		return nil, fmt.Errorf("parse ollama response: %w", err)
	}
	return &result, nil
}

func (c *httpClient) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	response, err := c.client.R().
		SetContext(ctx).
		Get(c.host + "/api/tags")
	if err != nil {
		return nil, fmt.Errorf("ollama tags request failed: %w", err)
	}
	if response.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("ollama returned %d: %s", response.StatusCode(), response.String())
	}

	var result tagsResponse
	if err := response.Unmarshal(&result); err != nil {
		return nil, fmt.Errorf("parse ollama response: %w", err)
	}
	models := make([]provider.ModelInfo, 0, len(result.Models))
	for _, m := range result.Models {
		models = append(models, provider.ModelInfo{ID: m.Name, Name: m.Name})
	}
	return models, nil
}
