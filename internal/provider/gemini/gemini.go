// Package gemini adapts the Google Gemini API to the provider
// contract. Gemini takes system text as an out-of-band instruction,
// pairs function responses to calls by name, and omits call
// identifiers, so the generic loop synthesizes them.
package gemini

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/TeamSparkAI/tsagent-sub003/internal/chat"
	"github.com/TeamSparkAI/tsagent-sub003/internal/provider"
)

// Backend is the identity this adapter registers under.
const Backend = "gemini"

// Adapter implements the provider contract for Google Gemini.
type Adapter struct {
	client Client
}

// New creates an Adapter. The API key falls back to GEMINI_API_KEY
// when the configured value is empty; construction fails without one.
func New(ctx context.Context, apiKey string) (*Adapter, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", provider.ErrMissingAPIKey)
	}
	client, err := NewClient(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &Adapter{client: client}, nil
}

// NewWithClient creates an Adapter over an existing client.
func NewWithClient(client Client) *Adapter {
	return &Adapter{client: client}
}

// ListModels returns the conversational models available to the key.
func (a *Adapter) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	return a.client.ListModels(ctx)
}

// GenerateReply translates the history, then hands the conversation to
// the generic turn loop.
func (a *Adapter) GenerateReply(ctx context.Context, req *provider.Request) *chat.ModelReply {
	infos, err := req.Tools.ListTools(ctx)
	if err != nil {
		return provider.ErrorReply(err)
	}
	conv := &conversation{
		client:   a.client,
		model:    req.Model,
		config:   toConfig(req, systemInstruction(req.History), toTools(infos)),
		contents: toContents(req.History),
	}
	return provider.RunLoop(ctx, req, conv)
}

// conversation accumulates Gemini contents across the turn loop.
type conversation struct {
	client   Client
	model    string
	config   *genai.GenerateContentConfig
	contents []*genai.Content
}

func (c *conversation) AppendToolUse(call chat.ToolCallRequest) {
	c.contents = append(c.contents, &genai.Content{
		Role:  "model",
		Parts: []*genai.Part{toolUsePart(call)},
	})
}

func (c *conversation) AppendToolResult(result chat.ToolCallResult) {
	c.contents = append(c.contents, &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{functionResponsePart(result)},
	})
}

func (c *conversation) Exchange(ctx context.Context) (*provider.ExchangeResult, error) {
	resp, err := c.client.GenerateContent(ctx, c.model, c.contents, c.config)
	if err != nil {
		return nil, err
	}
	out, content, err := fromResponse(resp)
	if err != nil {
		return nil, err
	}
	c.contents = append(c.contents, content)
	return out, nil
}
