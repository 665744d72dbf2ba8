// Package openai adapts the OpenAI Chat Completions API to the
// provider contract. The API supplies native tool call identifiers,
// keeps system text inline in message order, and takes one tool
// message per tool result.
package openai

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"

	"github.com/TeamSparkAI/tsagent-sub003/internal/chat"
	"github.com/TeamSparkAI/tsagent-sub003/internal/provider"
)

// Backend is the identity this adapter registers under.
const Backend = "openai"

// Adapter implements the provider contract for OpenAI and compatible
// gateways.
type Adapter struct {
	client Client
}

// New creates an Adapter. The API key falls back to OPENAI_API_KEY
// when the configured value is empty; construction fails without one.
func New(apiKey, baseURL string) (*Adapter, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", provider.ErrMissingAPIKey)
	}
	return &Adapter{client: NewClient(apiKey, baseURL)}, nil
}

// NewWithClient creates an Adapter over an existing client.
func NewWithClient(client Client) *Adapter {
	return &Adapter{client: client}
}

// ListModels returns the models available to the key.
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
		client: a.client,
		params: toParams(req, infos),
	}
	return provider.RunLoop(ctx, req, conv)
}

// conversation accumulates Chat Completions params across the turn
// loop.
type conversation struct {
	client Client
	params openai.ChatCompletionNewParams
}

func (c *conversation) AppendToolUse(call chat.ToolCallRequest) {
	assistant := openai.ChatCompletionAssistantMessageParam{
		ToolCalls: []openai.ChatCompletionMessageToolCallParam{toolCallParam(call)},
	}
	c.params.Messages = append(c.params.Messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
}

func (c *conversation) AppendToolResult(result chat.ToolCallResult) {
	c.params.Messages = append(c.params.Messages, toolMessage(result))
}

func (c *conversation) Exchange(ctx context.Context) (*provider.ExchangeResult, error) {
	resp, err := c.client.NewCompletion(ctx, c.params)
	if err != nil {
		return nil, err
	}
	out, err := fromCompletion(resp)
	if err != nil {
		return nil, err
	}
	c.params.Messages = append(c.params.Messages, resp.Choices[0].Message.ToParam())
	return out, nil
}
