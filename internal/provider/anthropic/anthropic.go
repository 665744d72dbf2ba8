// Package anthropic adapts the Anthropic Messages API to the provider
// contract. The API supplies native tool call identifiers, takes
// system text as top-level blocks, and requires tool results packed
// into user messages that follow the assistant's tool_use blocks.
package anthropic

import (
	"context"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/TeamSparkAI/tsagent-sub003/internal/chat"
	"github.com/TeamSparkAI/tsagent-sub003/internal/provider"
)

// Backend is the identity this adapter registers under.
const Backend = "anthropic"

// Adapter implements the provider contract for Anthropic.
type Adapter struct {
	client Client
}

// New creates an Adapter. The API key falls back to ANTHROPIC_API_KEY
// when the configured value is empty; construction fails without one.
func New(apiKey, baseURL string) (*Adapter, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: %w", provider.ErrMissingAPIKey)
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

// conversation accumulates Messages API params across the turn loop.
type conversation struct {
	client Client
	params anthropic.MessageNewParams
}

func (c *conversation) AppendToolUse(call chat.ToolCallRequest) {
	c.params.Messages = appendBlocks(c.params.Messages, anthropic.MessageParamRoleAssistant, toolUseBlock(call))
}

func (c *conversation) AppendToolResult(result chat.ToolCallResult) {
	c.params.Messages = appendBlocks(c.params.Messages, anthropic.MessageParamRoleUser, toolResultBlock(result))
}

func (c *conversation) Exchange(ctx context.Context) (*provider.ExchangeResult, error) {
	msg, err := c.client.NewMessage(ctx, c.params)
	if err != nil {
		return nil, err
	}
	c.params.Messages = append(c.params.Messages, msg.ToParam())
	return fromMessage(msg), nil
}
