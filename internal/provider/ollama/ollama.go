// Package ollama adapts a local Ollama server to the provider
// contract over its HTTP chat API. Ollama keeps system text inline,
// pairs tool results to calls by position, and omits call
// identifiers, so the generic loop synthesizes them.
package ollama

import (
	"context"

	"github.com/TeamSparkAI/tsagent-sub003/internal/chat"
	"github.com/TeamSparkAI/tsagent-sub003/internal/provider"
)

// Backend is the identity this adapter registers under.
const Backend = "ollama"

// Adapter implements the provider contract for Ollama.
type Adapter struct {
	client Client
}

// New creates an Adapter for the given host. No credential is needed;
// reachability failures surface on first use.
func New(host string) *Adapter {
	return &Adapter{client: NewClient(host)}
}

// NewWithClient creates an Adapter over an existing client.
func NewWithClient(client Client) *Adapter {
	return &Adapter{client: client}
}

// ListModels returns the models pulled on the server.
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
		req:    toRequest(req, infos),
	}
	return provider.RunLoop(ctx, req, conv)
}

// conversation accumulates chat messages across the turn loop.
type conversation struct {
	client Client
	req    *chatRequest
}

func (c *conversation) AppendToolUse(call chat.ToolCallRequest) {
	c.req.Messages = append(c.req.Messages, chatMessage{
		Role:      "assistant",
		ToolCalls: []toolCall{toToolCall(call)},
	})
}

func (c *conversation) AppendToolResult(result chat.ToolCallResult) {
	c.req.Messages = append(c.req.Messages, toolResultMessage(result))
}

func (c *conversation) Exchange(ctx context.Context) (*provider.ExchangeResult, error) {
	resp, err := c.client.Chat(ctx, c.req)
	if err != nil {
		return nil, err
	}
	c.req.Messages = append(c.req.Messages, resp.Message)
	return fromResponse(resp), nil
}
