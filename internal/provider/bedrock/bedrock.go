// Package bedrock adapts the Amazon Bedrock Converse API to the
// provider contract. Converse supplies native tool call identifiers,
// takes system text as top-level blocks, requires strictly alternating
// user and assistant messages, and carries tool schemas and arguments
// as smithy documents.
package bedrock

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/TeamSparkAI/tsagent-sub003/internal/chat"
	"github.com/TeamSparkAI/tsagent-sub003/internal/provider"
)

// Backend is the identity this adapter registers under.
const Backend = "bedrock"

// Adapter implements the provider contract for Amazon Bedrock.
type Adapter struct {
	client Client
}

// New creates an Adapter bound to one region. Credentials come from
// the default AWS chain.
func New(ctx context.Context, region string) (*Adapter, error) {
	client, err := NewClient(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("bedrock: %w", err)
	}
	return &Adapter{client: client}, nil
}

// NewWithClient creates an Adapter over an existing client.
func NewWithClient(client Client) *Adapter {
	return &Adapter{client: client}
}

// ListModels returns the foundation models available in the region.
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
		input:  toInput(req, infos),
	}
	return provider.RunLoop(ctx, req, conv)
}

// conversation accumulates Converse input across the turn loop.
type conversation struct {
	client Client
	input  *bedrockruntime.ConverseInput
}

func (c *conversation) AppendToolUse(call chat.ToolCallRequest) {
	c.input.Messages = appendBlocks(c.input.Messages, types.ConversationRoleAssistant, toolUseBlock(call))
}

func (c *conversation) AppendToolResult(result chat.ToolCallResult) {
	c.input.Messages = appendBlocks(c.input.Messages, types.ConversationRoleUser, toolResultBlock(result))
}

func (c *conversation) Exchange(ctx context.Context) (*provider.ExchangeResult, error) {
	out, err := c.client.Converse(ctx, c.input)
	if err != nil {
		return nil, err
	}
	result, msg, err := fromOutput(out)
	if err != nil {
		return nil, err
	}
	c.input.Messages = append(c.input.Messages, *msg)
	return result, nil
}
