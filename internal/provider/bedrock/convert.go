package bedrock

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"

	"github.com/TeamSparkAI/tsagent-sub003/internal/chat"
	"github.com/TeamSparkAI/tsagent-sub003/internal/provider"
	"github.com/TeamSparkAI/tsagent-sub003/internal/tools"
)

// collectSystem lifts system messages into Converse system blocks.
func collectSystem(history []chat.Message) []types.SystemContentBlock {
	var blocks []types.SystemContentBlock
	for _, msg := range history {
		if msg.Role == chat.RoleSystem && msg.Content != "" {
			blocks = append(blocks, &types.SystemContentBlockMemberText{Value: msg.Content})
		}
	}
	return blocks
}

// toMessages converts the canonical history to Converse messages.
// Each assistant turn becomes an assistant message carrying its text
// and toolUse blocks followed by a user message carrying the matching
// toolResult blocks; approval messages are skipped. Adjacent same-role
// messages are merged because Converse requires strict alternation.
func toMessages(history []chat.Message) []types.Message {
	var out []types.Message
	for _, msg := range history {
		switch msg.Role {
		case chat.RoleUser:
			if msg.Content != "" {
				out = appendBlocks(out, types.ConversationRoleUser, &types.ContentBlockMemberText{Value: msg.Content})
			}
		case chat.RoleAssistant:
			out = appendReply(out, msg.Reply)
		}
	}
	return out
}

func appendReply(out []types.Message, reply *chat.ModelReply) []types.Message {
	if reply == nil {
		return out
	}
	for _, turn := range reply.Turns {
		var assistantBlocks []types.ContentBlock
		var resultBlocks []types.ContentBlock
		for _, result := range turn.Results {
			switch result.Type {
			case chat.ResultTypeText:
				if result.Text != "" {
					assistantBlocks = append(assistantBlocks, &types.ContentBlockMemberText{Value: result.Text})
				}
			case chat.ResultTypeToolCall:
				tc := result.ToolCall
				assistantBlocks = append(assistantBlocks, toolUseBlock(tc.ToolCallRequest))
				resultBlocks = append(resultBlocks, toolResultBlock(*tc))
			}
		}
		out = appendBlocks(out, types.ConversationRoleAssistant, assistantBlocks...)
		out = appendBlocks(out, types.ConversationRoleUser, resultBlocks...)
	}
	return out
}

// appendBlocks adds blocks under the given role, merging into the
// previous message when it has the same role.
func appendBlocks(out []types.Message, role types.ConversationRole, blocks ...types.ContentBlock) []types.Message {
	if len(blocks) == 0 {
		return out
	}
	if n := len(out); n > 0 && out[n-1].Role == role {
		out[n-1].Content = append(out[n-1].Content, blocks...)
		return out
	}
	return append(out, types.Message{Role: role, Content: blocks})
}

func toolUseBlock(call chat.ToolCallRequest) types.ContentBlock {
	args := call.Args
	if args == nil {
		args = map[string]any{}
	}
	return &types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
		ToolUseId: aws.String(call.ToolCallID),
		Name:      aws.String(provider.WireToolName(call.ServerName, call.ToolName)),
		Input:     document.NewLazyDocument(args),
	}}
}

func toolResultBlock(result chat.ToolCallResult) types.ContentBlock {
	content := result.Output
	status := types.ToolResultStatusSuccess
	if result.Error != "" {
		status = types.ToolResultStatusError
		if content == "" {
			content = result.Error
		}
	}
	return &types.ContentBlockMemberToolResult{Value: types.ToolResultBlock{
		ToolUseId: aws.String(result.ToolCallID),
		Content:   []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberText{Value: content}},
		Status:    status,
	}}
}

// toToolConfig converts tool descriptions to the Converse tool
// configuration.
func toToolConfig(infos []tools.Info) *types.ToolConfiguration {
	if len(infos) == 0 {
		return nil
	}
	specs := make([]types.Tool, 0, len(infos))
	for _, info := range infos {
		specs = append(specs, &types.ToolMemberToolSpec{Value: types.ToolSpecification{
			Name:        aws.String(provider.WireToolName(info.ServerName, info.ToolName)),
			Description: aws.String(info.Description),
			InputSchema: &types.ToolInputSchemaMemberJson{
				Value: document.NewLazyDocument(info.InputSchema.AsMap()),
			},
		}})
	}
	return &types.ToolConfiguration{Tools: specs}
}

// toInput assembles the Converse input shared by every exchange of one
// conversation.
func toInput(req *provider.Request, infos []tools.Info) *bedrockruntime.ConverseInput {
	input := &bedrockruntime.ConverseInput{
		ModelId:    aws.String(req.Model),
		Messages:   toMessages(req.History),
		System:     collectSystem(req.History),
		ToolConfig: toToolConfig(infos),
	}
	inference := &types.InferenceConfiguration{}
	configured := false
	if req.MaxOutputTokens > 0 {
		inference.MaxTokens = aws.Int32(int32(req.MaxOutputTokens))
		configured = true
	}
	if req.Temperature != nil {
		inference.Temperature = aws.Float32(float32(*req.Temperature))
		configured = true
	}
	if req.TopP != nil {
		inference.TopP = aws.Float32(float32(*req.TopP))
		configured = true
	}
	if configured {
		input.InferenceConfig = inference
	}
	return input
}

// fromOutput converts a Converse response to ordered exchange items
// plus the raw message to feed back into the conversation. Tool use
// blocks keep their native identifiers.
func fromOutput(out *bedrockruntime.ConverseOutput) (*provider.ExchangeResult, *types.Message, error) {
	member, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected output type %T", out.Output)
	}
	msg := member.Value

	result := &provider.ExchangeResult{}
	for _, block := range msg.Content {
		switch variant := block.(type) {
		case *types.ContentBlockMemberText:
			if variant.Value != "" {
				result.Items = append(result.Items, provider.Item{Text: variant.Value})
			}
		case *types.ContentBlockMemberToolUse:
			args := map[string]any{}
			if variant.Value.Input != nil {
				if err := variant.Value.Input.UnmarshalSmithyDocument(&args); err != nil {
					return nil, nil, fmt.Errorf("decode tool input: %w", err)
				}
			}
			serverName, toolName := provider.ParseWireToolName(aws.ToString(variant.Value.Name))
			result.Items = append(result.Items, provider.Item{Call: &chat.ToolCallRequest{
				ServerName: serverName,
				ToolName:   toolName,
				Args:       args,
				ToolCallID: aws.ToString(variant.Value.ToolUseId),
			}})
		}
	}
	if usage := out.Usage; usage != nil {
		result.InputTokens = int(aws.ToInt32(usage.InputTokens))
		result.OutputTokens = int(aws.ToInt32(usage.OutputTokens))
	}
	return result, &msg, nil
}
