package anthropic

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/TeamSparkAI/tsagent-sub003/internal/chat"
	"github.com/TeamSparkAI/tsagent-sub003/internal/provider"
	"github.com/TeamSparkAI/tsagent-sub003/internal/tools"
)

// collectSystem lifts system messages out of the history. The Messages
// API takes them as top-level system blocks, one per message.
func collectSystem(history []chat.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, msg := range history {
		if msg.Role == chat.RoleSystem && msg.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: msg.Content})
		}
	}
	return blocks
}

// toMessages converts the canonical history to Messages API params.
// Each assistant turn becomes an assistant message carrying its text
// and tool_use blocks followed by a user message carrying the matching
// tool_result blocks; approval messages are skipped. Adjacent
// same-role messages are merged because the API requires alternating
// roles.
func toMessages(history []chat.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, msg := range history {
		switch msg.Role {
		case chat.RoleUser:
			if msg.Content != "" {
				out = appendBlocks(out, anthropic.MessageParamRoleUser, anthropic.NewTextBlock(msg.Content))
			}
		case chat.RoleAssistant:
			out = appendReply(out, msg.Reply)
		}
	}
	return out
}

func appendReply(out []anthropic.MessageParam, reply *chat.ModelReply) []anthropic.MessageParam {
	if reply == nil {
		return out
	}
	for _, turn := range reply.Turns {
		var assistantBlocks []anthropic.ContentBlockParamUnion
		var resultBlocks []anthropic.ContentBlockParamUnion
		for _, result := range turn.Results {
			switch result.Type {
			case chat.ResultTypeText:
				if result.Text != "" {
					assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(result.Text))
				}
			case chat.ResultTypeToolCall:
				tc := result.ToolCall
				assistantBlocks = append(assistantBlocks, toolUseBlock(tc.ToolCallRequest))
				resultBlocks = append(resultBlocks, toolResultBlock(*tc))
			}
		}
		out = appendBlocks(out, anthropic.MessageParamRoleAssistant, assistantBlocks...)
		out = appendBlocks(out, anthropic.MessageParamRoleUser, resultBlocks...)
	}
	return out
}

// appendBlocks adds blocks under the given role, merging into the
// previous message when it has the same role.
func appendBlocks(out []anthropic.MessageParam, role anthropic.MessageParamRole, blocks ...anthropic.ContentBlockParamUnion) []anthropic.MessageParam {
	if len(blocks) == 0 {
		return out
	}
	if n := len(out); n > 0 && out[n-1].Role == role {
		out[n-1].Content = append(out[n-1].Content, blocks...)
		return out
	}
	return append(out, anthropic.MessageParam{Role: role, Content: blocks})
}

func toolUseBlock(call chat.ToolCallRequest) anthropic.ContentBlockParamUnion {
	return anthropic.NewToolUseBlock(call.ToolCallID, call.Args, provider.WireToolName(call.ServerName, call.ToolName))
}

func toolResultBlock(result chat.ToolCallResult) anthropic.ContentBlockParamUnion {
	content := result.Output
	if content == "" && result.Error != "" {
		content = result.Error
	}
	return anthropic.NewToolResultBlock(result.ToolCallID, content, result.Error != "")
}

// toTools converts tool descriptions to Messages API tool params.
func toTools(infos []tools.Info) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(infos))
	for _, info := range infos {
		schema := info.InputSchema.AsMap()
		param := anthropic.ToolParam{
			Name:        provider.WireToolName(info.ServerName, info.ToolName),
			Description: anthropic.String(info.Description),
			InputSchema: anthropic.ToolInputSchemaParam{Type: "object", Properties: schema["properties"]},
		}
		if info.InputSchema != nil && len(info.InputSchema.Required) > 0 {
			param.InputSchema.Required = info.InputSchema.Required
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &param})
	}
	return out
}

// toParams assembles the request params shared by every exchange of
// one conversation.
func toParams(req *provider.Request, infos []tools.Info) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxOutputTokens),
		Messages:  toMessages(req.History),
		System:    collectSystem(req.History),
	}
	if len(infos) > 0 {
		params.Tools = toTools(infos)
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = anthropic.Float(*req.TopP)
	}
	return params
}

// fromMessage converts an API response to ordered exchange items.
// Tool use blocks keep their native identifiers.
func fromMessage(msg *anthropic.Message) *provider.ExchangeResult {
	out := &provider.ExchangeResult{
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			if variant.Text != "" {
				out.Items = append(out.Items, provider.Item{Text: variant.Text})
			}
		case anthropic.ToolUseBlock:
			args := map[string]any{}
			if len(variant.Input) > 0 {
				_ = json.Unmarshal(variant.Input, &args)
			}
			serverName, toolName := provider.ParseWireToolName(variant.Name)
			out.Items = append(out.Items, provider.Item{Call: &chat.ToolCallRequest{
				ServerName: serverName,
				ToolName:   toolName,
				Args:       args,
				ToolCallID: variant.ID,
			}})
		}
	}
	return out
}
