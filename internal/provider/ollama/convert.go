package ollama

import (
	"github.com/TeamSparkAI/tsagent-sub003/internal/chat"
	"github.com/TeamSparkAI/tsagent-sub003/internal/provider"
	"github.com/TeamSparkAI/tsagent-sub003/internal/tools"
)

// toMessages converts the canonical history to Ollama chat messages.
// System messages travel inline in history order, each assistant turn
// becomes an assistant message followed by one tool message per tool
// result, and approval messages are skipped.
func toMessages(history []chat.Message) []chatMessage {
	out := make([]chatMessage, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case chat.RoleSystem:
			if msg.Content != "" {
				out = append(out, chatMessage{Role: "system", Content: msg.Content})
			}
		case chat.RoleUser:
			if msg.Content != "" {
				out = append(out, chatMessage{Role: "user", Content: msg.Content})
			}
		case chat.RoleAssistant:
			out = appendReply(out, msg.Reply)
		}
	}
	return out
}

func appendReply(out []chatMessage, reply *chat.ModelReply) []chatMessage {
	if reply == nil {
		return out
	}
	for _, turn := range reply.Turns {
		var content string
		var calls []toolCall
		var results []chat.ToolCallResult
		for _, result := range turn.Results {
			switch result.Type {
			case chat.ResultTypeText:
				content += result.Text
			case chat.ResultTypeToolCall:
				tc := result.ToolCall
				calls = append(calls, toToolCall(tc.ToolCallRequest))
				results = append(results, *tc)
			}
		}
		if content == "" && len(calls) == 0 {
			continue
		}
		out = append(out, chatMessage{Role: "assistant", Content: content, ToolCalls: calls})
		for _, result := range results {
			out = append(out, toolResultMessage(result))
		}
	}
	return out
}

func toToolCall(call chat.ToolCallRequest) toolCall {
	return toolCall{Function: toolCallFunction{
		Name:      provider.WireToolName(call.ServerName, call.ToolName),
		Arguments: call.Args,
	}}
}

func toolResultMessage(result chat.ToolCallResult) chatMessage {
	content := result.Output
	if content == "" && result.Error != "" {
		content = result.Error
	}
	return chatMessage{Role: "tool", Content: content}
}

// toTools converts tool descriptions to Ollama function definitions.
func toTools(infos []tools.Info) []toolDef {
	out := make([]toolDef, 0, len(infos))
	for _, info := range infos {
		out = append(out, toolDef{
			Type: "function",
			Function: toolFunction{
				Name:        provider.WireToolName(info.ServerName, info.ToolName),
				Description: info.Description,
				Parameters:  info.InputSchema.AsMap(),
			},
		})
	}
	return out
}

// toRequest assembles the chat request shared by every exchange of one
// conversation.
func toRequest(req *provider.Request, infos []tools.Info) *chatRequest {
	out := &chatRequest{
		Model:    req.Model,
		Messages: toMessages(req.History),
		Stream:   false,
	}
	if len(infos) > 0 {
		out.Tools = toTools(infos)
	}
	options := map[string]any{}
	if req.MaxOutputTokens > 0 {
		options["num_predict"] = req.MaxOutputTokens
	}
	if req.Temperature != nil {
		options["temperature"] = *req.Temperature
	}
	if req.TopP != nil {
		options["top_p"] = *req.TopP
	}
	if len(options) > 0 {
		out.Options = options
	}
	return out
}

// fromResponse converts a chat response to ordered exchange items.
// Ollama reports text and tool calls separately, text first, and
// never supplies call identifiers.
func fromResponse(resp *chatResponse) *provider.ExchangeResult {
	out := &provider.ExchangeResult{
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
	}
	if resp.Message.Content != "" {
		out.Items = append(out.Items, provider.Item{Text: resp.Message.Content})
	}
	for _, tc := range resp.Message.ToolCalls {
		serverName, toolName := provider.ParseWireToolName(tc.Function.Name)
		out.Items = append(out.Items, provider.Item{Call: &chat.ToolCallRequest{
			ServerName: serverName,
			ToolName:   toolName,
			Args:       tc.Function.Arguments,
		}})
	}
	return out
}
