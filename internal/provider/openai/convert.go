package openai

import (
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/TeamSparkAI/tsagent-sub003/internal/chat"
	"github.com/TeamSparkAI/tsagent-sub003/internal/provider"
	"github.com/TeamSparkAI/tsagent-sub003/internal/tools"
)

// toMessages converts the canonical history to Chat Completions
// params. System messages travel inline in history order, each
// assistant turn becomes an assistant message followed by one tool
// message per tool result, and approval messages are skipped.
func toMessages(history []chat.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case chat.RoleSystem:
			if msg.Content != "" {
				out = append(out, openai.SystemMessage(msg.Content))
			}
		case chat.RoleUser:
			if msg.Content != "" {
				out = append(out, openai.UserMessage(msg.Content))
			}
		case chat.RoleAssistant:
			out = appendReply(out, msg.Reply)
		}
	}
	return out
}

func appendReply(out []openai.ChatCompletionMessageParamUnion, reply *chat.ModelReply) []openai.ChatCompletionMessageParamUnion {
	if reply == nil {
		return out
	}
	for _, turn := range reply.Turns {
		var content string
		var toolCalls []openai.ChatCompletionMessageToolCallParam
		var results []chat.ToolCallResult
		for _, result := range turn.Results {
			switch result.Type {
			case chat.ResultTypeText:
				content += result.Text
			case chat.ResultTypeToolCall:
				tc := result.ToolCall
				toolCalls = append(toolCalls, toolCallParam(tc.ToolCallRequest))
				results = append(results, *tc)
			}
		}
		if len(toolCalls) == 0 {
			if content != "" {
				out = append(out, openai.AssistantMessage(content))
			}
			continue
		}
		assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
		if content != "" {
			assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(content)}
		}
		out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		for _, result := range results {
			out = append(out, toolMessage(result))
		}
	}
	return out
}

func toolCallParam(call chat.ToolCallRequest) openai.ChatCompletionMessageToolCallParam {
	args := "{}"
	if len(call.Args) > 0 {
		if raw, err := json.Marshal(call.Args); err == nil {
			args = string(raw)
		}
	}
	return openai.ChatCompletionMessageToolCallParam{
		ID: call.ToolCallID,
		Function: openai.ChatCompletionMessageToolCallFunctionParam{
			Name:      provider.WireToolName(call.ServerName, call.ToolName),
			Arguments: args,
		},
	}
}

func toolMessage(result chat.ToolCallResult) openai.ChatCompletionMessageParamUnion {
	content := result.Output
	if content == "" && result.Error != "" {
		content = result.Error
	}
	return openai.ToolMessage(content, result.ToolCallID)
}

// toTools converts tool descriptions to Chat Completions function
// definitions.
func toTools(infos []tools.Info) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(infos))
	for _, info := range infos {
		fn := shared.FunctionDefinitionParam{
			Name:        provider.WireToolName(info.ServerName, info.ToolName),
			Description: openai.String(info.Description),
			Parameters:  shared.FunctionParameters(info.InputSchema.AsMap()),
		}
		out = append(out, openai.ChatCompletionToolParam{Function: fn})
	}
	return out
}

// toParams assembles the request params shared by every exchange of
// one conversation.
func toParams(req *provider.Request, infos []tools.Info) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: toMessages(req.History),
	}
	if req.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxOutputTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = openai.Float(*req.TopP)
	}
	if len(infos) > 0 {
		params.Tools = toTools(infos)
	}
	return params
}

// fromCompletion converts an API response to ordered exchange items.
// Chat Completions report text and tool calls separately, text first.
func fromCompletion(resp *openai.ChatCompletion) (*provider.ExchangeResult, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}
	choice := resp.Choices[0]

	out := &provider.ExchangeResult{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}
	if choice.Message.Content != "" {
		out.Items = append(out.Items, provider.Item{Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		}
		serverName, toolName := provider.ParseWireToolName(tc.Function.Name)
		out.Items = append(out.Items, provider.Item{Call: &chat.ToolCallRequest{
			ServerName: serverName,
			ToolName:   toolName,
			Args:       args,
			ToolCallID: tc.ID,
		}})
	}
	return out, nil
}
