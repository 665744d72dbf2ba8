package gemini

import (
	"fmt"

	"google.golang.org/genai"

	"github.com/TeamSparkAI/tsagent-sub003/internal/chat"
	"github.com/TeamSparkAI/tsagent-sub003/internal/provider"
	"github.com/TeamSparkAI/tsagent-sub003/internal/tools"
)

// systemInstruction collects every system message into one instruction
// content. Gemini takes system text out of band rather than as history.
func systemInstruction(history []chat.Message) *genai.Content {
	var parts []*genai.Part
	for _, msg := range history {
		if msg.Role == chat.RoleSystem && msg.Content != "" {
			parts = append(parts, genai.NewPartFromText(msg.Content))
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return &genai.Content{Parts: parts}
}

// toContents converts the canonical history to Gemini Content format.
// System messages are lifted into the system instruction and approval
// messages are skipped: a resolved approval's effects are replayed
// natively by the conversation, and an unresolved one never reaches a
// backend.
func toContents(history []chat.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case chat.RoleUser:
			if msg.Content != "" {
				contents = append(contents, &genai.Content{
					Role:  "user",
					Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
				})
			}
		case chat.RoleAssistant:
			contents = append(contents, replyToContents(msg.Reply)...)
		}
	}
	return contents
}

// replyToContents expands one assistant reply. Each turn becomes a
// model content holding its text and function call parts, followed by
// a user content carrying the function responses. Pending calls are
// not part of any turn and therefore never appear here.
func replyToContents(reply *chat.ModelReply) []*genai.Content {
	if reply == nil {
		return nil
	}
	var contents []*genai.Content
	for _, turn := range reply.Turns {
		var modelParts []*genai.Part
		var responseParts []*genai.Part
		for _, result := range turn.Results {
			switch result.Type {
			case chat.ResultTypeText:
				if result.Text != "" {
					modelParts = append(modelParts, genai.NewPartFromText(result.Text))
				}
			case chat.ResultTypeToolCall:
				tc := result.ToolCall
				modelParts = append(modelParts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						Name: provider.WireToolName(tc.ServerName, tc.ToolName),
						Args: tc.Args,
					},
				})
				responseParts = append(responseParts, functionResponsePart(*tc))
			}
		}
		if len(modelParts) > 0 {
			contents = append(contents, &genai.Content{Role: "model", Parts: modelParts})
		}
		if len(responseParts) > 0 {
			contents = append(contents, &genai.Content{Role: "user", Parts: responseParts})
		}
	}
	return contents
}

// functionResponsePart builds the response part for one tool outcome.
func functionResponsePart(result chat.ToolCallResult) *genai.Part {
	content := result.Output
	if result.Error != "" {
		content = fmt.Sprintf("Error: %s", result.Error)
	}
	return &genai.Part{
		FunctionResponse: &genai.FunctionResponse{
			Name: provider.WireToolName(result.ServerName, result.ToolName),
			Response: map[string]any{
				"content": content,
			},
		},
	}
}

// toolUsePart builds the function call part for a resumed call.
func toolUsePart(call chat.ToolCallRequest) *genai.Part {
	return &genai.Part{
		FunctionCall: &genai.FunctionCall{
			Name: provider.WireToolName(call.ServerName, call.ToolName),
			Args: call.Args,
		},
	}
}

// toTools converts tool descriptions to Gemini function declarations.
func toTools(infos []tools.Info) []*genai.Tool {
	if len(infos) == 0 {
		return nil
	}
	declarations := make([]*genai.FunctionDeclaration, 0, len(infos))
	for _, info := range infos {
		fd := &genai.FunctionDeclaration{
			Name:        provider.WireToolName(info.ServerName, info.ToolName),
			Description: info.Description,
		}
		if info.InputSchema != nil {
			fd.Parameters = toSchema(info.InputSchema)
		}
		declarations = append(declarations, fd)
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// toSchema converts a tool parameter schema to a Gemini Schema.
func toSchema(schema *tools.Schema) *genai.Schema {
	out := &genai.Schema{Type: genai.TypeObject}
	if schema.Properties != nil {
		out.Properties = make(map[string]*genai.Schema)
		for name, prop := range schema.Properties {
			out.Properties[name] = toPropertySchema(prop)
		}
	}
	if len(schema.Required) > 0 {
		out.Required = schema.Required
	}
	return out
}

func toPropertySchema(prop tools.Property) *genai.Schema {
	out := &genai.Schema{
		Type:        toType(prop.Type),
		Description: prop.Description,
	}
	if len(prop.Enum) > 0 {
		out.Enum = prop.Enum
	}
	if prop.Items != nil {
		out.Items = toPropertySchema(*prop.Items)
	}
	return out
}

// toType converts string type to Gemini Type.
func toType(typeStr string) genai.Type {
	switch typeStr {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// toConfig builds the generation config for one exchange.
func toConfig(req *provider.Request, system *genai.Content, toolDefs []*genai.Tool) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SafetySettings:    defaultSafetySettings(),
		SystemInstruction: system,
		Tools:             toolDefs,
	}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		config.Temperature = &t
	}
	if req.TopP != nil {
		p := float32(*req.TopP)
		config.TopP = &p
	}
	return config
}

// defaultSafetySettings returns safety settings with blocking disabled
// for all categories.
func defaultSafetySettings() []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdOff},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdOff},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdOff},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdOff},
	}
}

// fromResponse converts a Gemini response to ordered exchange items
// plus the raw content to feed back into the conversation. Call
// identifiers are left empty; Gemini does not supply them.
func fromResponse(resp *genai.GenerateContentResponse) (*provider.ExchangeResult, *genai.Content, error) {
	if len(resp.Candidates) == 0 {
		return nil, nil, fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, nil, fmt.Errorf("content blocked by safety filters")
	}
	if candidate.Content == nil {
		return nil, nil, fmt.Errorf("empty candidate content")
	}

	out := &provider.ExchangeResult{}
	for _, part := range candidate.Content.Parts {
		if part.FunctionCall != nil {
			serverName, toolName := provider.ParseWireToolName(part.FunctionCall.Name)
			out.Items = append(out.Items, provider.Item{Call: &chat.ToolCallRequest{
				ServerName: serverName,
				ToolName:   toolName,
				Args:       part.FunctionCall.Args,
			}})
			continue
		}
		if part.Text != "" {
			out.Items = append(out.Items, provider.Item{Text: part.Text})
		}
	}
	if usage := resp.UsageMetadata; usage != nil {
		out.InputTokens = int(usage.PromptTokenCount)
		out.OutputTokens = int(usage.CandidatesTokenCount)
	}
	return out, candidate.Content, nil
}
