package gemini

import (
	"testing"

	"google.golang.org/genai"

	"github.com/TeamSparkAI/tsagent-sub003/internal/chat"
	"github.com/TeamSparkAI/tsagent-sub003/internal/tools"
)

func TestSystemInstruction(t *testing.T) {
	history := []chat.Message{
		chat.NewSystemMessage("You are a helpful assistant."),
		chat.NewUserMessage("hi"),
		chat.NewSystemMessage("Switched from model a to model b"),
	}

	instruction := systemInstruction(history)
	if instruction == nil || len(instruction.Parts) != 2 {
		t.Fatalf("expected 2 instruction parts, got %+v", instruction)
	}
	if instruction.Parts[1].Text != "Switched from model a to model b" {
		t.Errorf("unexpected second part: %q", instruction.Parts[1].Text)
	}

	if got := systemInstruction(nil); got != nil {
		t.Errorf("expected nil instruction for empty history, got %+v", got)
	}
}

func TestToContents(t *testing.T) {
	reply := &chat.ModelReply{Turns: []chat.Turn{
		{Results: []chat.Result{
			chat.TextResult("checking"),
			chat.ToolCallItem(chat.ToolCallResult{
				ToolCallRequest: chat.ToolCallRequest{
					ServerName: "fs",
					ToolName:   "read_file",
					Args:       map[string]any{"path": "/etc/hosts"},
					ToolCallID: "call_1",
				},
				Output: "127.0.0.1 localhost",
			}),
			chat.TextResult("found it"),
		}},
		{Results: []chat.Result{chat.TextResult("done")}},
	}}
	history := []chat.Message{
		chat.NewSystemMessage("system prompt"),
		chat.NewUserMessage("read my hosts file"),
		chat.NewAssistantMessage(reply),
	}

	contents := toContents(history)

	// user, model turn, function responses, final model turn
	if len(contents) != 4 {
		t.Fatalf("expected 4 contents, got %d: %+v", len(contents), contents)
	}
	if contents[0].Role != "user" || contents[0].Parts[0].Text != "read my hosts file" {
		t.Fatalf("unexpected first content: %+v", contents[0])
	}

	model := contents[1]
	if model.Role != "model" || len(model.Parts) != 3 {
		t.Fatalf("unexpected model content: %+v", model)
	}
	if model.Parts[0].Text != "checking" || model.Parts[2].Text != "found it" {
		t.Errorf("text parts out of order: %+v", model.Parts)
	}
	fc := model.Parts[1].FunctionCall
	if fc == nil || fc.Name != "fs__read_file" || fc.Args["path"] != "/etc/hosts" {
		t.Fatalf("unexpected function call part: %+v", model.Parts[1])
	}

	responses := contents[2]
	if responses.Role != "user" || len(responses.Parts) != 1 {
		t.Fatalf("unexpected response content: %+v", responses)
	}
	fr := responses.Parts[0].FunctionResponse
	if fr == nil || fr.Name != "fs__read_file" || fr.Response["content"] != "127.0.0.1 localhost" {
		t.Fatalf("unexpected function response: %+v", fr)
	}

	if contents[3].Role != "model" || contents[3].Parts[0].Text != "done" {
		t.Fatalf("unexpected final content: %+v", contents[3])
	}
}

func TestToContentsSkipsApprovalMessages(t *testing.T) {
	history := []chat.Message{
		chat.NewUserMessage("hi"),
		chat.NewApprovalMessage([]chat.ToolCallApproval{
			{ToolCallID: "call_1", ServerName: "fs", ToolName: "write_file", Decision: chat.DecisionDeny},
		}),
	}

	contents := toContents(history)
	if len(contents) != 1 || contents[0].Role != "user" {
		t.Fatalf("approval messages must not translate, got %+v", contents)
	}
}

func TestFunctionResponsePartError(t *testing.T) {
	part := functionResponsePart(chat.ToolCallResult{
		ToolCallRequest: chat.ToolCallRequest{ServerName: "fs", ToolName: "read_file"},
		Error:           "no such file",
	})
	if part.FunctionResponse.Response["content"] != "Error: no such file" {
		t.Errorf("unexpected error response: %+v", part.FunctionResponse.Response)
	}
}

func TestToTools(t *testing.T) {
	infos := []tools.Info{{
		ServerName:  "fs",
		ToolName:    "read_file",
		Description: "Read a file from disk",
		InputSchema: &tools.Schema{
			Type: "object",
			Properties: map[string]tools.Property{
				"path": {Type: "string", Description: "absolute path"},
				"mode": {Type: "string", Enum: []string{"text", "binary"}},
				"tags": {Type: "array", Items: &tools.Property{Type: "string"}},
			},
			Required: []string{"path"},
		},
	}}

	out := toTools(infos)
	if len(out) != 1 || len(out[0].FunctionDeclarations) != 1 {
		t.Fatalf("unexpected tools: %+v", out)
	}
	fd := out[0].FunctionDeclarations[0]
	if fd.Name != "fs__read_file" || fd.Description != "Read a file from disk" {
		t.Fatalf("unexpected declaration: %+v", fd)
	}
	schema := fd.Parameters
	if schema.Type != genai.TypeObject || len(schema.Required) != 1 {
		t.Fatalf("unexpected schema: %+v", schema)
	}
	if schema.Properties["path"].Type != genai.TypeString {
		t.Errorf("unexpected path property: %+v", schema.Properties["path"])
	}
	if len(schema.Properties["mode"].Enum) != 2 {
		t.Errorf("enum not converted: %+v", schema.Properties["mode"])
	}
	items := schema.Properties["tags"].Items
	if items == nil || items.Type != genai.TypeString {
		t.Errorf("array items not converted: %+v", schema.Properties["tags"])
	}

	if got := toTools(nil); got != nil {
		t.Errorf("expected nil for no tools, got %+v", got)
	}
}

func TestFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: "model",
				Parts: []*genai.Part{
					genai.NewPartFromText("let me check"),
					{FunctionCall: &genai.FunctionCall{
						Name: "fs__read_file",
						Args: map[string]any{"path": "/tmp/x"},
					}},
				},
			},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     100,
			CandidatesTokenCount: 20,
		},
	}

	out, content, err := fromResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content == nil {
		t.Fatal("candidate content not returned")
	}
	if len(out.Items) != 2 {
		t.Fatalf("expected 2 items, got %+v", out.Items)
	}
	if out.Items[0].Text != "let me check" {
		t.Errorf("unexpected text item: %+v", out.Items[0])
	}
	call := out.Items[1].Call
	if call == nil || call.ServerName != "fs" || call.ToolName != "read_file" {
		t.Fatalf("unexpected call item: %+v", out.Items[1])
	}
	if call.ToolCallID != "" {
		t.Errorf("adapter must not invent call ids, got %q", call.ToolCallID)
	}
	if out.InputTokens != 100 || out.OutputTokens != 20 {
		t.Errorf("token counts not converted: %+v", out)
	}
}

func TestFromResponseErrors(t *testing.T) {
	if _, _, err := fromResponse(&genai.GenerateContentResponse{}); err == nil {
		t.Error("expected error for empty candidates")
	}

	blocked := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
	}
	if _, _, err := fromResponse(blocked); err == nil {
		t.Error("expected error for safety block")
	}
}
