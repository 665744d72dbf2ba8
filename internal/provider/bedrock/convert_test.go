package bedrock

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go/document"

	"github.com/TeamSparkAI/tsagent-sub003/internal/chat"
	"github.com/TeamSparkAI/tsagent-sub003/internal/tools"
)

func TestCollectSystem(t *testing.T) {
	history := []chat.Message{
		chat.NewSystemMessage("You are a helpful assistant."),
		chat.NewUserMessage("hi"),
	}

	blocks := collectSystem(history)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 system block, got %+v", blocks)
	}
	text, ok := blocks[0].(*types.SystemContentBlockMemberText)
	if !ok || text.Value != "You are a helpful assistant." {
		t.Fatalf("unexpected block: %+v", blocks[0])
	}
}

func TestToMessages(t *testing.T) {
	reply := &chat.ModelReply{Turns: []chat.Turn{
		{Results: []chat.Result{
			chat.TextResult("checking"),
			chat.ToolCallItem(chat.ToolCallResult{
				ToolCallRequest: chat.ToolCallRequest{
					ServerName: "fs",
					ToolName:   "read_file",
					Args:       map[string]any{"path": "/etc/hosts"},
					ToolCallID: "tooluse_1",
				},
				Output: "127.0.0.1 localhost",
			}),
		}},
		{Results: []chat.Result{chat.TextResult("done")}},
	}}
	history := []chat.Message{
		chat.NewSystemMessage("system prompt"),
		chat.NewUserMessage("read my hosts file"),
		chat.NewAssistantMessage(reply),
	}

	messages := toMessages(history)

	// user, assistant turn, tool results, final assistant turn
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d: %+v", len(messages), messages)
	}
	if messages[0].Role != types.ConversationRoleUser {
		t.Fatalf("unexpected first role: %v", messages[0].Role)
	}

	assistant := messages[1]
	if assistant.Role != types.ConversationRoleAssistant || len(assistant.Content) != 2 {
		t.Fatalf("unexpected assistant message: %+v", assistant)
	}
	use, ok := assistant.Content[1].(*types.ContentBlockMemberToolUse)
	if !ok || aws.ToString(use.Value.ToolUseId) != "tooluse_1" || aws.ToString(use.Value.Name) != "fs__read_file" {
		t.Fatalf("unexpected toolUse block: %+v", assistant.Content[1])
	}

	results := messages[2]
	if results.Role != types.ConversationRoleUser || len(results.Content) != 1 {
		t.Fatalf("unexpected result message: %+v", results)
	}
	tr, ok := results.Content[0].(*types.ContentBlockMemberToolResult)
	if !ok || aws.ToString(tr.Value.ToolUseId) != "tooluse_1" || tr.Value.Status != types.ToolResultStatusSuccess {
		t.Fatalf("unexpected toolResult block: %+v", results.Content[0])
	}

	if messages[3].Role != types.ConversationRoleAssistant {
		t.Fatalf("unexpected final role: %v", messages[3].Role)
	}
}

func TestToolResultBlockError(t *testing.T) {
	block := toolResultBlock(chat.ToolCallResult{
		ToolCallRequest: chat.ToolCallRequest{ToolCallID: "tooluse_1"},
		Error:           "no such file",
	})
	tr := block.(*types.ContentBlockMemberToolResult)
	if tr.Value.Status != types.ToolResultStatusError {
		t.Errorf("expected error status, got %v", tr.Value.Status)
	}
	text := tr.Value.Content[0].(*types.ToolResultContentBlockMemberText)
	if text.Value != "no such file" {
		t.Errorf("unexpected content: %q", text.Value)
	}
}

func TestToToolConfig(t *testing.T) {
	infos := []tools.Info{{
		ServerName:  "fs",
		ToolName:    "read_file",
		Description: "Read a file from disk",
		InputSchema: &tools.Schema{
			Type:       "object",
			Properties: map[string]tools.Property{"path": {Type: "string"}},
			Required:   []string{"path"},
		},
	}}

	config := toToolConfig(infos)
	if config == nil || len(config.Tools) != 1 {
		t.Fatalf("unexpected config: %+v", config)
	}
	spec := config.Tools[0].(*types.ToolMemberToolSpec).Value
	if aws.ToString(spec.Name) != "fs__read_file" || aws.ToString(spec.Description) != "Read a file from disk" {
		t.Fatalf("unexpected spec: %+v", spec)
	}
	schema := spec.InputSchema.(*types.ToolInputSchemaMemberJson)
	decoded := map[string]any{}
	if err := schema.Value.UnmarshalSmithyDocument(&decoded); err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	if decoded["type"] != "object" {
		t.Errorf("unexpected schema: %+v", decoded)
	}

	if toToolConfig(nil) != nil {
		t.Error("expected nil config for no tools")
	}
}

func TestFromOutput(t *testing.T) {
	out := &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{Value: types.Message{
			Role: types.ConversationRoleAssistant,
			Content: []types.ContentBlock{
				&types.ContentBlockMemberText{Value: "let me check"},
				&types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
					ToolUseId: aws.String("tooluse_1"),
					Name:      aws.String("fs__read_file"),
					Input:     document.NewLazyDocument(map[string]any{"path": "/tmp/x"}),
				}},
			},
		}},
		Usage: &types.TokenUsage{
			InputTokens:  aws.Int32(100),
			OutputTokens: aws.Int32(25),
		},
	}

	result, msg, err := fromOutput(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg == nil || len(msg.Content) != 2 {
		t.Fatal("output message not returned")
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %+v", result.Items)
	}
	if result.Items[0].Text != "let me check" {
		t.Errorf("unexpected text item: %+v", result.Items[0])
	}
	call := result.Items[1].Call
	if call == nil || call.ServerName != "fs" || call.ToolName != "read_file" || call.ToolCallID != "tooluse_1" {
		t.Fatalf("unexpected call item: %+v", result.Items[1])
	}
	if call.Args["path"] != "/tmp/x" {
		t.Errorf("args not decoded: %+v", call.Args)
	}
	if result.InputTokens != 100 || result.OutputTokens != 25 {
		t.Errorf("token counts not converted: %+v", result)
	}

	if _, _, err := fromOutput(&bedrockruntime.ConverseOutput{}); err == nil {
		t.Error("expected error for missing output message")
	}
}
