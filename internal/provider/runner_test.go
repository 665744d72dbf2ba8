package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/TeamSparkAI/tsagent-sub003/internal/chat"
	"github.com/TeamSparkAI/tsagent-sub003/internal/tools"
)

type stubGate struct {
	require  map[string]bool
	recorded []string
}

func (g *stubGate) IsApprovalRequired(serverName, toolName string) bool {
	return g.require[serverName+"/"+toolName]
}

func (g *stubGate) RecordSessionApproval(serverName, toolName string) {
	g.recorded = append(g.recorded, serverName+"/"+toolName)
}

type stubTools struct {
	calls   []string
	outputs map[string]string
	err     error
}

func (c *stubTools) ListTools(ctx context.Context) ([]tools.Info, error) {
	return nil, nil
}

func (c *stubTools) CallTool(ctx context.Context, serverName, toolName string, args map[string]any) (*tools.CallResult, error) {
	c.calls = append(c.calls, serverName+"/"+toolName)
	if c.err != nil {
		return nil, c.err
	}
	return &tools.CallResult{
		Output:  c.outputs[serverName+"/"+toolName],
		Elapsed: 5 * time.Millisecond,
	}, nil
}

// scriptedConv replays a fixed sequence of exchange outcomes while
// recording the tool activity appended between them.
type scriptedConv struct {
	script      []ExchangeResult
	err         error
	exchanges   int
	toolUses    []chat.ToolCallRequest
	toolResults []chat.ToolCallResult
}

func (c *scriptedConv) AppendToolUse(call chat.ToolCallRequest) {
	c.toolUses = append(c.toolUses, call)
}

func (c *scriptedConv) AppendToolResult(result chat.ToolCallResult) {
	c.toolResults = append(c.toolResults, result)
}

func (c *scriptedConv) Exchange(ctx context.Context) (*ExchangeResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.exchanges >= len(c.script) {
		last := c.script[len(c.script)-1]
		c.exchanges++
		return &last, nil
	}
	out := c.script[c.exchanges]
	c.exchanges++
	return &out, nil
}

func textItem(text string) Item {
	return Item{Text: text}
}

func callItem(server, tool, id string) Item {
	return Item{Call: &chat.ToolCallRequest{
		ServerName: server,
		ToolName:   tool,
		Args:       map[string]any{"path": "/tmp/x"},
		ToolCallID: id,
	}}
}

func newTestRequest(gate *stubGate, client *stubTools) *Request {
	return &Request{
		Model:        "test-model",
		MaxChatTurns: 10,
		Gate:         gate,
		Tools:        client,
		Log:          zerolog.Nop(),
	}
}

func TestRunLoopTextReply(t *testing.T) {
	conv := &scriptedConv{script: []ExchangeResult{
		{Items: []Item{textItem("hello")}, InputTokens: 12, OutputTokens: 3},
	}}
	req := newTestRequest(&stubGate{}, &stubTools{})

	reply := RunLoop(context.Background(), req, conv)

	if len(reply.Turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(reply.Turns))
	}
	turn := reply.Turns[0]
	if turn.Error != "" {
		t.Fatalf("unexpected turn error: %q", turn.Error)
	}
	if len(turn.Results) != 1 || turn.Results[0].Text != "hello" {
		t.Fatalf("unexpected results: %+v", turn.Results)
	}
	if turn.InputTokens != 12 || turn.OutputTokens != 3 {
		t.Fatalf("token counts not recorded: %+v", turn)
	}
	if reply.Pending() {
		t.Fatal("text reply must not be pending")
	}
}

func TestRunLoopExecutesToolThenText(t *testing.T) {
	conv := &scriptedConv{script: []ExchangeResult{
		{Items: []Item{textItem("reading"), callItem("fs", "read_file", "call_1")}},
		{Items: []Item{textItem("done")}},
	}}
	client := &stubTools{outputs: map[string]string{"fs/read_file": "contents"}}
	req := newTestRequest(&stubGate{}, client)

	reply := RunLoop(context.Background(), req, conv)

	if len(reply.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(reply.Turns))
	}
	first := reply.Turns[0]
	if len(first.Results) != 2 {
		t.Fatalf("expected text and tool result, got %+v", first.Results)
	}
	tc := first.Results[1].ToolCall
	if tc == nil || tc.Output != "contents" || tc.Error != "" {
		t.Fatalf("unexpected tool result: %+v", tc)
	}
	if tc.ElapsedMs <= 0 {
		t.Fatalf("elapsed not recorded: %+v", tc)
	}
	if len(conv.toolUses) != 0 {
		t.Fatalf("calls emitted by Exchange must not be replayed, got %v", conv.toolUses)
	}
	if len(conv.toolResults) != 1 {
		t.Fatalf("tool result not appended to conversation: %+v", conv.toolResults)
	}
	if got := client.calls; len(got) != 1 || got[0] != "fs/read_file" {
		t.Fatalf("unexpected tool invocations: %v", got)
	}
	if reply.Turns[1].Results[0].Text != "done" {
		t.Fatalf("unexpected final turn: %+v", reply.Turns[1])
	}
}

func TestRunLoopTurnBudget(t *testing.T) {
	conv := &scriptedConv{script: []ExchangeResult{
		{Items: []Item{callItem("fs", "read_file", "call_1")}},
	}}
	req := newTestRequest(&stubGate{}, &stubTools{outputs: map[string]string{}})
	req.MaxChatTurns = 2

	reply := RunLoop(context.Background(), req, conv)

	if len(reply.Turns) != 2 {
		t.Fatalf("expected exactly 2 turns, got %d", len(reply.Turns))
	}
	if reply.Turns[1].Error != MaxToolTurnsError {
		t.Fatalf("expected budget error turn, got %+v", reply.Turns[1])
	}
	if conv.exchanges != 1 {
		t.Fatalf("expected 1 exchange, got %d", conv.exchanges)
	}
	if reply.Pending() {
		t.Fatal("budget-exhausted reply must not be pending")
	}
}

func TestRunLoopPendingApproval(t *testing.T) {
	conv := &scriptedConv{script: []ExchangeResult{
		{Items: []Item{callItem("fs", "write_file", "")}},
	}}
	client := &stubTools{}
	gate := &stubGate{require: map[string]bool{"fs/write_file": true}}
	req := newTestRequest(gate, client)

	reply := RunLoop(context.Background(), req, conv)

	if !reply.Pending() {
		t.Fatal("expected pending reply")
	}
	if len(reply.Turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(reply.Turns))
	}
	if len(client.calls) != 0 {
		t.Fatalf("gated call must not execute, got %v", client.calls)
	}
	if len(conv.toolUses) != 0 {
		t.Fatalf("gated call must not be replayed into the conversation, got %v", conv.toolUses)
	}
	pending := reply.PendingToolCalls[0]
	if !strings.HasPrefix(pending.ToolCallID, "call_") || len(pending.ToolCallID) <= len("call_") {
		t.Fatalf("missing synthesized call id: %q", pending.ToolCallID)
	}
}

func TestRunLoopResolvesApprovals(t *testing.T) {
	approvals := []chat.ToolCallApproval{
		{ToolCallID: "call_a", ServerName: "fs", ToolName: "read_file", Args: map[string]any{"path": "a"}, Decision: chat.DecisionAllowOnce},
		{ToolCallID: "call_b", ServerName: "fs", ToolName: "write_file", Args: map[string]any{"path": "b"}, Decision: chat.DecisionAllowSession},
		{ToolCallID: "call_c", ServerName: "shell", ToolName: "exec", Args: map[string]any{"cmd": "rm"}, Decision: chat.DecisionDeny},
	}
	conv := &scriptedConv{script: []ExchangeResult{
		{Items: []Item{textItem("all set")}},
	}}
	client := &stubTools{outputs: map[string]string{
		"fs/read_file":  "data",
		"fs/write_file": "ok",
	}}
	gate := &stubGate{}
	req := newTestRequest(gate, client)
	req.History = []chat.Message{
		chat.NewUserMessage("go"),
		chat.NewApprovalMessage(approvals),
	}

	reply := RunLoop(context.Background(), req, conv)

	if len(reply.Turns) != 2 {
		t.Fatalf("expected resolution turn plus text turn, got %d", len(reply.Turns))
	}
	first := reply.Turns[0]
	if len(first.Results) != 3 {
		t.Fatalf("expected 3 resolved results, got %+v", first.Results)
	}
	if got := first.Results[0].ToolCall.Output; got != "data" {
		t.Fatalf("unexpected approved output: %q", got)
	}
	denied := first.Results[2].ToolCall
	if denied.Output != chat.DeniedToolOutput || denied.Error != chat.DeniedToolOutput {
		t.Fatalf("denied call not recorded as denial: %+v", denied)
	}
	if got := client.calls; len(got) != 2 || got[0] != "fs/read_file" || got[1] != "fs/write_file" {
		t.Fatalf("denied call must not execute, got %v", got)
	}
	if len(gate.recorded) != 1 || gate.recorded[0] != "fs/write_file" {
		t.Fatalf("allow-session not recorded, got %v", gate.recorded)
	}
	if len(conv.toolUses) != 3 || len(conv.toolResults) != 3 {
		t.Fatalf("every decided call must be replayed: %d uses, %d results",
			len(conv.toolUses), len(conv.toolResults))
	}
	if reply.Turns[1].Results[0].Text != "all set" {
		t.Fatalf("unexpected final turn: %+v", reply.Turns[1])
	}
}

func TestRunLoopBackendError(t *testing.T) {
	conv := &scriptedConv{err: errors.New("rate limited")}
	req := newTestRequest(&stubGate{}, &stubTools{})

	reply := RunLoop(context.Background(), req, conv)

	if len(reply.Turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(reply.Turns))
	}
	if reply.Turns[0].Error != "rate limited" {
		t.Fatalf("backend error not surfaced: %+v", reply.Turns[0])
	}
}

func TestRunLoopToolFailureContinues(t *testing.T) {
	conv := &scriptedConv{script: []ExchangeResult{
		{Items: []Item{callItem("fs", "read_file", "call_1")}},
		{Items: []Item{textItem("could not read the file")}},
	}}
	client := &stubTools{err: errors.New("no such file")}
	req := newTestRequest(&stubGate{}, client)

	reply := RunLoop(context.Background(), req, conv)

	if len(reply.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(reply.Turns))
	}
	tc := reply.Turns[0].Results[0].ToolCall
	if tc.Error != "no such file" {
		t.Fatalf("execution error not recorded: %+v", tc)
	}
	if len(conv.toolResults) != 1 || conv.toolResults[0].Error != "no such file" {
		t.Fatalf("failed result not replayed to backend: %+v", conv.toolResults)
	}
}

func TestErrorReply(t *testing.T) {
	reply := ErrorReply(errors.New("model not found"))
	if len(reply.Turns) != 1 || reply.Turns[0].Error != "model not found" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}
}

func TestWireToolName(t *testing.T) {
	tests := []struct {
		name       string
		wire       string
		wantServer string
		wantTool   string
	}{
		{"round trip", WireToolName("fs", "read_file"), "fs", "read_file"},
		{"tool with underscore", "shell__run_command", "shell", "run_command"},
		{"no separator", "orphan", "", "orphan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, tool := ParseWireToolName(tt.wire)
			if server != tt.wantServer || tool != tt.wantTool {
				t.Errorf("ParseWireToolName(%q) = (%q, %q), want (%q, %q)",
					tt.wire, server, tool, tt.wantServer, tt.wantTool)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("b", func() (Provider, error) { return nil, errors.New("no key") })
	r.Register("a", func() (Provider, error) { return nil, nil })

	if got := r.Backends(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected backend list: %v", got)
	}
	if _, err := r.Create("missing"); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
	if _, err := r.Create("b"); err == nil {
		t.Fatal("expected factory error")
	}
}
