// Package chat defines the canonical conversation model shared by the
// session layer and every backend adapter. History is an ordered,
// append-only sequence of messages; once appended a message is never
// mutated, reordered, or removed.
package chat

import "time"

// Role identifies who produced a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleApproval  Role = "approval"
)

// Message is a single entry in the conversation history. Exactly one of
// the payload fields is meaningful for a given role: Content for system
// and user messages, Reply for assistant messages, Approvals for
// approval messages.
type Message struct {
	Role    Role
	Content string

	// Reply carries the full set of turns produced for one user input.
	Reply *ModelReply

	// Approvals carries the human dispositions for pending tool calls.
	Approvals []ToolCallApproval
}

// Append returns a new history with msg appended. The input slice is
// never modified, so callers may hold references to earlier snapshots.
func Append(history []Message, msg Message) []Message {
	out := make([]Message, len(history), len(history)+1)
	copy(out, history)
	return append(out, msg)
}

// LastAssistantReply returns the most recent assistant reply, or nil if
// the history contains none. Used to reconcile approval messages with
// the pending tool calls they resolve.
func LastAssistantReply(history []Message) *ModelReply {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleAssistant && history[i].Reply != nil {
			return history[i].Reply
		}
	}
	return nil
}

// NewSystemMessage wraps text as a system message.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// NewUserMessage wraps text as a user message.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// NewAssistantMessage wraps a model reply as an assistant message.
func NewAssistantMessage(reply *ModelReply) Message {
	return Message{Role: RoleAssistant, Reply: reply}
}

// NewApprovalMessage wraps approval decisions as an approval message.
func NewApprovalMessage(approvals []ToolCallApproval) Message {
	return Message{Role: RoleApproval, Approvals: approvals}
}

// ModelReply is the full set of turns produced in response to one user
// input. PendingToolCalls is non-empty if and only if the most recent
// turn produced at least one tool call still awaiting a human decision;
// while it is set the reply is incomplete and no further turns may be
// generated until every pending call is resolved.
type ModelReply struct {
	Timestamp        time.Time
	Turns            []Turn
	PendingToolCalls []ToolCallRequest
}

// Pending reports whether the reply is waiting on human approval.
func (r *ModelReply) Pending() bool {
	return r != nil && len(r.PendingToolCalls) > 0
}

// Turn is one backend response cycle. Results preserve the order the
// backend emitted them; translators must not reorder.
type Turn struct {
	Results      []Result
	Error        string
	InputTokens  int
	OutputTokens int
}

// ResultType discriminates the Result variant.
type ResultType string

const (
	ResultTypeText     ResultType = "text"
	ResultTypeToolCall ResultType = "tool_call"
)

// Result is either a text fragment or a tool call record.
type Result struct {
	Type     ResultType
	Text     string
	ToolCall *ToolCallResult
}

// TextResult builds a text result.
func TextResult(text string) Result {
	return Result{Type: ResultTypeText, Text: text}
}

// ToolCallItem builds a tool-call result.
func ToolCallItem(res ToolCallResult) Result {
	return Result{Type: ResultTypeToolCall, ToolCall: &res}
}

// ToolCallRequest is a backend-originated request to execute a named
// capability on a named server. ToolCallID correlates the request with
// its eventual result; backends that do not supply one get a locally
// synthesized identifier before the request leaves the adapter.
type ToolCallRequest struct {
	ServerName string
	ToolName   string
	Args       map[string]any
	ToolCallID string
}

// ToolCallResult records the outcome of a tool call. Error is set if
// and only if the call was denied or the underlying execution failed.
type ToolCallResult struct {
	ToolCallRequest

	ElapsedMs int64
	Output    string
	Error     string
}

// DeniedToolOutput is the output recorded for a denied tool call. A
// denied call is always represented as a result, never as an absent
// entry.
const DeniedToolOutput = "Tool call denied"

// DeniedResult builds the result recorded when a human denies a call.
func DeniedResult(call ToolCallRequest) ToolCallResult {
	return ToolCallResult{
		ToolCallRequest: call,
		Output:          DeniedToolOutput,
		Error:           DeniedToolOutput,
	}
}

// ApprovalDecision is the human disposition of a pending tool call.
type ApprovalDecision string

const (
	// DecisionAllowOnce executes the call without remembering it.
	DecisionAllowOnce ApprovalDecision = "allow-once"
	// DecisionAllowSession executes the call and pre-approves the
	// (server, tool) pair for the remainder of the session.
	DecisionAllowSession ApprovalDecision = "allow-session"
	// DecisionDeny records a denied result without executing.
	DecisionDeny ApprovalDecision = "deny"
)

// ToolCallApproval resolves one pending tool call.
type ToolCallApproval struct {
	ToolCallID string
	ServerName string
	ToolName   string
	Args       map[string]any
	Decision   ApprovalDecision
}
