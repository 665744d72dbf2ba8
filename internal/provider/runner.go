package provider

import (
	"context"
	"time"

	"github.com/TeamSparkAI/tsagent-sub003/internal/chat"
)

// Item is one ordered fragment of a backend response: either a text
// chunk or a tool call request. Exactly one field is set.
type Item struct {
	Text string
	Call *chat.ToolCallRequest
}

// ExchangeResult is the outcome of one round trip to a backend.
type ExchangeResult struct {
	Items        []Item
	InputTokens  int
	OutputTokens int
}

// Conversation is one in-flight exchange with a backend, owned by an
// adapter. The adapter seeds it from the canonical history; RunLoop
// then drives it, appending tool activity in the backend's native
// format between exchanges.
type Conversation interface {
	// AppendToolUse records an assistant-side tool call that was
	// emitted on an earlier reply and is being resumed now, so the
	// backend sees the call before its result. Calls emitted by
	// Exchange in this conversation are already recorded by Exchange
	// itself and must not be replayed through this method.
	AppendToolUse(call chat.ToolCallRequest)

	// AppendToolResult records the outcome of an executed or denied
	// call, paired with a prior AppendToolUse or with a call emitted
	// by the previous Exchange.
	AppendToolResult(result chat.ToolCallResult)

	// Exchange sends the accumulated conversation, records the
	// model's own response into it, and returns the model's next
	// step.
	Exchange(ctx context.Context) (*ExchangeResult, error)
}

// RunLoop drives one conversation to completion under the request's
// turn budget. Adapters supply only the Conversation; everything else
// is backend-independent:
//
//  1. If the history ends with an approval message, resolve every
//     decision first. Approved calls execute, denied calls record a
//     denial, and the outcomes become the reply's first turn.
//  2. Exchange with the backend. Tool calls not requiring approval
//     execute immediately, in emission order, and the loop continues
//     with their results. Calls requiring approval stop the loop with
//     the reply marked pending.
//  3. The final turn slot is reserved: if the model is still calling
//     tools when only one slot remains, an error turn fills it.
//
// RunLoop never returns an error. Backend failures become a terminal
// error turn, so a reply is always produced.
func RunLoop(ctx context.Context, req *Request, conv Conversation) *chat.ModelReply {
	reply := &chat.ModelReply{Timestamp: time.Now()}

	if n := len(req.History); n > 0 && req.History[n-1].Role == chat.RoleApproval {
		turn := resolveApprovals(ctx, req, conv, req.History[n-1].Approvals)
		reply.Turns = append(reply.Turns, turn)
	}

	for {
		if len(reply.Turns) >= req.MaxChatTurns-1 {
			req.Log.Warn().Int("turns", len(reply.Turns)).Msg("chat turn budget exhausted")
			reply.Turns = append(reply.Turns, chat.Turn{Error: MaxToolTurnsError})
			return reply
		}

		out, err := conv.Exchange(ctx)
		if err != nil {
			req.Log.Error().Err(err).Str("model", req.Model).Msg("backend exchange failed")
			reply.Turns = append(reply.Turns, chat.Turn{Error: err.Error()})
			return reply
		}

		turn := chat.Turn{
			InputTokens:  out.InputTokens,
			OutputTokens: out.OutputTokens,
		}
		var pending []chat.ToolCallRequest
		sawCall := false
		for _, item := range out.Items {
			if item.Call == nil {
				turn.Results = append(turn.Results, chat.TextResult(item.Text))
				continue
			}
			sawCall = true
			call := *item.Call
			if call.ToolCallID == "" {
				call.ToolCallID = NewCallID()
			}
			if req.Gate.IsApprovalRequired(call.ServerName, call.ToolName) {
				pending = append(pending, call)
				continue
			}
			result := executeCall(ctx, req, call)
			conv.AppendToolResult(result)
			turn.Results = append(turn.Results, chat.ToolCallItem(result))
		}

		reply.Turns = append(reply.Turns, turn)
		if len(pending) > 0 {
			reply.PendingToolCalls = pending
			return reply
		}
		if !sawCall {
			return reply
		}
	}
}

// resolveApprovals replays each decided call into the conversation and
// produces the turn holding their outcomes. Denied calls never reach
// the tool client.
func resolveApprovals(ctx context.Context, req *Request, conv Conversation, approvals []chat.ToolCallApproval) chat.Turn {
	var turn chat.Turn
	for _, a := range approvals {
		call := chat.ToolCallRequest{
			ServerName: a.ServerName,
			ToolName:   a.ToolName,
			Args:       a.Args,
			ToolCallID: a.ToolCallID,
		}
		conv.AppendToolUse(call)

		var result chat.ToolCallResult
		if a.Decision == chat.DecisionDeny {
			req.Log.Info().Str("tool", a.ToolName).Str("server", a.ServerName).Msg("tool call denied")
			result = chat.DeniedResult(call)
		} else {
			if a.Decision == chat.DecisionAllowSession {
				req.Gate.RecordSessionApproval(a.ServerName, a.ToolName)
			}
			result = executeCall(ctx, req, call)
		}
		conv.AppendToolResult(result)
		turn.Results = append(turn.Results, chat.ToolCallItem(result))
	}
	return turn
}

// executeCall runs one tool call through the client. Execution errors
// are recorded on the result rather than aborting the loop.
func executeCall(ctx context.Context, req *Request, call chat.ToolCallRequest) chat.ToolCallResult {
	result := chat.ToolCallResult{ToolCallRequest: call}

	req.Log.Debug().Str("tool", call.ToolName).Str("server", call.ServerName).Msg("executing tool call")
	start := time.Now()
	out, err := req.Tools.CallTool(ctx, call.ServerName, call.ToolName, call.Args)
	if err != nil {
		result.Error = err.Error()
		result.ElapsedMs = time.Since(start).Milliseconds()
		req.Log.Warn().Err(err).Str("tool", call.ToolName).Msg("tool call failed")
		return result
	}
	result.Output = out.Output
	result.ElapsedMs = out.Elapsed.Milliseconds()
	return result
}

// ErrorReply wraps a failure that occurred before any exchange, such
// as a conversation that could not be seeded, as a single-turn reply.
func ErrorReply(err error) *chat.ModelReply {
	return &chat.ModelReply{
		Timestamp: time.Now(),
		Turns:     []chat.Turn{{Error: err.Error()}},
	}
}
