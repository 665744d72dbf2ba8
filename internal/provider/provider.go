// Package provider defines the contract every LLM backend adapter must
// satisfy and the generic bounded turn loop each adapter runs. Five
// structurally different backend APIs sit behind one interface; the
// per-backend packages supply only the message-format translation.
package provider

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TeamSparkAI/tsagent-sub003/internal/chat"
	"github.com/TeamSparkAI/tsagent-sub003/internal/tools"
)

// ModelInfo describes one model a backend offers.
type ModelInfo struct {
	ID          string
	Name        string
	Description string
}

// Gate decides whether a tool call needs human approval and records
// session-scoped approvals. Implemented by the session.
type Gate interface {
	IsApprovalRequired(serverName, toolName string) bool
	RecordSessionApproval(serverName, toolName string)
}

// Request carries everything one GenerateReply invocation needs: the
// model to use, a snapshot of the session's budgets, the canonical
// history, the approval gate, and the tool-execution collaborator.
type Request struct {
	Model           string
	History         []chat.Message
	MaxChatTurns    int
	MaxOutputTokens int
	Temperature     *float64
	TopP            *float64

	Gate  Gate
	Tools tools.Client
	Log   zerolog.Logger
}

// Provider is the interface every backend adapter satisfies.
//
// GenerateReply never fails past its boundary: backend call failures,
// malformed responses, and budget exhaustion are all surfaced as a
// terminal error turn inside the returned reply, so callers always
// receive a ModelReply.
type Provider interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
	GenerateReply(ctx context.Context, req *Request) *chat.ModelReply
}

// NewCallID synthesizes a locally-unique tool call identifier for
// backends whose responses omit one. One strategy for all of them,
// rather than per-adapter ad hoc randomness.
func NewCallID() string {
	return "call_" + uuid.NewString()
}
