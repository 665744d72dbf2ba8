// Package session implements the stateful owner of one conversation:
// its history, budgets, approval memory, and the currently selected
// backend and model. A session is driven by a single logical caller;
// calls must not be invoked concurrently.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/TeamSparkAI/tsagent-sub003/internal/chat"
	"github.com/TeamSparkAI/tsagent-sub003/internal/provider"
	"github.com/TeamSparkAI/tsagent-sub003/internal/tools"
)

// State is the session's position in its lifecycle.
type State string

const (
	// StateNoModel rejects user text until a model is selected.
	StateNoModel State = "no-model"
	// StateReady accepts user text.
	StateReady State = "ready"
	// StateAwaitingApproval accepts only an approval input resolving
	// every pending tool call.
	StateAwaitingApproval State = "awaiting-approval"
)

// Session owns one conversation. History is append-only; the approved
// pair set is owned exclusively by this session and never shared.
type Session struct {
	registry *provider.Registry
	tools    tools.Client
	policy   tools.Policy
	log      zerolog.Logger

	backend  string
	model    string
	adapter  provider.Provider
	history  []chat.Message
	settings Settings

	mu       sync.RWMutex // protects approved
	approved map[string]bool
}

// New creates a session in the no-model state. A non-empty
// systemPrompt becomes the first history message.
func New(registry *provider.Registry, toolClient tools.Client, policy tools.Policy, settings Settings, systemPrompt string, log zerolog.Logger) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		registry: registry,
		tools:    toolClient,
		policy:   policy,
		log:      log,
		settings: settings,
		approved: map[string]bool{},
	}
	if systemPrompt != "" {
		s.history = chat.Append(s.history, chat.NewSystemMessage(systemPrompt))
	}
	return s, nil
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	if s.adapter == nil {
		return StateNoModel
	}
	if chat.LastAssistantReply(s.history).Pending() {
		return StateAwaitingApproval
	}
	return StateReady
}

// History returns a snapshot of the conversation.
func (s *Session) History() []chat.Message {
	out := make([]chat.Message, len(s.history))
	copy(out, s.history)
	return out
}

// PendingToolCalls returns the calls awaiting a decision, or nil.
func (s *Session) PendingToolCalls() []chat.ToolCallRequest {
	if reply := chat.LastAssistantReply(s.history); reply.Pending() {
		return reply.PendingToolCalls
	}
	return nil
}

// Backend returns the selected backend identity, or "".
func (s *Session) Backend() string { return s.backend }

// Model returns the selected model identifier, or "".
func (s *Session) Model() string { return s.model }

// Settings returns the current settings.
func (s *Session) Settings() Settings { return s.settings }

// SwitchModel changes the active backend and model without clearing
// history, recording the change as a system message. Switching while
// tool call approvals are outstanding is rejected: the pending calls
// were emitted by the old model and no other model can own their
// resolution.
func (s *Session) SwitchModel(backend, model string) error {
	if s.State() == StateAwaitingApproval {
		return ErrApprovalPending
	}
	if backend != s.backend || s.adapter == nil {
		adapter, err := s.registry.Create(backend)
		if err != nil {
			return err
		}
		s.adapter = adapter
	}
	previous := s.model
	s.backend = backend
	s.model = model
	if previous == "" {
		s.history = chat.Append(s.history, chat.NewSystemMessage(fmt.Sprintf("Model set to %s", model)))
	} else if previous != model {
		s.history = chat.Append(s.history, chat.NewSystemMessage(fmt.Sprintf("Switched from model %s to model %s", previous, model)))
	}
	s.log.Info().Str("backend", backend).Str("model", model).Msg("model selected")
	return nil
}

// ClearModel returns the session to the no-model state, keeping the
// history. Rejected while approvals are outstanding.
func (s *Session) ClearModel() error {
	if s.State() == StateAwaitingApproval {
		return ErrApprovalPending
	}
	s.adapter = nil
	s.backend = ""
	s.model = ""
	return nil
}

// UpdateSettings applies a partial settings update after validating
// the combined result.
func (s *Session) UpdateSettings(patch SettingsPatch) error {
	next := s.settings.apply(patch)
	if err := next.Validate(); err != nil {
		return err
	}
	s.settings = next
	return nil
}

// HandleMessage appends user text, generates the model's reply, and
// appends it. Rejected in the no-model state and while approvals are
// outstanding.
func (s *Session) HandleMessage(ctx context.Context, text string) (*chat.ModelReply, error) {
	switch s.State() {
	case StateNoModel:
		return nil, ErrNoModel
	case StateAwaitingApproval:
		return nil, ErrApprovalPending
	}
	s.history = chat.Append(s.history, chat.NewUserMessage(text))
	return s.generate(ctx), nil
}

// HandleApprovals resolves the pending tool calls and resumes the
// reply. Every pending call must be dispositioned exactly once;
// anything else is a protocol violation and nothing executes.
func (s *Session) HandleApprovals(ctx context.Context, approvals []chat.ToolCallApproval) (*chat.ModelReply, error) {
	if s.State() != StateAwaitingApproval {
		return nil, ErrNoApprovalsPending
	}
	if err := matchApprovals(s.PendingToolCalls(), approvals); err != nil {
		return nil, err
	}
	s.history = chat.Append(s.history, chat.NewApprovalMessage(approvals))
	return s.generate(ctx), nil
}

func (s *Session) generate(ctx context.Context) *chat.ModelReply {
	req := &provider.Request{
		Model:           s.model,
		History:         s.History(),
		MaxChatTurns:    s.settings.MaxChatTurns,
		MaxOutputTokens: s.settings.MaxOutputTokens,
		Temperature:     s.settings.Temperature,
		TopP:            s.settings.TopP,
		Gate:            s,
		Tools:           s.tools,
		Log:             s.log.With().Str("backend", s.backend).Logger(),
	}
	reply := s.adapter.GenerateReply(ctx, req)
	s.history = chat.Append(s.history, chat.NewAssistantMessage(reply))
	return reply
}

// matchApprovals checks that approvals and pending calls pair up one
// to one by tool call identifier.
func matchApprovals(pending []chat.ToolCallRequest, approvals []chat.ToolCallApproval) error {
	if len(pending) != len(approvals) {
		return fmt.Errorf("%w: %d pending, %d resolved", ErrApprovalMismatch, len(pending), len(approvals))
	}
	remaining := make(map[string]bool, len(pending))
	for _, call := range pending {
		remaining[call.ToolCallID] = true
	}
	for _, a := range approvals {
		if !remaining[a.ToolCallID] {
			return fmt.Errorf("%w: unknown or duplicate tool call %q", ErrApprovalMismatch, a.ToolCallID)
		}
		delete(remaining, a.ToolCallID)
	}
	return nil
}

// IsApprovalRequired resolves whether a tool call needs a human
// decision: the session's approved set wins, then the per-tool
// override, then the server default, then the session's
// toolPermission setting.
func (s *Session) IsApprovalRequired(serverName, toolName string) bool {
	s.mu.RLock()
	preApproved := s.approved[pairKey(serverName, toolName)]
	s.mu.RUnlock()
	if preApproved {
		return false
	}
	if required, ok := s.policy.ToolOverride(serverName, toolName); ok {
		return required
	}
	if required, ok := s.policy.ServerDefault(serverName); ok {
		return required
	}
	switch s.settings.ToolPermission {
	case PermissionNever:
		return false
	default:
		// "always" and "tool" both ask when nothing pre-approved the pair.
		return true
	}
}

// RecordSessionApproval marks a pair approved for the remainder of
// the session. Idempotent.
func (s *Session) RecordSessionApproval(serverName, toolName string) {
	s.mu.Lock()
	s.approved[pairKey(serverName, toolName)] = true
	s.mu.Unlock()
}

func pairKey(serverName, toolName string) string {
	return serverName + "/" + toolName
}
