package session

import "fmt"

// ToolPermission is the session-wide fallback approval policy, used
// when neither a per-tool override nor a server default applies.
type ToolPermission string

const (
	// PermissionAlways requires approval for every tool call.
	PermissionAlways ToolPermission = "always"
	// PermissionNever executes every tool call without asking.
	PermissionNever ToolPermission = "never"
	// PermissionTool asks unless the pair is pre-approved.
	PermissionTool ToolPermission = "tool"
)

// Settings are a session's generation budgets and approval policy.
type Settings struct {
	MaxChatTurns    int
	MaxOutputTokens int
	Temperature     *float64
	TopP            *float64
	ToolPermission  ToolPermission
}

// Validate checks the settings for internal consistency.
func (s Settings) Validate() error {
	var errs []string
	if s.MaxChatTurns < 2 {
		errs = append(errs, fmt.Sprintf("maxChatTurns must be at least 2, got %d", s.MaxChatTurns))
	}
	if s.MaxOutputTokens < 1 {
		errs = append(errs, fmt.Sprintf("maxOutputTokens must be at least 1, got %d", s.MaxOutputTokens))
	}
	if s.Temperature != nil && (*s.Temperature < 0 || *s.Temperature > 2) {
		errs = append(errs, fmt.Sprintf("temperature must be between 0 and 2, got %v", *s.Temperature))
	}
	if s.TopP != nil && (*s.TopP < 0 || *s.TopP > 1) {
		errs = append(errs, fmt.Sprintf("topP must be between 0 and 1, got %v", *s.TopP))
	}
	switch s.ToolPermission {
	case PermissionAlways, PermissionNever, PermissionTool:
	default:
		errs = append(errs, fmt.Sprintf("unknown toolPermission %q", s.ToolPermission))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid settings: %v", errs)
	}
	return nil
}

// SettingsPatch updates a subset of settings. Nil fields keep their
// current value.
type SettingsPatch struct {
	MaxChatTurns    *int
	MaxOutputTokens *int
	Temperature     *float64
	TopP            *float64
	ToolPermission  *ToolPermission
}

func (s Settings) apply(patch SettingsPatch) Settings {
	if patch.MaxChatTurns != nil {
		s.MaxChatTurns = *patch.MaxChatTurns
	}
	if patch.MaxOutputTokens != nil {
		s.MaxOutputTokens = *patch.MaxOutputTokens
	}
	if patch.Temperature != nil {
		s.Temperature = patch.Temperature
	}
	if patch.TopP != nil {
		s.TopP = patch.TopP
	}
	if patch.ToolPermission != nil {
		s.ToolPermission = *patch.ToolPermission
	}
	return s
}
