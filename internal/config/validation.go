package config

import (
	"fmt"
)

// Validate checks config values for correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	// Session validation
	if c.Session.MaxChatTurns < 2 {
		errs = append(errs, "session.max_chat_turns must be >= 2")
	}
	if c.Session.MaxOutputTokens < 1 {
		errs = append(errs, "session.max_output_tokens must be >= 1")
	}
	if c.Session.Temperature != nil && (*c.Session.Temperature < 0 || *c.Session.Temperature > 2) {
		errs = append(errs, "session.temperature must be between 0 and 2")
	}
	if c.Session.TopP != nil && (*c.Session.TopP < 0 || *c.Session.TopP > 1) {
		errs = append(errs, "session.top_p must be between 0 and 1")
	}
	switch c.Session.ToolPermission {
	case "always", "never", "tool":
	default:
		errs = append(errs, "session.tool_permission must be one of: always, never, tool")
	}

	// Backend validation
	if c.Backends.Bedrock.Region == "" {
		errs = append(errs, "backends.bedrock.region must not be empty")
	}
	if c.Backends.Ollama.Host == "" {
		errs = append(errs, "backends.ollama.host must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
