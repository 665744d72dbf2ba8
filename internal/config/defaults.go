package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Session   SessionConfig   `json:"session"`
	Backends  BackendsConfig  `json:"backends"`
	Approvals ApprovalsConfig `json:"approvals"`
}

// SessionConfig holds the per-session budget and policy defaults.
type SessionConfig struct {
	MaxChatTurns    int      `json:"max_chat_turns"`    // Default: 10
	MaxOutputTokens int      `json:"max_output_tokens"` // Default: 4096
	Temperature     *float64 `json:"temperature"`       // Default: unset (backend default)
	TopP            *float64 `json:"top_p"`             // Default: unset (backend default)

	// ToolPermission is the fallback approval policy when no per-tool
	// or per-server override applies: "always", "never", or "tool".
	ToolPermission string `json:"tool_permission"` // Default: "tool"
}

// BackendsConfig holds per-backend credentials and endpoints. API keys
// left empty fall back to the conventional environment variables at
// adapter construction time.
type BackendsConfig struct {
	Anthropic AnthropicConfig `json:"anthropic"`
	OpenAI    OpenAIConfig    `json:"openai"`
	Gemini    GeminiConfig    `json:"gemini"`
	Bedrock   BedrockConfig   `json:"bedrock"`
	Ollama    OllamaConfig    `json:"ollama"`
}

type AnthropicConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type GeminiConfig struct {
	APIKey string `json:"api_key"`
}

type BedrockConfig struct {
	Region string `json:"region"` // Default: "us-east-1"
}

type OllamaConfig struct {
	Host string `json:"host"` // Default: "http://localhost:11434"
}

// ApprovalsConfig holds static approval-requirement overrides consulted
// by the gate before the session-wide ToolPermission fallback.
type ApprovalsConfig struct {
	// Tools maps "server/tool" to an override: true forces approval,
	// false waives it.
	Tools map[string]bool `json:"tools"`
	// Servers maps a server name to its approval default.
	Servers map[string]bool `json:"servers"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			MaxChatTurns:    10,
			MaxOutputTokens: 4096,
			ToolPermission:  "tool",
		},
		Backends: BackendsConfig{
			Bedrock: BedrockConfig{Region: "us-east-1"},
			Ollama:  OllamaConfig{Host: "http://localhost:11434"},
		},
	}
}
