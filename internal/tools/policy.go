package tools

// StaticPolicy is a Policy backed by fixed lookup tables, typically
// populated from configuration at startup.
type StaticPolicy struct {
	// Tools maps "server/tool" to an approval-requirement override.
	Tools map[string]bool
	// Servers maps a server name to its approval default.
	Servers map[string]bool
}

// ToolOverride implements Policy.
func (p *StaticPolicy) ToolOverride(serverName, toolName string) (bool, bool) {
	if p == nil || p.Tools == nil {
		return false, false
	}
	required, ok := p.Tools[registryKey(serverName, toolName)]
	return required, ok
}

// ServerDefault implements Policy.
func (p *StaticPolicy) ServerDefault(serverName string) (bool, bool) {
	if p == nil || p.Servers == nil {
		return false, false
	}
	required, ok := p.Servers[serverName]
	return required, ok
}
