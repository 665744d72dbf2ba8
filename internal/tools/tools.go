// Package tools defines the collaborator contracts the conversation
// engine consumes: tool discovery/execution and per-tool approval
// policy. The engine never manages tool process lifecycles itself; it
// only lists tools and calls them through these interfaces.
package tools

import (
	"context"
	"time"
)

// Info describes a single tool exposed by a server.
type Info struct {
	ServerName  string
	ToolName    string
	Description string
	InputSchema *Schema
}

// Schema maps directly to standard JSON Schema for tool parameters.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property defines a single parameter property.
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// AsMap renders the schema as a generic JSON-shaped map, the form most
// backend SDKs accept for tool parameter schemas.
func (s *Schema) AsMap() map[string]any {
	if s == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}
	props := make(map[string]any, len(s.Properties))
	for name, p := range s.Properties {
		props[name] = p.asMap()
	}
	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}

func (p Property) asMap() map[string]any {
	out := map[string]any{"type": p.Type}
	if p.Description != "" {
		out["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		out["enum"] = p.Enum
	}
	if p.Items != nil {
		out["items"] = p.Items.asMap()
	}
	return out
}

// CallResult is the outcome of a successful tool execution.
type CallResult struct {
	Output  string
	Elapsed time.Duration
}

// Client lists and executes tools. CallTool returns an error when the
// underlying execution fails; the engine records it on the tool call
// result instead of aborting the turn loop.
type Client interface {
	ListTools(ctx context.Context) ([]Info, error)
	CallTool(ctx context.Context, serverName, toolName string, args map[string]any) (*CallResult, error)
}

// Policy resolves approval-requirement overrides. Both lookups return
// ok=false when no override exists at that level, letting the gate fall
// through to the session-wide permission setting.
type Policy interface {
	// ToolOverride returns the per-tool approval requirement, if configured.
	ToolOverride(serverName, toolName string) (required bool, ok bool)
	// ServerDefault returns the server-wide approval default, if configured.
	ServerDefault(serverName string) (required bool, ok bool)
}
