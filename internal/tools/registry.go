package tools

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Handler executes one tool call with raw arguments.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Validator is implemented by request types that check their own fields
// after decoding.
type Validator interface {
	Validate() error
}

// Typed adapts a function taking a typed request into a Handler. The
// raw argument map is decoded with mapstructure; if the request type
// implements Validator it is validated before execution.
func Typed[Req any](fn func(ctx context.Context, req Req) (string, error)) Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		var req Req
		if err := mapstructure.Decode(args, &req); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
		if v, ok := any(req).(Validator); ok {
			if err := v.Validate(); err != nil {
				return "", fmt.Errorf("validation failed: %w", err)
			}
		}
		return fn(ctx, req)
	}
}

type registered struct {
	info    Info
	handler Handler
}

// Registry is an in-process Client implementation. It holds tools keyed
// by (server, tool) and executes them directly, which makes the engine
// runnable without an external tool host and gives tests a real
// collaborator to count calls against.
type Registry struct {
	tools map[string]registered
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]registered)}
}

func registryKey(serverName, toolName string) string {
	return serverName + "/" + toolName
}

// Register adds a tool. Registering the same (server, tool) pair twice
// replaces the earlier entry.
func (r *Registry) Register(info Info, handler Handler) {
	r.tools[registryKey(info.ServerName, info.ToolName)] = registered{info: info, handler: handler}
}

// ListTools implements Client. Results are sorted by server then tool
// name so backend tool declarations are stable across runs.
func (r *Registry) ListTools(ctx context.Context) ([]Info, error) {
	out := make([]Info, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ServerName != out[j].ServerName {
			return out[i].ServerName < out[j].ServerName
		}
		return out[i].ToolName < out[j].ToolName
	})
	return out, nil
}

// CallTool implements Client.
func (r *Registry) CallTool(ctx context.Context, serverName, toolName string, args map[string]any) (*CallResult, error) {
	t, ok := r.tools[registryKey(serverName, toolName)]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q on server %q", toolName, serverName)
	}

	start := time.Now()
	output, err := t.handler(ctx, args)
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}
	return &CallResult{Output: output, Elapsed: elapsed}, nil
}
