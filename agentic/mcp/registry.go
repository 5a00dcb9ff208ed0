package mcp

import (
	"context"
	"fmt"

	"github.com/victorarias/qaweave/agentic"
)

// Client bridges MCP tool execution.
type Client interface {
	ListTools(ctx context.Context) ([]agentic.ToolDefinition, error)
	Execute(ctx context.Context, call agentic.ToolCall) (agentic.ToolResult, error)
}

// Registry exposes MCP tools with allowlist gating. An empty allowlist exposes every tool.
type Registry struct {
	client    Client
	allowlist map[string]struct{}
}

func NewRegistry(client Client, allowlist []string) *Registry {
	allowed := make(map[string]struct{}, len(allowlist))
	for _, name := range allowlist {
		if name == "" {
			continue
		}
		allowed[name] = struct{}{}
	}
	return &Registry{client: client, allowlist: allowed}
}

func (r *Registry) allowed(name string) bool {
	if len(r.allowlist) == 0 {
		return true
	}
	_, ok := r.allowlist[name]
	return ok
}

func (r *Registry) ListTools(ctx context.Context) ([]agentic.ToolDefinition, error) {
	if r.client == nil {
		return nil, nil
	}
	defs, err := r.client.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]agentic.ToolDefinition, 0, len(defs))
	for _, def := range defs {
		if r.allowed(def.Name) {
			filtered = append(filtered, def)
		}
	}
	return filtered, nil
}

func (r *Registry) Execute(ctx context.Context, call agentic.ToolCall) (agentic.ToolResult, error) {
	if r.client == nil || !r.allowed(call.Name) {
		return agentic.ToolResult{}, fmt.Errorf("%w: %s", agentic.ErrToolNotFound, call.Name)
	}
	return r.client.Execute(ctx, call)
}
