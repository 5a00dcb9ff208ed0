package agentic

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Registry stores local tool implementations and executes calls against them.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds tools to the registry. Either all tools are added or none.
func (r *Registry) Register(tools ...Tool) error {
	seen := make(map[string]struct{}, len(tools))
	for i, tool := range tools {
		if tool == nil {
			return fmt.Errorf("tool at index %d is nil", i)
		}
		name := tool.Definition().Name
		if name == "" {
			return fmt.Errorf("tool at index %d has empty name", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %s", ErrToolDuplicate, name)
		}
		seen[name] = struct{}{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for name := range seen {
		if _, exists := r.tools[name]; exists {
			return fmt.Errorf("%w: %s", ErrToolDuplicate, name)
		}
	}
	for _, tool := range tools {
		r.tools[tool.Definition().Name] = tool
	}
	return nil
}

// ListTools returns tool definitions sorted by name.
func (r *Registry) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, tool.Definition())
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Name < defs[j].Name
	})
	return defs, nil
}

// Execute routes a tool call to the registered tool.
func (r *Registry) Execute(ctx context.Context, call ToolCall) (ToolResult, error) {
	r.mu.RLock()
	tool := r.tools[call.Name]
	r.mu.RUnlock()
	if tool == nil {
		return ToolResult{}, ErrToolNotFound
	}
	if len(call.Input) > 0 && !json.Valid(call.Input) {
		return ToolResult{}, fmt.Errorf("%w: %s", ErrInvalidInput, call.Name)
	}
	if err := ctx.Err(); err != nil {
		return ToolResult{}, err
	}

	result, err := tool.Execute(ctx, call)
	if result.ID == "" {
		result.ID = call.ID
	}
	if result.Name == "" {
		result.Name = call.Name
	}
	return result, err
}
