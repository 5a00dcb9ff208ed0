package agentic

import (
	"context"
	"encoding/json"
)

// ToolDefinition describes a tool the model may call.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

// ToolCall is a request from the model to invoke a tool.
type ToolCall struct {
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult is the tool execution output.
type ToolResult struct {
	ID     string          `json:"id,omitempty"`
	Name   string          `json:"name"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  *ToolError      `json:"error,omitempty"`
}

// ToolError is a normalized tool error payload.
type ToolError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Text returns the result as plain text, the way it is shown to the model.
func (r ToolResult) Text() string {
	if r.Error != nil {
		return r.Error.Message
	}
	if len(r.Output) == 0 {
		return "(no output)"
	}
	var s string
	if err := json.Unmarshal(r.Output, &s); err == nil {
		return s
	}
	return string(r.Output)
}

// Tool executes a single tool call.
type Tool interface {
	Definition() ToolDefinition
	Execute(ctx context.Context, call ToolCall) (ToolResult, error)
}

// ToolExecutor lists and executes tools.
type ToolExecutor interface {
	ListTools(ctx context.Context) ([]ToolDefinition, error)
	Execute(ctx context.Context, call ToolCall) (ToolResult, error)
}
