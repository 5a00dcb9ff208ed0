// Package message provides the conversation message representation used by the agent loop
// and the context engine.
package message

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/victorarias/qaweave/agentic"
)

// Role identifies the author of a message.
type Role string

// Role constants for message types.
const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the append-only conversation history.
// Messages are never mutated once appended.
type Message struct {
	Role       Role               `json:"role"`
	Content    string             `json:"content,omitempty"`
	ToolCalls  []agentic.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string             `json:"tool_call_id,omitempty"`
	IsError    bool               `json:"is_error,omitempty"`
	Seq        int                `json:"seq"`
}

// System creates a system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// Human creates a human message.
func Human(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// Assistant creates an assistant message, optionally carrying tool calls.
func Assistant(content string, calls ...agentic.ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// Tool creates a tool message answering the call with the given id.
func Tool(callID, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Content: content}
}

// FromToolResult builds the tool message for an executed call.
func FromToolResult(result agentic.ToolResult) Message {
	return Message{
		Role:       RoleTool,
		ToolCallID: result.ID,
		Content:    result.Text(),
		IsError:    result.Error != nil,
	}
}

// CallIDs returns the ids of the tool calls issued by an assistant message.
// It returns nil for every other role.
func (m Message) CallIDs() []string {
	if m.Role != RoleAssistant || len(m.ToolCalls) == 0 {
		return nil
	}
	ids := make([]string, 0, len(m.ToolCalls))
	for _, call := range m.ToolCalls {
		if call.ID != "" {
			ids = append(ids, call.ID)
		}
	}
	return ids
}

// AnsweredCallID returns the call id a tool message answers, or "" for other roles.
func (m Message) AnsweredCallID() string {
	if m.Role != RoleTool {
		return ""
	}
	return m.ToolCallID
}

// IsInstruction reports whether the message carries instructions (human or system).
func (m Message) IsInstruction() bool {
	return m.Role == RoleHuman || m.Role == RoleSystem
}

// IsToolError reports whether a tool message describes a failed execution.
// Besides the explicit flag, JSON payloads with a top-level "error" field count.
func (m Message) IsToolError() bool {
	if m.Role != RoleTool {
		return false
	}
	if m.IsError {
		return true
	}
	content := strings.TrimSpace(m.Content)
	if !strings.HasPrefix(content, "{") || !gjson.Valid(content) {
		return false
	}
	errField := gjson.Get(content, "error")
	return errField.Exists() && errField.Type != gjson.Null && errField.Type != gjson.False
}

// BudgetRole implements budget.Budgetable.
func (m Message) BudgetRole() string {
	return string(m.Role)
}

// BudgetContent implements budget.Budgetable.
// Tool call names and inputs are counted with the content.
func (m Message) BudgetContent() string {
	if len(m.ToolCalls) == 0 {
		return m.Content
	}
	var sb strings.Builder
	sb.WriteString(m.Content)
	for _, call := range m.ToolCalls {
		sb.WriteString(call.Name)
		sb.Write(call.Input)
	}
	return sb.String()
}
