package history

import (
	"context"

	"github.com/victorarias/qaweave/agentic"
	"github.com/victorarias/qaweave/agentic/message"
)

// Store persists the conversation of one run. Messages are only ever appended.
type Store interface {
	Append(ctx context.Context, msg message.Message) (message.Message, error)
	Load(ctx context.Context) ([]message.Message, error)
}

// MemoryStore stores messages in memory. It assumes a single writer.
type MemoryStore struct {
	messages []message.Message
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append stores msg with the next sequence number and returns the stored copy.
func (m *MemoryStore) Append(ctx context.Context, msg message.Message) (message.Message, error) {
	if err := ctx.Err(); err != nil {
		return message.Message{}, err
	}
	msg.Seq = len(m.messages)
	msg.ToolCalls = append([]agentic.ToolCall(nil), msg.ToolCalls...)
	m.messages = append(m.messages, msg)
	return msg, nil
}

// Load returns a copy of the stored messages in append order.
func (m *MemoryStore) Load(ctx context.Context) ([]message.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]message.Message, len(m.messages))
	copy(out, m.messages)
	return out, nil
}

// Len returns the number of stored messages.
func (m *MemoryStore) Len() int {
	return len(m.messages)
}
