package events

import (
	"github.com/victorarias/qaweave/agentic"
	"github.com/victorarias/qaweave/agentic/context"
)

const (
	AgentStart     = "agent_start"
	AgentEnd       = "agent_end"
	TurnStart      = "turn_start"
	TurnEnd        = "turn_end"
	ContextTrimmed = "context_trimmed"
	MessageEnd     = "message_end"
	ToolStart      = "tool_execution_start"
	ToolEnd        = "tool_execution_end"
)

// Event captures an agent lifecycle update.
type Event struct {
	Type       string
	RunID      string
	Turn       int
	Role       string
	Content    string
	ToolCall   *agentic.ToolCall
	ToolResult *agentic.ToolResult
	// Trim is set on ContextTrimmed events.
	Trim *context.TrimResult
}

// Sink consumes events (logging, reporting).
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Recorder is a Sink that keeps every event, for tests and reports.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Emit(e Event) { r.Events = append(r.Events, e) }

// OfType returns the recorded events with the given type.
func (r *Recorder) OfType(typ string) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
