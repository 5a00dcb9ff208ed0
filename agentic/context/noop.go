package context

import "github.com/victorarias/qaweave/agentic/message"

// NoOp keeps every message.
type NoOp struct{}

func (NoOp) Name() StrategyName { return StrategyNoOp }

func (NoOp) Select(messages []message.Message, _ Config) Selection {
	all := make([]int, len(messages))
	for i := range messages {
		all[i] = i
	}
	return Selection{Indices: all}
}
