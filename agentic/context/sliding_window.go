package context

import (
	"github.com/victorarias/qaweave/agentic/context/budget"
	"github.com/victorarias/qaweave/agentic/message"
)

// SlidingWindow keeps the first instructions and the most recent messages, then fills the gap
// backward from the recent end while the budget allows.
type SlidingWindow struct {
	Counter budget.TokenCounter
}

func (SlidingWindow) Name() StrategyName { return StrategySlidingWindow }

// Select implements Strategy. The fill is strictly contiguous: it stops at the first message
// that would overflow the budget instead of looking for a smaller one further back.
func (s SlidingWindow) Select(messages []message.Message, cfg Config) Selection {
	if len(messages) == 0 {
		return Selection{}
	}
	counter := s.Counter
	if counter == nil {
		counter = budget.CharCounter{}
	}

	f := computeFloor(messages, cfg.PreserveFirst, cfg.PreserveLast)
	p := newPacker(messages, counter, f, cfg.WindowSizeTokens)
	if p.overBudget() {
		return Selection{
			Indices:  p.kept.sorted(),
			Warnings: []string{floorWarning(cfg, f, p.used)},
		}
	}

	for i := f.lastStart - 1; i > f.firstEnd; i-- {
		if !p.admit(i) {
			break
		}
	}
	return Selection{Indices: p.kept.sorted()}
}
