package context

import (
	"fmt"

	"github.com/victorarias/qaweave/agentic/context/budget"
	"github.com/victorarias/qaweave/agentic/message"
)

// Selection is the candidate set a Strategy chose, as positions into the input slice.
type Selection struct {
	Indices  []int
	Warnings []string
}

// Strategy chooses which messages to keep for one model call.
// Implementations may return sets that break tool-call pairing; the Manager repairs them.
type Strategy interface {
	Name() StrategyName
	Select(messages []message.Message, cfg Config) Selection
}

// NewStrategy returns the strategy for name. A nil counter uses the default estimator.
func NewStrategy(name StrategyName, counter budget.TokenCounter) (Strategy, error) {
	if counter == nil {
		counter = budget.CharCounter{}
	}
	switch name {
	case StrategyNoOp:
		return NoOp{}, nil
	case StrategySlidingWindow, "":
		return SlidingWindow{Counter: counter}, nil
	case StrategySmartTrim:
		return SmartTrim{Counter: counter, Weights: DefaultWeights()}, nil
	case StrategyLibraryTrim:
		return LibraryTrim{Counter: counter}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// floor holds the messages every strategy keeps regardless of budget.
type floor struct {
	first indexSet
	last  indexSet
	// firstEnd is the highest position in first, or -1.
	firstEnd int
	// lastStart is the lowest position in last, or len(messages).
	lastStart int
}

// computeFloor picks the first preserveFirst human/system messages and the last preserveLast
// messages of any role.
func computeFloor(messages []message.Message, preserveFirst, preserveLast int) floor {
	f := floor{
		first:     make(indexSet),
		last:      make(indexSet),
		firstEnd:  -1,
		lastStart: len(messages),
	}
	for i, msg := range messages {
		if len(f.first) >= preserveFirst {
			break
		}
		if msg.IsInstruction() {
			f.first[i] = struct{}{}
			f.firstEnd = i
		}
	}
	if preserveLast > 0 {
		f.lastStart = max(len(messages)-preserveLast, 0)
		for i := f.lastStart; i < len(messages); i++ {
			f.last[i] = struct{}{}
		}
	}
	return f
}

func (f floor) union() indexSet {
	out := f.first.clone()
	for i := range f.last {
		out[i] = struct{}{}
	}
	return out
}

func floorWarning(cfg Config, f floor, tokens int) string {
	return fmt.Sprintf("first %d + last %d messages exceed budget: %d tokens > %d",
		len(f.first), len(f.last), tokens, cfg.WindowSizeTokens)
}

// packer grows a pair-complete index set under a token limit, starting from the resolved floor.
type packer struct {
	resolver *Resolver
	tokens   tokenTable
	kept     indexSet
	used     int
	limit    int
}

func newPacker(messages []message.Message, counter budget.TokenCounter, f floor, limit int) *packer {
	p := &packer{
		resolver: NewResolver(messages),
		tokens:   newTokenTable(messages, counter),
		limit:    limit,
	}
	p.kept = p.resolver.resolve(f.union())
	p.used = p.tokens.sum(p.kept)
	return p
}

func (p *packer) overBudget() bool {
	return p.used > p.limit
}

// admit adds message i together with its tool-call partners. It reports false, leaving the
// set untouched, when the addition would exceed the limit.
func (p *packer) admit(i int) bool {
	_, ok := p.admitGroup(i)
	return ok
}

// admitGroup is admit that also returns the indices it newly added.
func (p *packer) admitGroup(i int) ([]int, bool) {
	if p.kept.has(i) {
		return nil, true
	}
	grown := p.resolver.resolve(newIndexSet(i))
	var added []int
	extra := 0
	for j := range grown {
		if !p.kept.has(j) {
			added = append(added, j)
			extra += p.tokens.counts[j]
		}
	}
	if p.used+extra > p.limit {
		return nil, false
	}
	for _, j := range added {
		p.kept[j] = struct{}{}
	}
	p.used += extra
	return added, true
}

// drop removes a group returned by the most recent admitGroup call. Groups must be dropped in
// reverse admission order to keep the set pair-complete.
func (p *packer) drop(group []int) {
	for _, j := range group {
		delete(p.kept, j)
		p.used -= p.tokens.counts[j]
	}
}
