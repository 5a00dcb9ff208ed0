package context

import (
	"github.com/victorarias/qaweave/agentic/context/budget"
	"github.com/victorarias/qaweave/agentic/message"
)

// LibraryTrim delegates to budget.TrimLast: newest messages first, leading system message kept,
// window starting on a human turn. The trimmer is unaware of tool-call pairing and of the
// preserved floor, so its picks are admitted newest-first on top of the resolved floor while
// they still fit, and the admitted block is kept starting on a human turn.
type LibraryTrim struct {
	Counter budget.TokenCounter
}

func (LibraryTrim) Name() StrategyName { return StrategyLibraryTrim }

func (l LibraryTrim) Select(messages []message.Message, cfg Config) Selection {
	if len(messages) == 0 {
		return Selection{}
	}
	counter := l.Counter
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

	picked := budget.TrimLast(messages, budget.TrimOptions{
		MaxTokens:     cfg.WindowSizeTokens,
		Counter:       counter,
		IncludeSystem: true,
		StartOn:       string(message.RoleHuman),
	})
	var groups [][]int
	for k := len(picked) - 1; k >= 0; k-- {
		added, ok := p.admitGroup(picked[k])
		if !ok {
			break
		}
		if len(added) > 0 {
			groups = append(groups, added)
		}
	}
	// A budget cut can leave the admitted block opening mid-exchange; back off to a human turn.
	for len(groups) > 0 && !opensOnHuman(messages, p.kept, groups) {
		p.drop(groups[len(groups)-1])
		groups = groups[:len(groups)-1]
	}
	return Selection{Indices: p.kept.sorted()}
}

// opensOnHuman reports whether every admitted message, apart from a leading system message,
// comes at or after the first human message of the kept set.
func opensOnHuman(messages []message.Message, kept indexSet, groups [][]int) bool {
	sorted := kept.sorted()
	head := -1
	if len(sorted) > 0 && messages[sorted[0]].Role == message.RoleSystem {
		head = sorted[0]
	}
	firstHuman := -1
	for _, i := range sorted {
		if i != head && messages[i].Role == message.RoleHuman {
			firstHuman = i
			break
		}
	}
	for _, g := range groups {
		for _, j := range g {
			if j == head {
				continue
			}
			if firstHuman < 0 || j < firstHuman {
				return false
			}
		}
	}
	return true
}
