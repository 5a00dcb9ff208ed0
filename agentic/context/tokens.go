package context

import (
	"github.com/victorarias/qaweave/agentic/context/budget"
	"github.com/victorarias/qaweave/agentic/message"
)

// EstimateTokens approximates the token count of text as ceil(chars/4).
// Budget decisions only compare totals, so the coarse ratio is intentional.
func EstimateTokens(text string) int {
	return budget.CharCounter{}.Count(text)
}

// tokenTable caches per-message token estimates for one trimming decision.
type tokenTable struct {
	counts []int
}

func newTokenTable(messages []message.Message, counter budget.TokenCounter) tokenTable {
	counts := make([]int, len(messages))
	for i, msg := range messages {
		if counter == nil {
			counts[i] = EstimateTokens(msg.BudgetContent())
			continue
		}
		counts[i] = counter.Count(msg.BudgetContent())
	}
	return tokenTable{counts: counts}
}

func (t tokenTable) total() int {
	sum := 0
	for _, c := range t.counts {
		sum += c
	}
	return sum
}

func (t tokenTable) sum(set indexSet) int {
	total := 0
	for i := range set {
		total += t.counts[i]
	}
	return total
}
