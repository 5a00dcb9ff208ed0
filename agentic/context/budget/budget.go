// Package budget holds token accounting and a generic, role-aware message trimmer.
// It knows nothing about tool-call pairing; callers that need it must repair the output.
package budget

import "unicode/utf8"

// DefaultCharsPerToken is the characters-per-token ratio used by CharCounter.
const DefaultCharsPerToken = 4

// Budgetable represents a message that can be counted for token budgeting.
type Budgetable interface {
	BudgetRole() string
	BudgetContent() string
}

// TokenCounter estimates token usage.
type TokenCounter interface {
	Count(text string) int
}

// CharCounter estimates tokens by characters per token (default 4), rounding up.
type CharCounter struct {
	CharsPerToken int
}

// Count implements TokenCounter.
func (c CharCounter) Count(text string) int {
	per := c.CharsPerToken
	if per <= 0 {
		per = DefaultCharsPerToken
	}
	if text == "" {
		return 0
	}
	chars := utf8.RuneCountInString(text)
	return (chars + per - 1) / per
}

// EstimateTokens sums token estimates for the message list.
func EstimateTokens[T Budgetable](messages []T, counter TokenCounter) int {
	if counter == nil {
		return 0
	}
	total := 0
	for _, msg := range messages {
		total += counter.Count(msg.BudgetContent())
	}
	return total
}

// TrimOptions configures TrimLast.
type TrimOptions struct {
	// MaxTokens is the budget for the kept messages. Zero or less keeps everything.
	MaxTokens int
	Counter   TokenCounter
	// IncludeSystem keeps a leading system message and charges it against the budget first.
	IncludeSystem bool
	// StartOn, when set, drops kept messages from the front until one with this role leads.
	StartOn string
}

// TrimLast keeps the newest messages that fit in the budget and returns their indices in
// ascending order. The walk stops at the first message that does not fit.
func TrimLast[T Budgetable](messages []T, opts TrimOptions) []int {
	if len(messages) == 0 {
		return nil
	}
	counter := opts.Counter
	if counter == nil {
		counter = CharCounter{}
	}
	if opts.MaxTokens <= 0 {
		all := make([]int, len(messages))
		for i := range messages {
			all[i] = i
		}
		return all
	}

	remaining := opts.MaxTokens
	first := 0
	var head []int
	if opts.IncludeSystem && messages[0].BudgetRole() == "system" {
		cost := counter.Count(messages[0].BudgetContent())
		if cost <= remaining {
			head = []int{0}
			remaining -= cost
		}
		first = 1
	}

	start := len(messages)
	for i := len(messages) - 1; i >= first; i-- {
		cost := counter.Count(messages[i].BudgetContent())
		if cost > remaining {
			break
		}
		remaining -= cost
		start = i
	}

	if opts.StartOn != "" {
		for start < len(messages) && messages[start].BudgetRole() != opts.StartOn {
			start++
		}
	}

	kept := make([]int, 0, len(head)+len(messages)-start)
	kept = append(kept, head...)
	for i := start; i < len(messages); i++ {
		kept = append(kept, i)
	}
	return kept
}
