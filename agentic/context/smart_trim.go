package context

import (
	"sort"
	"strings"

	"github.com/victorarias/qaweave/agentic/context/budget"
	"github.com/victorarias/qaweave/agentic/message"
)

// Weights tunes SmartTrim's importance score.
type Weights struct {
	System    float64
	ToolError float64
	Assistant float64
	Human     float64
	Tool      float64
	// Recency is the bonus of the newest message; older ones get a linear share of it.
	Recency float64
	// ErrorKeyword and VerifyKeyword are added once per matching keyword class.
	ErrorKeyword  float64
	VerifyKeyword float64
	// LengthPenalty is subtracted per 1000 estimated tokens.
	LengthPenalty float64
}

// DefaultWeights returns the weights SmartTrim uses unless told otherwise.
func DefaultWeights() Weights {
	return Weights{
		System:        100,
		ToolError:     70,
		Assistant:     50,
		Human:         40,
		Tool:          20,
		Recency:       50,
		ErrorKeyword:  25,
		VerifyKeyword: 15,
		LengthPenalty: 10,
	}
}

var (
	errorKeywords  = []string{"error", "exception", "failed", "failure", "timeout", "timed out", "not found", "traceback"}
	verifyKeywords = []string{"assert", "verify", "verified", "expect", "should", "confirm", "pass", "fail"}
)

// SmartTrim keeps the floor, then the most important remaining messages that fit the budget.
type SmartTrim struct {
	Counter budget.TokenCounter
	Weights Weights
}

func (SmartTrim) Name() StrategyName { return StrategySmartTrim }

// Select implements Strategy. Scores decide membership only; indices come back in
// chronological order.
func (s SmartTrim) Select(messages []message.Message, cfg Config) Selection {
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

	type candidate struct {
		index int
		score float64
	}
	candidates := make([]candidate, 0, len(messages)-len(p.kept))
	for i, msg := range messages {
		if p.kept.has(i) {
			continue
		}
		candidates = append(candidates, candidate{index: i, score: s.score(msg, i, len(messages), p.tokens.counts[i])})
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].score != candidates[b].score {
			return candidates[a].score > candidates[b].score
		}
		return candidates[a].index > candidates[b].index
	})

	for _, c := range candidates {
		if !p.admit(c.index) {
			break
		}
	}
	return Selection{Indices: p.kept.sorted()}
}

// Score returns the importance of the message at position index among total messages.
func (s SmartTrim) Score(msg message.Message, index, total int) float64 {
	counter := s.Counter
	if counter == nil {
		counter = budget.CharCounter{}
	}
	return s.score(msg, index, total, counter.Count(msg.BudgetContent()))
}

func (s SmartTrim) score(msg message.Message, index, total, tokens int) float64 {
	w := s.Weights
	var score float64
	switch {
	case msg.Role == message.RoleSystem:
		score = w.System
	case msg.IsToolError():
		score = w.ToolError
	case msg.Role == message.RoleAssistant:
		score = w.Assistant
	case msg.Role == message.RoleHuman:
		score = w.Human
	default:
		score = w.Tool
	}

	if total > 1 {
		score += w.Recency * float64(index) / float64(total-1)
	} else {
		score += w.Recency
	}

	content := strings.ToLower(msg.Content)
	if containsAny(content, errorKeywords) {
		score += w.ErrorKeyword
	}
	if containsAny(content, verifyKeywords) {
		score += w.VerifyKeyword
	}

	score -= w.LengthPenalty * float64(tokens) / 1000
	return score
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
