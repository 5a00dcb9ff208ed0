// Package context selects the part of a conversation that is sent with each model call.
//
// The Manager runs a Strategy, repairs tool-call pairing with the Resolver and reports the
// outcome as a TrimResult. It never fails on budget shortfalls; those become warnings.
package context

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/victorarias/qaweave/agentic/context/budget"
	"github.com/victorarias/qaweave/agentic/message"
)

// Manager trims conversations before model calls. The zero value is ready to use.
type Manager struct {
	// Counter estimates tokens; nil uses the chars/4 estimator.
	Counter budget.TokenCounter
	// Weights overrides the SmartTrim defaults when set.
	Weights *Weights
	// Logger receives trim reports when Verbose is set; warnings are logged whenever a
	// logger is present.
	Logger  logrus.FieldLogger
	Verbose bool
}

// Trim returns the messages to send and a report. The input is not modified and the
// returned messages keep their relative order.
func (m Manager) Trim(messages []message.Message, cfg Config) ([]message.Message, TrimResult) {
	counter := m.Counter
	if counter == nil {
		counter = budget.CharCounter{}
	}
	messages = bySeq(messages)

	strategy, warning := m.strategyFor(cfg, counter)
	sel := strategy.Select(messages, cfg)
	kept := NewResolver(messages).Resolve(sel.Indices)

	warnings := sel.Warnings
	if warning != "" {
		warnings = append([]string{warning}, warnings...)
	}

	tokens := newTokenTable(messages, m.Counter)
	out := make([]message.Message, 0, len(kept))
	seqs := make([]int, 0, len(kept))
	after := 0
	for _, i := range kept {
		out = append(out, messages[i])
		seqs = append(seqs, messages[i].Seq)
		after += tokens.counts[i]
	}

	result := newTrimResult(strategy.Name(), seqs, len(messages), tokens.total(), after, warnings)
	m.record(result)
	return out, result
}

func (m Manager) strategyFor(cfg Config, counter budget.TokenCounter) (Strategy, string) {
	if cfg.Disabled() {
		return NoOp{}, ""
	}
	strategy, err := NewStrategy(cfg.Strategy, counter)
	if err != nil {
		return NoOp{}, fmt.Sprintf("%v; keeping all messages", err)
	}
	if smart, ok := strategy.(SmartTrim); ok && m.Weights != nil {
		smart.Weights = *m.Weights
		strategy = smart
	}
	return strategy, ""
}

func (m Manager) record(result TrimResult) {
	if m.Logger == nil {
		return
	}
	if m.Verbose {
		result.Log(m.Logger)
		return
	}
	if len(result.Warnings) > 0 {
		entry := m.Logger.WithFields(result.Fields())
		for _, w := range result.Warnings {
			entry.Warn(w)
		}
	}
}

// bySeq returns messages ordered by Seq, copying only when the input is out of order.
func bySeq(messages []message.Message) []message.Message {
	ordered := sort.SliceIsSorted(messages, func(i, j int) bool {
		return messages[i].Seq < messages[j].Seq
	})
	if ordered {
		return messages
	}
	out := append([]message.Message(nil), messages...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Seq < out[j].Seq
	})
	return out
}
