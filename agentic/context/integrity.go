package context

import (
	"fmt"
	"sort"

	"github.com/victorarias/qaweave/agentic/message"
)

type indexSet map[int]struct{}

func newIndexSet(indices ...int) indexSet {
	set := make(indexSet, len(indices))
	for _, i := range indices {
		set[i] = struct{}{}
	}
	return set
}

func (s indexSet) has(i int) bool {
	_, ok := s[i]
	return ok
}

func (s indexSet) clone() indexSet {
	out := make(indexSet, len(s))
	for i := range s {
		out[i] = struct{}{}
	}
	return out
}

func (s indexSet) sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Resolver restores tool-call pairing for candidate subsets of one message list.
type Resolver struct {
	messages []message.Message
	// issuers maps a call id to the assistant messages that issued it.
	issuers map[string][]int
	// answers maps a call id to the tool messages answering it.
	answers map[string][]int
}

// NewResolver indexes the tool-call pairs of messages.
func NewResolver(messages []message.Message) *Resolver {
	r := &Resolver{
		messages: messages,
		issuers:  make(map[string][]int),
		answers:  make(map[string][]int),
	}
	for i, msg := range messages {
		for _, id := range msg.CallIDs() {
			r.issuers[id] = append(r.issuers[id], i)
		}
		if id := msg.AnsweredCallID(); id != "" {
			r.answers[id] = append(r.answers[id], i)
		}
	}
	return r
}

// Resolve returns the smallest superset of candidates, in ascending order, that holds every
// tool-call pair completely. Out-of-range indices are ignored.
func (r *Resolver) Resolve(candidates []int) []int {
	set := make(indexSet, len(candidates))
	for _, i := range candidates {
		if i >= 0 && i < len(r.messages) {
			set[i] = struct{}{}
		}
	}
	return r.resolve(set).sorted()
}

// resolve expands set to its fixed point. The input set is not modified.
func (r *Resolver) resolve(set indexSet) indexSet {
	out := set.clone()
	queue := set.sorted()
	push := func(i int) {
		if !out.has(i) {
			out[i] = struct{}{}
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		msg := r.messages[i]
		for _, id := range msg.CallIDs() {
			for _, j := range r.answers[id] {
				push(j)
			}
		}
		if id := msg.AnsweredCallID(); id != "" {
			for _, j := range r.issuers[id] {
				push(j)
			}
		}
	}
	return out
}

// Resolve is a convenience wrapper around NewResolver(messages).Resolve(candidates).
func Resolve(messages []message.Message, candidates []int) []int {
	return NewResolver(messages).Resolve(candidates)
}

// Violations describes every broken tool-call pair within messages: tool messages without an
// earlier issuing assistant message, and issued calls without an answer.
func Violations(messages []message.Message) []string {
	var problems []string
	issued := make(map[string]bool)
	answered := make(map[string]bool)
	for _, msg := range messages {
		if id := msg.AnsweredCallID(); id != "" {
			if !issued[id] {
				problems = append(problems, fmt.Sprintf("tool message seq %d answers unknown call %q", msg.Seq, id))
			}
			answered[id] = true
		}
		for _, id := range msg.CallIDs() {
			issued[id] = true
		}
	}
	for _, msg := range messages {
		for _, id := range msg.CallIDs() {
			if !answered[id] {
				problems = append(problems, fmt.Sprintf("assistant message seq %d has unanswered call %q", msg.Seq, id))
			}
		}
	}
	return problems
}
