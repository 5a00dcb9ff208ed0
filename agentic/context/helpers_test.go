package context

import (
	"encoding/json"
	"strings"

	"github.com/victorarias/qaweave/agentic"
	"github.com/victorarias/qaweave/agentic/message"
)

// text returns content that the default estimator counts as exactly tokens tokens.
func text(tokens int) string {
	return strings.Repeat("a", tokens*4)
}

// call builds a tool call whose name and input add nothing to the token estimate.
func call(id string) agentic.ToolCall {
	return agentic.ToolCall{ID: id}
}

func browserCall(id string) agentic.ToolCall {
	return agentic.ToolCall{ID: id, Name: "browser_click", Input: json.RawMessage(`{"ref":"e1"}`)}
}

// numbered assigns Seq values equal to positions.
func numbered(msgs ...message.Message) []message.Message {
	for i := range msgs {
		msgs[i].Seq = i
	}
	return msgs
}

func seqs(msgs []message.Message) []int {
	out := make([]int, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.Seq
	}
	return out
}

func rangeOf(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func concat(parts ...[]int) []int {
	var out []int
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// uniformHistory is a system message and a human message followed by alternating
// assistant/human messages, every one costing size tokens.
func uniformHistory(n, size int) []message.Message {
	msgs := make([]message.Message, 0, n)
	for i := 0; i < n; i++ {
		switch {
		case i == 0:
			msgs = append(msgs, message.System(text(size)))
		case i%2 == 1:
			msgs = append(msgs, message.Human(text(size)))
		default:
			msgs = append(msgs, message.Assistant(text(size)))
		}
	}
	return numbered(msgs...)
}

// longSession has 30 messages and 40000 tokens: 1500 in the first two, 20500 in the middle
// and 18000 in the last ten.
func longSession() []message.Message {
	msgs := make([]message.Message, 0, 30)
	for i := 0; i < 30; i++ {
		var size int
		switch {
		case i < 2:
			size = 750
		case i < 10:
			size = 1000
		case i < 20:
			size = 1250
		default:
			size = 1800
		}
		switch {
		case i == 0:
			msgs = append(msgs, message.System(text(size)))
		case i%2 == 1:
			msgs = append(msgs, message.Human(text(size)))
		default:
			msgs = append(msgs, message.Assistant(text(size)))
		}
	}
	return numbered(msgs...)
}

// heavyTail has 35 messages whose first message and last ten together exceed 25000 tokens.
func heavyTail() []message.Message {
	msgs := make([]message.Message, 0, 35)
	msgs = append(msgs, message.Human(text(1119)))
	for i := 1; i < 25; i++ {
		if i%2 == 1 {
			msgs = append(msgs, message.Assistant(text(500)))
		} else {
			msgs = append(msgs, message.Human(text(500)))
		}
	}
	for i := 25; i < 34; i++ {
		if i%2 == 1 {
			msgs = append(msgs, message.Assistant(text(3180)))
		} else {
			msgs = append(msgs, message.Human(text(3180)))
		}
	}
	msgs = append(msgs, message.Assistant(text(3185)))
	return numbered(msgs...)
}
