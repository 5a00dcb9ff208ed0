package context

import (
	"strings"
	"testing"

	"github.com/victorarias/qaweave/agentic"
	"github.com/victorarias/qaweave/agentic/message"
)

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("a", 4000), 1000},
	}
	for _, tc := range cases {
		if got := EstimateTokens(tc.text); got != tc.want {
			t.Fatalf("expected %d tokens for %d chars, got %d", tc.want, len(tc.text), got)
		}
	}
}

func TestTokenTableDefaultsToEstimate(t *testing.T) {
	msgs := []message.Message{
		message.Human("abcde"),
		message.Assistant("", agentic.ToolCall{ID: "c1", Name: "nav", Input: []byte(`{}`)}),
	}
	table := newTokenTable(msgs, nil)
	if table.counts[0] != 2 {
		t.Fatalf("expected 2 tokens for human message, got %d", table.counts[0])
	}
	// "nav{}" is five chars
	if table.counts[1] != 2 {
		t.Fatalf("expected 2 tokens for tool call, got %d", table.counts[1])
	}
	if table.total() != 4 {
		t.Fatalf("expected total 4, got %d", table.total())
	}
}
