package context

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/victorarias/qaweave/agentic/message"
)

func TestManagerShortConversationUntouched(t *testing.T) {
	msgs := uniformHistory(20, 750)
	out, result := Manager{}.Trim(msgs, Config{Strategy: StrategySlidingWindow, WindowSizeTokens: 25000, PreserveFirst: 2, PreserveLast: 10})
	if len(out) != 20 {
		t.Fatalf("expected 20 messages, got %d", len(out))
	}
	if result.TokensBefore != 15000 || result.TokensAfter != 15000 || result.ReductionPercentage != 0 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestManagerLongSession(t *testing.T) {
	msgs := longSession()
	out, result := Manager{}.Trim(msgs, Config{Strategy: StrategySlidingWindow, WindowSizeTokens: 25000, PreserveFirst: 2, PreserveLast: 10})
	want := concat([]int{0, 1}, rangeOf(16, 29))
	if !equalInts(result.KeptIndices, want) || !equalInts(seqs(out), want) {
		t.Fatalf("expected %v, got %v", want, result.KeptIndices)
	}
	if result.TokensBefore != 40000 || result.TokensAfter != 24500 {
		t.Fatalf("unexpected token counts: %d -> %d", result.TokensBefore, result.TokensAfter)
	}
	if result.MessagesBefore != 30 || result.MessagesAfter != 16 || result.Dropped() != 14 {
		t.Fatalf("unexpected message counts: %#v", result)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", result.Warnings)
	}
	if got := result.ReductionPercentage; got < 38.74 || got > 38.76 {
		t.Fatalf("expected 38.75%% reduction, got %v", got)
	}
}

func TestManagerFloorOverBudget(t *testing.T) {
	_, result := Manager{}.Trim(heavyTail(), Config{Strategy: StrategySmartTrim, WindowSizeTokens: 25000, PreserveFirst: 1, PreserveLast: 10})
	if !equalInts(result.KeptIndices, concat([]int{0}, rangeOf(25, 34))) {
		t.Fatalf("unexpected kept set %v", result.KeptIndices)
	}
	if result.TokensAfter != 32924 || len(result.Warnings) != 1 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestManagerEmpty(t *testing.T) {
	out, result := Manager{}.Trim(nil, DefaultConfig())
	if len(out) != 0 {
		t.Fatalf("expected no messages, got %d", len(out))
	}
	if result.KeptIndices == nil || len(result.KeptIndices) != 0 {
		t.Fatalf("expected empty kept indices, got %#v", result.KeptIndices)
	}
	if result.TokensBefore != 0 || result.TokensAfter != 0 || result.ReductionPercentage != 0 || len(result.Warnings) != 0 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestManagerDisabledConfigKeepsAll(t *testing.T) {
	msgs := longSession()
	for _, cfg := range []Config{
		{Strategy: StrategyNoOp, WindowSizeTokens: 100, PreserveFirst: 2, PreserveLast: 10},
		{Strategy: StrategySmartTrim, WindowSizeTokens: 0},
	} {
		out, result := Manager{}.Trim(msgs, cfg)
		if len(out) != len(msgs) || result.Strategy != StrategyNoOp {
			t.Fatalf("%#v: expected identity, got %d messages via %s", cfg, len(out), result.Strategy)
		}
	}
}

func TestManagerUnknownStrategyFallsBack(t *testing.T) {
	msgs := longSession()
	out, result := Manager{}.Trim(msgs, Config{Strategy: "summarize", WindowSizeTokens: 100})
	if len(out) != len(msgs) {
		t.Fatalf("expected all messages, got %d", len(out))
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "keeping all messages") {
		t.Fatalf("expected fallback warning, got %v", result.Warnings)
	}
}

func TestManagerRepairsPairing(t *testing.T) {
	msgs := numbered(
		message.Human(text(10)),
		message.Assistant(text(10), browserCall("a"), browserCall("b")),
		message.Tool("a", text(10)),
		message.Tool("b", text(10)),
	)
	// The last message alone is an answer; its issuer and sibling come along.
	out, result := Manager{}.Trim(msgs, Config{Strategy: StrategySlidingWindow, WindowSizeTokens: 1000, PreserveFirst: 0, PreserveLast: 1})
	if !equalInts(result.KeptIndices, []int{0, 1, 2, 3}) {
		t.Fatalf("unexpected kept set %v", result.KeptIndices)
	}
	if v := Violations(out); len(v) != 0 {
		t.Fatalf("unexpected violations: %v", v)
	}
}

func TestManagerOrdersBySeq(t *testing.T) {
	msgs := uniformHistory(6, 10)
	shuffled := []message.Message{msgs[3], msgs[0], msgs[5], msgs[1], msgs[4], msgs[2]}
	out, result := Manager{}.Trim(shuffled, Config{Strategy: StrategySlidingWindow, WindowSizeTokens: 1000, PreserveFirst: 2, PreserveLast: 2})
	if !equalInts(seqs(out), rangeOf(0, 5)) || !equalInts(result.KeptIndices, rangeOf(0, 5)) {
		t.Fatalf("expected chronological output, got %v", seqs(out))
	}
	if shuffled[0].Seq != 3 {
		t.Fatalf("input was reordered")
	}
}

func TestManagerWeightsOverride(t *testing.T) {
	msgs := numbered(
		message.Human(text(10)),
		message.Assistant(text(10)),
		message.Human(text(10)),
		message.Assistant(text(10)),
	)
	weights := DefaultWeights()
	weights.Recency = -100
	_, result := Manager{Weights: &weights}.Trim(msgs, Config{Strategy: StrategySmartTrim, WindowSizeTokens: 30, PreserveFirst: 1, PreserveLast: 1})
	// Negative recency favours the older assistant message.
	if !equalInts(result.KeptIndices, []int{0, 1, 3}) {
		t.Fatalf("expected [0 1 3], got %v", result.KeptIndices)
	}
}

func TestManagerLogging(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	Manager{Logger: logger}.Trim(longSession(), DefaultConfig())
	if len(hook.AllEntries()) != 0 {
		t.Fatalf("expected quiet manager, got %d entries", len(hook.AllEntries()))
	}

	Manager{Logger: logger}.Trim(heavyTail(), Config{Strategy: StrategySlidingWindow, WindowSizeTokens: 25000, PreserveFirst: 1, PreserveLast: 10})
	if len(hook.Entries) != 1 || hook.LastEntry().Level != logrus.WarnLevel {
		t.Fatalf("expected one warning, got %#v", hook.AllEntries())
	}
	hook.Reset()

	Manager{Logger: logger, Verbose: true}.Trim(longSession(), Config{Strategy: StrategySlidingWindow, WindowSizeTokens: 25000, PreserveFirst: 2, PreserveLast: 10})
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.InfoLevel || entry.Message != "context trimmed" {
		t.Fatalf("expected trim report, got %#v", entry)
	}
	if entry.Data["tokens_after"] != 24500 || entry.Data["strategy"] != "sliding-window" {
		t.Fatalf("unexpected fields: %v", entry.Data)
	}
}

func TestTrimResultSummary(t *testing.T) {
	r := newTrimResult(StrategySlidingWindow, []int{0, 1}, 30, 40000, 25000, nil)
	want := "sliding-window: kept 2/30 messages, 40,000 -> 25,000 tokens (37.5% reduction)"
	if got := r.Summary(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	r.Warnings = []string{"too big"}
	if got := r.Summary(); !strings.HasSuffix(got, "; warning: too big") {
		t.Fatalf("expected warning suffix, got %q", got)
	}
}
