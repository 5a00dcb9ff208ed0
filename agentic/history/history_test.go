package history

import (
	"context"
	"errors"
	"testing"

	"github.com/victorarias/qaweave/agentic"
	"github.com/victorarias/qaweave/agentic/message"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for _, msg := range []message.Message{
		message.System("you test web apps"),
		message.Human("open the login page"),
		message.Assistant("", agentic.ToolCall{ID: "c1", Name: "browser_navigate"}),
	} {
		msg.Seq = 99
		if _, err := store.Append(ctx, msg); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	msgs, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(msgs) != 3 || store.Len() != 3 {
		t.Fatalf("unexpected messages: %#v", msgs)
	}
	for i, msg := range msgs {
		if msg.Seq != i {
			t.Fatalf("expected seq %d, got %d", i, msg.Seq)
		}
	}
}

func TestMemoryStoreLoadReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	calls := []agentic.ToolCall{{ID: "c1", Name: "browser_click"}}
	if _, err := store.Append(ctx, message.Assistant("clicking", calls...)); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	calls[0].ID = "changed"

	msgs, _ := store.Load(ctx)
	msgs[0].Content = "mutated"
	again, _ := store.Load(ctx)
	if again[0].Content != "clicking" || again[0].ToolCalls[0].ID != "c1" {
		t.Fatalf("store was mutated: %#v", again[0])
	}
}

func TestMemoryStoreCanceled(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Append(ctx, message.Human("hi")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
