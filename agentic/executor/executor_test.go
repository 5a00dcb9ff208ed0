package executor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/victorarias/qaweave/agentic"
)

type stubExecutor struct {
	defs    []agentic.ToolDefinition
	results map[string]agentic.ToolResult
	calls   *int
}

func (s stubExecutor) ListTools(ctx context.Context) ([]agentic.ToolDefinition, error) {
	return s.defs, nil
}

func (s stubExecutor) Execute(ctx context.Context, call agentic.ToolCall) (agentic.ToolResult, error) {
	if s.calls != nil {
		*s.calls++
	}
	if result, ok := s.results[call.Name]; ok {
		return result, nil
	}
	return agentic.ToolResult{}, agentic.ErrToolNotFound
}

type failingExecutor struct{}

func (failingExecutor) ListTools(ctx context.Context) ([]agentic.ToolDefinition, error) {
	return nil, errors.New("browser gone")
}

func (failingExecutor) Execute(ctx context.Context, call agentic.ToolCall) (agentic.ToolResult, error) {
	return agentic.ToolResult{}, errors.New("browser gone")
}

func TestCompositeListTools(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	c := NewComposite(
		stubExecutor{defs: []agentic.ToolDefinition{{Name: "browser_navigate"}, {Name: "report_verdict", Description: "browser"}}},
		stubExecutor{defs: []agentic.ToolDefinition{{Name: "report_verdict", Description: "local"}}},
	).WithLogger(logger)
	defs, err := c.ListTools(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 2 || defs[0].Name != "browser_navigate" || defs[1].Description != "browser" {
		t.Fatalf("unexpected tools: %#v", defs)
	}
	if len(hook.Entries) != 1 {
		t.Fatalf("expected shadowing warning, got %d entries", len(hook.Entries))
	}

	if _, err := NewComposite(failingExecutor{}).ListTools(context.Background()); err == nil {
		t.Fatalf("expected list error")
	}
}

func TestCompositeRoutesByName(t *testing.T) {
	payload := json.RawMessage(`"ok"`)
	var firstCalls, secondCalls int
	c := NewComposite(
		stubExecutor{defs: []agentic.ToolDefinition{{Name: "a"}}, results: map[string]agentic.ToolResult{"a": {Name: "a", Output: payload}}, calls: &firstCalls},
		stubExecutor{defs: []agentic.ToolDefinition{{Name: "b"}}, results: map[string]agentic.ToolResult{"b": {Name: "b", Output: payload}}, calls: &secondCalls},
	)
	if _, err := c.ListTools(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := c.Execute(context.Background(), agentic.ToolCall{Name: "b"})
	if err != nil || result.Name != "b" {
		t.Fatalf("unexpected result %#v, %v", result, err)
	}
	if firstCalls != 0 || secondCalls != 1 {
		t.Fatalf("expected direct routing, got %d/%d calls", firstCalls, secondCalls)
	}
}

func TestCompositeFallsThrough(t *testing.T) {
	c := NewComposite(
		stubExecutor{},
		stubExecutor{results: map[string]agentic.ToolResult{"b": {Name: "b"}}},
	)
	result, err := c.Execute(context.Background(), agentic.ToolCall{Name: "b"})
	if err != nil || result.Name != "b" {
		t.Fatalf("unexpected result %#v, %v", result, err)
	}

	if _, err := c.Execute(context.Background(), agentic.ToolCall{Name: "missing"}); !errors.Is(err, agentic.ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}

	if _, err := NewComposite(failingExecutor{}, stubExecutor{}).Execute(context.Background(), agentic.ToolCall{Name: "b"}); err == nil || errors.Is(err, agentic.ErrToolNotFound) {
		t.Fatalf("expected backend error, got %v", err)
	}
}
