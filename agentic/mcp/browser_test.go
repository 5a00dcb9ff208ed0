package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/victorarias/qaweave/agentic"
)

type fakeSession struct {
	pages  [][]*sdkmcp.Tool
	result *sdkmcp.CallToolResult
	err    error
	calls  []*sdkmcp.CallToolParams
	closed bool
}

func (f *fakeSession) ListTools(ctx context.Context, params *sdkmcp.ListToolsParams) (*sdkmcp.ListToolsResult, error) {
	page := 0
	if params != nil && params.Cursor != "" {
		page = 1
	}
	res := &sdkmcp.ListToolsResult{Tools: f.pages[page]}
	if page+1 < len(f.pages) {
		res.NextCursor = "next"
	}
	return res, nil
}

func (f *fakeSession) CallTool(ctx context.Context, params *sdkmcp.CallToolParams) (*sdkmcp.CallToolResult, error) {
	f.calls = append(f.calls, params)
	return f.result, f.err
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func TestBrowserListToolsFollowsCursor(t *testing.T) {
	session := &fakeSession{pages: [][]*sdkmcp.Tool{
		{{Name: "browser_navigate", Description: "Open a URL", InputSchema: map[string]any{"type": "object"}}},
		{{Name: "browser_snapshot"}},
	}}
	defs, err := NewBrowser(session, nil).ListTools(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 2 || defs[0].Name != "browser_navigate" || defs[1].Name != "browser_snapshot" {
		t.Fatalf("unexpected tools: %#v", defs)
	}
	if string(defs[0].InputSchema) != `{"type":"object"}` {
		t.Fatalf("unexpected schema: %s", defs[0].InputSchema)
	}
}

func TestBrowserExecute(t *testing.T) {
	session := &fakeSession{result: &sdkmcp.CallToolResult{Content: []sdkmcp.Content{
		&sdkmcp.TextContent{Text: "Navigated to https://example.com"},
		&sdkmcp.TextContent{Text: "Page title: Example Domain"},
	}}}
	b := NewBrowser(session, nil)
	res, err := b.Execute(context.Background(), agentic.ToolCall{
		ID:    "call-1",
		Name:  "browser_navigate",
		Input: json.RawMessage(`{"url":"https://example.com"}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID != "call-1" || res.Error != nil {
		t.Fatalf("unexpected result: %#v", res)
	}
	if got := res.Text(); got != "Navigated to https://example.com\nPage title: Example Domain" {
		t.Fatalf("unexpected text %q", got)
	}
	args, ok := session.calls[0].Arguments.(map[string]any)
	if !ok || args["url"] != "https://example.com" {
		t.Fatalf("unexpected arguments: %#v", session.calls[0].Arguments)
	}

	if err := b.Close(); err != nil || !session.closed {
		t.Fatalf("expected session to close")
	}
}

func TestBrowserExecuteToolError(t *testing.T) {
	session := &fakeSession{result: &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: "element ref e9 not found"}},
	}}
	res, err := NewBrowser(session, nil).Execute(context.Background(), agentic.ToolCall{ID: "c", Name: "browser_click"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Error == nil || res.Error.Message != "element ref e9 not found" {
		t.Fatalf("expected tool error, got %#v", res)
	}
}

func TestBrowserExecuteFailures(t *testing.T) {
	b := NewBrowser(&fakeSession{}, nil)
	if _, err := b.Execute(context.Background(), agentic.ToolCall{Name: "browser_click", Input: json.RawMessage(`[1,2]`)}); !errors.Is(err, agentic.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	boom := errors.New("connection reset")
	b = NewBrowser(&fakeSession{err: boom}, nil)
	if _, err := b.Execute(context.Background(), agentic.ToolCall{Name: "browser_click"}); !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestConnectWithoutTransport(t *testing.T) {
	if _, err := Connect(context.Background(), Options{}); !errors.Is(err, ErrNoTransport) {
		t.Fatalf("expected ErrNoTransport, got %v", err)
	}
}
