// Package verdict provides the tool the model calls to finish a test with PASS or FAIL.
package verdict

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/victorarias/qaweave/agentic"
)

// ToolName is the name the model uses to report the outcome.
const ToolName = "report_verdict"

// Status is the outcome of a test run.
type Status string

const (
	Pass Status = "PASS"
	Fail Status = "FAIL"
)

// Verdict is the reported outcome.
type Verdict struct {
	Status Status `json:"status"`
	Reason string `json:"reason"`
}

// Passed reports whether the test passed.
func (v Verdict) Passed() bool { return v.Status == Pass }

var inputSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "status": {"type": "string", "enum": ["PASS", "FAIL"], "description": "Outcome of the test."},
    "reason": {"type": "string", "description": "Evidence for the outcome."}
  },
  "required": ["status", "reason"]
}`)

// Tool records the verdict. The last accepted report wins.
type Tool struct {
	mu      sync.Mutex
	verdict *Verdict
}

// New creates a Tool with no verdict recorded.
func New() *Tool {
	return &Tool{}
}

func (t *Tool) Definition() agentic.ToolDefinition {
	return agentic.ToolDefinition{
		Name:        ToolName,
		Description: "Report the final test outcome once the instructions have been checked. Call it exactly once, at the end.",
		InputSchema: inputSchema,
	}
}

// Execute validates and stores the report. Malformed reports come back as tool errors so the
// model can correct them.
func (t *Tool) Execute(ctx context.Context, call agentic.ToolCall) (agentic.ToolResult, error) {
	v, err := parse(call.Input)
	if err != nil {
		return agentic.ToolResult{Error: &agentic.ToolError{Message: err.Error(), Code: "invalid_verdict"}}, nil
	}
	t.mu.Lock()
	t.verdict = &v
	t.mu.Unlock()

	out, err := json.Marshal(fmt.Sprintf("verdict recorded: %s", v.Status))
	if err != nil {
		return agentic.ToolResult{}, err
	}
	return agentic.ToolResult{Output: out}, nil
}

// Verdict returns the recorded verdict, if any.
func (t *Tool) Verdict() (Verdict, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.verdict == nil {
		return Verdict{}, false
	}
	return *t.verdict, true
}

func parse(input json.RawMessage) (Verdict, error) {
	if !gjson.ValidBytes(input) {
		return Verdict{}, fmt.Errorf("input must be a JSON object with status and reason")
	}
	res := gjson.ParseBytes(input)
	status := Status(strings.ToUpper(strings.TrimSpace(res.Get("status").String())))
	if status != Pass && status != Fail {
		return Verdict{}, fmt.Errorf("status must be PASS or FAIL, got %q", res.Get("status").String())
	}
	reason := strings.TrimSpace(res.Get("reason").String())
	if reason == "" {
		return Verdict{}, fmt.Errorf("reason is required")
	}
	return Verdict{Status: status, Reason: reason}, nil
}
