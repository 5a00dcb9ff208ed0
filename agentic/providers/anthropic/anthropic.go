package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/victorarias/qaweave/agentic"
	"github.com/victorarias/qaweave/agentic/message"
	"github.com/victorarias/qaweave/agentic/usage"
)

// Input represents a single decision request to Anthropic Claude.
type Input struct {
	// Messages is the conversation to send, in chronological order. System messages become
	// the system prompt.
	Messages    []message.Message
	Tools       []agentic.ToolDefinition
	MaxTokens   int
	Temperature *float64
}

// Decision is the output from a single model call.
type Decision struct {
	Reply      string
	ToolCalls  []agentic.ToolCall
	StopReason usage.StopReason
	Usage      *usage.Usage
}

// Config controls an Anthropic client.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature *float64
	HTTPClient  *http.Client
}

// Client calls the Anthropic Messages API.
type Client struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature *float64
}

// New constructs an Anthropic client from config.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("anthropic: model is required")
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		client:      anthropic.NewClient(opts...),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// NewFromEnv builds an Anthropic client from environment variables.
func NewFromEnv() (*Client, error) {
	apiKey := envTrimmed("ANTHROPIC_API_KEY")
	model := envTrimmed("ANTHROPIC_MODEL")
	if apiKey == "" || model == "" {
		return nil, errors.New("anthropic: ANTHROPIC_API_KEY and ANTHROPIC_MODEL are required")
	}
	maxTokens, temperature := envLimits("ANTHROPIC")
	return New(Config{
		APIKey:      apiKey,
		Model:       model,
		BaseURL:     envTrimmed("ANTHROPIC_BASE_URL"),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
}

// Decide calls the Anthropic Messages API.
func (c *Client) Decide(ctx context.Context, input Input) (Decision, error) {
	system, messages := toParams(input.Messages)
	if len(messages) == 0 {
		return Decision{}, errors.New("anthropic: no conversation messages to send")
	}

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages:  messages,
		System:    system,
	}
	if len(input.Tools) > 0 {
		req.Tools = toolDefsToAnthropic(input.Tools)
	}
	if input.MaxTokens > 0 {
		req.MaxTokens = int64(input.MaxTokens)
	}
	temperature := input.Temperature
	if temperature == nil {
		temperature = c.temperature
	}
	if temperature != nil {
		req.Temperature = anthropic.Float(*temperature)
	}

	msg, err := c.client.Messages.New(ctx, req)
	if err != nil {
		return Decision{}, fmt.Errorf("anthropic: %w", err)
	}

	reply, calls := parseResponse(msg)
	u := usage.Normalize(usage.Usage{
		Input:  int(msg.Usage.InputTokens),
		Output: int(msg.Usage.OutputTokens),
	})
	return Decision{
		Reply:      reply,
		ToolCalls:  calls,
		StopReason: normalizeStopReason(msg.StopReason),
		Usage:      &u,
	}, nil
}

const earlierContextOmitted = "(earlier conversation omitted)"

// toParams converts the conversation. Consecutive messages that map to the same API role are
// merged, so a run of tool messages becomes one user message of tool_result blocks.
func toParams(history []message.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam
	add := func(role anthropic.MessageParamRole, blocks ...anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(messages); n > 0 && messages[n-1].Role == role {
			messages[n-1].Content = append(messages[n-1].Content, blocks...)
			return
		}
		if role == anthropic.MessageParamRoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		} else {
			messages = append(messages, anthropic.NewUserMessage(blocks...))
		}
	}

	for _, msg := range history {
		switch msg.Role {
		case message.RoleSystem:
			if strings.TrimSpace(msg.Content) != "" {
				system = append(system, anthropic.TextBlockParam{Text: msg.Content})
			}

		case message.RoleHuman:
			if strings.TrimSpace(msg.Content) != "" {
				add(anthropic.MessageParamRoleUser, anthropic.NewTextBlock(msg.Content))
			}

		case message.RoleAssistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, 1+len(msg.ToolCalls))
			if strings.TrimSpace(msg.Content) != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, decodeArgs(call.Input), call.Name))
			}
			add(anthropic.MessageParamRoleAssistant, blocks...)

		case message.RoleTool:
			content := msg.Content
			if content == "" {
				content = "(no output)"
			}
			add(anthropic.MessageParamRoleUser, anthropic.NewToolResultBlock(msg.ToolCallID, content, msg.IsToolError()))
		}
	}
	// A trimmed context can open on an assistant turn; the API requires a user turn first.
	if len(messages) > 0 && messages[0].Role == anthropic.MessageParamRoleAssistant {
		lead := anthropic.NewUserMessage(anthropic.NewTextBlock(earlierContextOmitted))
		messages = append([]anthropic.MessageParam{lead}, messages...)
	}
	return system, messages
}

func parseResponse(msg *anthropic.Message) (string, []agentic.ToolCall) {
	var reply strings.Builder
	calls := make([]agentic.ToolCall, 0)
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			reply.WriteString(variant.Text)
		case anthropic.ToolUseBlock:
			calls = append(calls, agentic.ToolCall{
				ID:    variant.ID,
				Name:  variant.Name,
				Input: variant.Input,
			})
		}
	}
	return strings.TrimSpace(reply.String()), calls
}

func normalizeStopReason(reason anthropic.StopReason) usage.StopReason {
	switch string(reason) {
	case "tool_use":
		return usage.StopReasonTool
	case "max_tokens":
		return usage.StopReasonMaxTokens
	case "refusal":
		return usage.StopReasonError
	default:
		return usage.StopReasonStop
	}
}

func toolDefsToAnthropic(tools []agentic.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		param := anthropic.ToolParam{
			Name:        tool.Name,
			InputSchema: schemaFromRaw(tool.InputSchema),
		}
		if desc := strings.TrimSpace(tool.Description); desc != "" {
			param.Description = anthropic.String(desc)
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &param})
	}
	return out
}

func schemaFromRaw(raw json.RawMessage) anthropic.ToolInputSchemaParam {
	schema := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &schema)
	}

	extras := map[string]any{}
	for key, value := range schema {
		switch key {
		case "properties", "required", "type":
			continue
		default:
			extras[key] = value
		}
	}

	param := anthropic.ToolInputSchemaParam{
		Properties: schema["properties"],
		Required:   requiredFields(schema["required"]),
	}
	if len(extras) > 0 {
		param.ExtraFields = extras
	}
	return param
}

func requiredFields(value any) []string {
	switch items := value.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func decodeArgs(input json.RawMessage) any {
	if len(input) == 0 {
		return map[string]any{}
	}
	var payload any
	if err := json.Unmarshal(input, &payload); err != nil {
		return map[string]any{}
	}
	return payload
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// envLimits reads <prefix>_MAX_TOKENS and <prefix>_TEMPERATURE, ignoring malformed values.
func envLimits(prefix string) (int, *float64) {
	maxTokens := 0
	if v := envTrimmed(prefix + "_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxTokens = n
		}
	}
	var temperature *float64
	if v := envTrimmed(prefix + "_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			temperature = &f
		}
	}
	return maxTokens, temperature
}
