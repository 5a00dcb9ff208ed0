// Package mcp connects the agent to a browser-automation server over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/victorarias/qaweave/agentic"
)

// ErrNoTransport is returned when neither a command nor an endpoint is configured.
var ErrNoTransport = errors.New("mcp: no browser command or endpoint configured")

// Session is the part of an MCP client session the browser uses.
// *sdkmcp.ClientSession implements it.
type Session interface {
	ListTools(ctx context.Context, params *sdkmcp.ListToolsParams) (*sdkmcp.ListToolsResult, error)
	CallTool(ctx context.Context, params *sdkmcp.CallToolParams) (*sdkmcp.CallToolResult, error)
	Close() error
}

// Options configures how the browser server is reached.
type Options struct {
	// URL is a streamable HTTP endpoint of a running server.
	URL string
	// Command spawns the server and speaks MCP over its stdio, e.g. ["npx", "@playwright/mcp@latest"].
	// Used when URL is empty.
	Command []string
	// ClientName and ClientVersion identify this client to the server.
	ClientName    string
	ClientVersion string
	Logger        logrus.FieldLogger
}

// Browser executes browser tools on an MCP session.
type Browser struct {
	session Session
	logger  logrus.FieldLogger
}

// NewBrowser wraps an established session.
func NewBrowser(session Session, logger logrus.FieldLogger) *Browser {
	if logger == nil {
		logger = discardLogger()
	}
	return &Browser{session: session, logger: logger}
}

// Connect starts or dials the browser server and completes the MCP handshake.
func Connect(ctx context.Context, opts Options) (*Browser, error) {
	var transport sdkmcp.Transport
	switch {
	case opts.URL != "":
		transport = &sdkmcp.StreamableClientTransport{Endpoint: opts.URL}
	case len(opts.Command) > 0:
		transport = &sdkmcp.CommandTransport{Command: exec.Command(opts.Command[0], opts.Command[1:]...)}
	default:
		return nil, ErrNoTransport
	}

	name := opts.ClientName
	if name == "" {
		name = "qaweave"
	}
	version := opts.ClientVersion
	if version == "" {
		version = "dev"
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: name, Version: version}, nil)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp: connect: %w", err)
	}
	return NewBrowser(session, opts.Logger), nil
}

// ListTools returns every tool the server offers, following pagination.
func (b *Browser) ListTools(ctx context.Context) ([]agentic.ToolDefinition, error) {
	var defs []agentic.ToolDefinition
	params := &sdkmcp.ListToolsParams{}
	for {
		res, err := b.session.ListTools(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("mcp: list tools: %w", err)
		}
		for _, tool := range res.Tools {
			def, err := toDefinition(tool)
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
		}
		if res.NextCursor == "" {
			break
		}
		params = &sdkmcp.ListToolsParams{Cursor: res.NextCursor}
	}
	b.logger.WithField("tools", len(defs)).Debug("browser tools listed")
	return defs, nil
}

func toDefinition(tool *sdkmcp.Tool) (agentic.ToolDefinition, error) {
	def := agentic.ToolDefinition{Name: tool.Name, Description: tool.Description}
	if tool.InputSchema != nil {
		schema, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return agentic.ToolDefinition{}, fmt.Errorf("mcp: schema for %s: %w", tool.Name, err)
		}
		def.InputSchema = schema
	}
	return def, nil
}

// Execute calls the tool on the server. A result flagged as an error by the server becomes a
// ToolResult with Error set; only transport failures are returned as errors.
func (b *Browser) Execute(ctx context.Context, call agentic.ToolCall) (agentic.ToolResult, error) {
	args := map[string]any{}
	if len(call.Input) > 0 && string(call.Input) != "null" {
		if err := json.Unmarshal(call.Input, &args); err != nil {
			return agentic.ToolResult{}, fmt.Errorf("%w: %s: %v", agentic.ErrInvalidInput, call.Name, err)
		}
	}

	log := b.logger.WithFields(logrus.Fields{"tool": call.Name, "call_id": call.ID})
	log.Debug("calling browser tool")
	res, err := b.session.CallTool(ctx, &sdkmcp.CallToolParams{Name: call.Name, Arguments: args})
	if err != nil {
		return agentic.ToolResult{}, fmt.Errorf("mcp: call %s: %w", call.Name, err)
	}

	text := flatten(res.Content)
	result := agentic.ToolResult{ID: call.ID, Name: call.Name}
	if res.IsError {
		log.WithField("error", text).Debug("browser tool failed")
		result.Error = &agentic.ToolError{Message: text}
		return result, nil
	}
	output, err := json.Marshal(text)
	if err != nil {
		return agentic.ToolResult{}, err
	}
	result.Output = output
	return result, nil
}

// Close ends the session and stops a spawned server.
func (b *Browser) Close() error {
	return b.session.Close()
}

// flatten joins text content; other content kinds are summarized by type.
func flatten(content []sdkmcp.Content) string {
	parts := make([]string, 0, len(content))
	for _, c := range content {
		switch c := c.(type) {
		case *sdkmcp.TextContent:
			parts = append(parts, c.Text)
		case *sdkmcp.ImageContent:
			parts = append(parts, fmt.Sprintf("[image %s, %d bytes]", c.MIMEType, len(c.Data)))
		default:
			parts = append(parts, fmt.Sprintf("[%T content]", c))
		}
	}
	return strings.Join(parts, "\n")
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
