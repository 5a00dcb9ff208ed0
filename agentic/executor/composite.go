package executor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/victorarias/qaweave/agentic"
)

// Composite routes tool calls across multiple executors, such as the browser backend and the
// local tool registry. When two executors expose the same tool name the earlier one wins.
type Composite struct {
	executors []agentic.ToolExecutor
	logger    logrus.FieldLogger

	mu     sync.Mutex
	routes map[string]agentic.ToolExecutor
}

// NewComposite creates a Composite that asks executors in order.
func NewComposite(executors ...agentic.ToolExecutor) *Composite {
	return &Composite{executors: executors}
}

// WithLogger sets the logger used to report shadowed tools.
func (c *Composite) WithLogger(logger logrus.FieldLogger) *Composite {
	c.logger = logger
	return c
}

// ListTools returns the union of every executor's tools, sorted by name, and remembers which
// executor owns each name.
func (c *Composite) ListTools(ctx context.Context) ([]agentic.ToolDefinition, error) {
	seen := make(map[string]agentic.ToolDefinition)
	routes := make(map[string]agentic.ToolExecutor)
	for _, exec := range c.executors {
		defs, err := exec.ListTools(ctx)
		if err != nil {
			return nil, fmt.Errorf("executor: list tools: %w", err)
		}
		for _, def := range defs {
			if _, ok := seen[def.Name]; ok {
				if c.logger != nil {
					c.logger.WithField("tool", def.Name).Warn("tool shadowed by an earlier executor")
				}
				continue
			}
			seen[def.Name] = def
			routes[def.Name] = exec
		}
	}
	c.mu.Lock()
	c.routes = routes
	c.mu.Unlock()

	list := make([]agentic.ToolDefinition, 0, len(seen))
	for _, def := range seen {
		list = append(list, def)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list, nil
}

// Execute sends call to the executor owning the tool. Before ListTools has been called, every
// executor is tried in order until one does not answer with ErrToolNotFound.
func (c *Composite) Execute(ctx context.Context, call agentic.ToolCall) (agentic.ToolResult, error) {
	c.mu.Lock()
	exec, ok := c.routes[call.Name]
	c.mu.Unlock()
	if ok {
		return exec.Execute(ctx, call)
	}

	for _, exec := range c.executors {
		result, err := exec.Execute(ctx, call)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, agentic.ErrToolNotFound) {
			continue
		}
		return result, err
	}
	return agentic.ToolResult{}, fmt.Errorf("%w: %s", agentic.ErrToolNotFound, call.Name)
}
