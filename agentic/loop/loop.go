package loop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/victorarias/qaweave/agentic"
	agentctx "github.com/victorarias/qaweave/agentic/context"
	"github.com/victorarias/qaweave/agentic/events"
	"github.com/victorarias/qaweave/agentic/history"
	"github.com/victorarias/qaweave/agentic/message"
	"github.com/victorarias/qaweave/agentic/usage"
)

// DefaultMaxTurns bounds a run when Config.MaxTurns is not set.
const DefaultMaxTurns = 30

// ErrNoInstructions is returned when a run has nothing to work on.
var ErrNoInstructions = errors.New("loop: instructions are required")

// Decider chooses between replying or calling tools.
type Decider interface {
	Decide(ctx context.Context, in Input) (Decision, error)
}

// Input captures state for a single decision step.
type Input struct {
	// Messages is the trimmed conversation, in chronological order.
	Messages []message.Message
	Tools    []agentic.ToolDefinition
	Turn     int
}

// Decision is the result of a decision step.
type Decision struct {
	Reply      string
	ToolCalls  []agentic.ToolCall
	Usage      *usage.Usage
	StopReason usage.StopReason
}

// Config controls the loop behavior.
type Config struct {
	Decider  Decider
	Executor agentic.ToolExecutor
	// History defaults to a fresh in-memory store per Runner.
	History history.Store
	// Context trims the history before every decision with ContextConfig.
	Context       agentctx.Manager
	ContextConfig agentctx.Config
	Events        events.Sink
	MaxTurns      int
	Logger        logrus.FieldLogger
}

// Request provides the run input.
type Request struct {
	SystemPrompt string
	Instructions string
}

// Result captures the final output.
type Result struct {
	RunID      string
	Reply      string
	History    []message.Message
	Trims      []agentctx.TrimResult
	Usage      usage.Usage
	StopReason usage.StopReason
	Turns      int
}

// Runner executes a tool-aware loop with per-call context trimming.
type Runner struct {
	cfg Config
}

// New creates a new Runner.
func New(cfg Config) *Runner {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.History == nil {
		cfg.History = history.NewMemoryStore()
	}
	if cfg.Logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		cfg.Logger = logger
	}
	return &Runner{cfg: cfg}
}

// Run executes the loop until the model stops calling tools or the turn limit is reached.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	if r.cfg.Decider == nil {
		return Result{}, errors.New("loop: decider is required")
	}

	res := Result{RunID: uuid.NewString()}
	log := r.cfg.Logger.WithField("run_id", res.RunID)
	emit := func(e events.Event) {
		if r.cfg.Events != nil {
			e.RunID = res.RunID
			r.cfg.Events.Emit(e)
		}
	}

	if err := r.seed(ctx, req); err != nil {
		return res, err
	}
	tools, err := r.listTools(ctx)
	if err != nil {
		return res, err
	}

	emit(events.Event{Type: events.AgentStart})
	defer emit(events.Event{Type: events.AgentEnd})
	log.WithFields(logrus.Fields{
		"tools":     len(tools),
		"strategy":  string(r.cfg.ContextConfig.Strategy),
		"max_turns": r.cfg.MaxTurns,
	}).Info("run started")

	for turn := 0; ; turn++ {
		if err := ctx.Err(); err != nil {
			return r.finish(ctx, res), err
		}
		if turn >= r.cfg.MaxTurns {
			res.StopReason = usage.StopReasonTurnLimit
			log.WithField("turns", turn).Warn("turn limit reached")
			break
		}
		emit(events.Event{Type: events.TurnStart, Turn: turn})

		trimmed, report, err := r.trim(ctx, log)
		if err != nil {
			return r.finish(ctx, res), err
		}
		res.Trims = append(res.Trims, report)
		emit(events.Event{Type: events.ContextTrimmed, Turn: turn, Trim: &report})

		decision, err := r.cfg.Decider.Decide(ctx, Input{Messages: trimmed, Tools: tools, Turn: turn})
		if err != nil {
			return r.finish(ctx, res), fmt.Errorf("loop: decide: %w", err)
		}
		res.Turns++
		if decision.Usage != nil {
			res.Usage = res.Usage.Add(*decision.Usage)
		}
		res.Reply = strings.TrimSpace(decision.Reply)

		calls := make([]agentic.ToolCall, len(decision.ToolCalls))
		for i, call := range decision.ToolCalls {
			if call.ID == "" {
				call.ID = fmt.Sprintf("call-%d-%d", turn, i)
			}
			calls[i] = call
		}
		if _, err := r.cfg.History.Append(ctx, message.Assistant(res.Reply, calls...)); err != nil {
			return r.finish(ctx, res), err
		}
		emit(events.Event{Type: events.MessageEnd, Turn: turn, Role: string(message.RoleAssistant), Content: res.Reply})

		if len(calls) == 0 {
			res.StopReason = decision.StopReason
			if res.StopReason == "" {
				res.StopReason = usage.StopReasonStop
			}
			emit(events.Event{Type: events.TurnEnd, Turn: turn})
			break
		}
		if r.cfg.Executor == nil {
			return r.finish(ctx, res), errors.New("loop: tool calls requested but no executor configured")
		}
		for _, call := range calls {
			if err := r.execute(ctx, log, turn, call, emit); err != nil {
				return r.finish(ctx, res), err
			}
		}
		emit(events.Event{Type: events.TurnEnd, Turn: turn})
	}

	res = r.finish(ctx, res)
	log.WithFields(logrus.Fields{
		"turns":        res.Turns,
		"stop_reason":  string(res.StopReason),
		"input_tokens": res.Usage.Input,
	}).Info("run finished")
	return res, nil
}

func (r *Runner) seed(ctx context.Context, req Request) error {
	existing, err := r.cfg.History.Load(ctx)
	if err != nil {
		return err
	}
	instructions := strings.TrimSpace(req.Instructions)
	if len(existing) == 0 {
		if instructions == "" {
			return ErrNoInstructions
		}
		if prompt := strings.TrimSpace(req.SystemPrompt); prompt != "" {
			if _, err := r.cfg.History.Append(ctx, message.System(prompt)); err != nil {
				return err
			}
		}
	}
	if err := r.closeInterrupted(ctx, existing); err != nil {
		return err
	}
	if instructions == "" {
		return nil
	}
	_, err = r.cfg.History.Append(ctx, message.Human(instructions))
	return err
}

func (r *Runner) listTools(ctx context.Context) ([]agentic.ToolDefinition, error) {
	if r.cfg.Executor == nil {
		return nil, nil
	}
	tools, err := r.cfg.Executor.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("loop: list tools: %w", err)
	}
	return tools, nil
}

// closeInterrupted answers calls of a resumed history that never got a result, so the
// next decision sees complete pairs.
func (r *Runner) closeInterrupted(ctx context.Context, existing []message.Message) error {
	answered := make(map[string]bool)
	for _, msg := range existing {
		if id := msg.AnsweredCallID(); id != "" {
			answered[id] = true
		}
	}
	for _, msg := range existing {
		for _, call := range msg.ToolCalls {
			if call.ID == "" || answered[call.ID] {
				continue
			}
			answered[call.ID] = true
			result := agentic.ToolResult{ID: call.ID, Name: call.Name, Error: &agentic.ToolError{
				Code:    "interrupted",
				Message: "tool call was interrupted before a result was recorded",
			}}
			if _, err := r.cfg.History.Append(ctx, message.FromToolResult(result)); err != nil {
				return err
			}
		}
	}
	return nil
}

// trim loads the history and selects what the next decision sees. Broken pairs left in the
// history are reported as warnings; trimming never stops a run.
func (r *Runner) trim(ctx context.Context, log logrus.FieldLogger) ([]message.Message, agentctx.TrimResult, error) {
	msgs, err := r.cfg.History.Load(ctx)
	if err != nil {
		return nil, agentctx.TrimResult{}, err
	}
	trimmed, report := r.cfg.Context.Trim(msgs, r.cfg.ContextConfig)
	for _, problem := range agentctx.Violations(trimmed) {
		log.WithField("strategy", string(report.Strategy)).Warn("malformed context: " + problem)
		report.Warnings = append(report.Warnings, problem)
	}
	return trimmed, report, nil
}

// execute runs one call and records its result. Tool failures become error tool messages.
func (r *Runner) execute(ctx context.Context, log logrus.FieldLogger, turn int, call agentic.ToolCall, emit func(events.Event)) error {
	emit(events.Event{Type: events.ToolStart, Turn: turn, ToolCall: &call})
	result, err := r.cfg.Executor.Execute(ctx, call)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.WithFields(logrus.Fields{"tool": call.Name, "call_id": call.ID}).WithError(err).Warn("tool execution failed")
		result = agentic.ToolResult{Error: &agentic.ToolError{Message: err.Error()}}
	}
	result.ID = call.ID
	if result.Name == "" {
		result.Name = call.Name
	}
	if _, err := r.cfg.History.Append(ctx, message.FromToolResult(result)); err != nil {
		return err
	}
	emit(events.Event{Type: events.ToolEnd, Turn: turn, ToolResult: &result})
	return nil
}

func (r *Runner) finish(ctx context.Context, res Result) Result {
	if msgs, err := r.cfg.History.Load(context.WithoutCancel(ctx)); err == nil {
		res.History = msgs
	}
	return res
}
