package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/victorarias/qaweave/agentic"
	agentctx "github.com/victorarias/qaweave/agentic/context"
	"github.com/victorarias/qaweave/agentic/events"
	"github.com/victorarias/qaweave/agentic/executor"
	"github.com/victorarias/qaweave/agentic/loop"
	"github.com/victorarias/qaweave/agentic/mcp"
	"github.com/victorarias/qaweave/agentic/verdict"
	"github.com/victorarias/qaweave/cmd/qaweave/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseCLIArgs(args)
	switch {
	case errors.Is(err, pflag.ErrHelp):
		fmt.Fprint(stdout, usageText())
		return exitPass
	case err != nil:
		fmt.Fprintf(stderr, "qaweave: %v\n\n%s", err, usageText())
		return exitError
	}

	if opts.Command == "strategies" {
		for _, s := range agentctx.Strategies() {
			fmt.Fprintln(stdout, s)
		}
		return exitPass
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintln(stderr, "qaweave:", err)
		return exitError
	}
	logger := newLogger(cfg, stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.RunTimeoutSeconds)*time.Second)
	defer cancel()

	code, err := execute(ctx, cfg, opts.Instructions, logger, stdout)
	if err != nil {
		logger.WithError(err).Error("run failed")
		return exitError
	}
	return code
}

func loadConfig(opts cliOptions) (config.Config, error) {
	if err := config.LoadDotEnv(opts.EnvFile); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if cfg.Verbose && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)
	return logger
}

func execute(ctx context.Context, cfg config.Config, instructionsPath string, logger logrus.FieldLogger, stdout io.Writer) (int, error) {
	data, err := os.ReadFile(instructionsPath)
	if err != nil {
		return exitError, fmt.Errorf("instructions: %w", err)
	}
	instructions := strings.TrimSpace(string(data))

	ctxCfg, err := cfg.ContextConfig()
	if err != nil {
		return exitError, err
	}
	decider, err := newDecider(ctx, cfg)
	if err != nil {
		return exitError, err
	}

	browser, err := mcp.Connect(ctx, mcp.Options{
		URL:     cfg.Browser.URL,
		Command: cfg.Browser.Command,
		Logger:  logger,
	})
	if err != nil {
		return exitError, err
	}
	defer func() {
		if err := browser.Close(); err != nil {
			logger.WithError(err).Warn("closing browser session")
		}
	}()

	verdictTool := verdict.New()
	local := agentic.NewRegistry()
	if err := local.Register(verdictTool); err != nil {
		return exitError, err
	}
	tools := executor.NewComposite(mcp.NewRegistry(browser, cfg.Browser.Allow), local).WithLogger(logger)

	runner := loop.New(loop.Config{
		Decider:       decider,
		Executor:      tools,
		Context:       agentctx.Manager{Logger: logger, Verbose: cfg.Verbose},
		ContextConfig: ctxCfg,
		Events:        progressSink(logger),
		MaxTurns:      cfg.MaxTurns,
		Logger:        logger,
	})
	result, err := runner.Run(ctx, loop.Request{SystemPrompt: cfg.SystemPrompt, Instructions: instructions})
	if err != nil {
		return exitError, err
	}

	v, reported := verdictTool.Verdict()
	return writeReport(stdout, result, v, reported), nil
}

// progressSink logs tool activity at debug level.
func progressSink(logger logrus.FieldLogger) events.Sink {
	return events.SinkFunc(func(e events.Event) {
		switch e.Type {
		case events.ToolStart:
			logger.WithFields(logrus.Fields{"turn": e.Turn, "tool": e.ToolCall.Name}).Debug("tool call")
		case events.ToolEnd:
			entry := logger.WithFields(logrus.Fields{"turn": e.Turn, "tool": e.ToolResult.Name})
			if e.ToolResult.Error != nil {
				entry.WithField("error", e.ToolResult.Error.Message).Debug("tool failed")
				return
			}
			entry.Debug("tool done")
		}
	})
}
