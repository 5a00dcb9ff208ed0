package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	agentctx "github.com/victorarias/qaweave/agentic/context"
	"github.com/victorarias/qaweave/cmd/qaweave/config"
)

const usageHeader = `usage: qaweave run --instructions FILE [flags]
       qaweave strategies

flags for run:
`

var errUsage = errors.New("a command is required")

type cliOptions struct {
	Command        string
	Instructions   string
	ConfigPath     string
	EnvFile        string
	Strategy       string
	WindowSize     int
	PreserveFirst  int
	PreserveLast   int
	MaxTurns       int
	BrowserCommand string
	BrowserURL     string
	Verbose        bool

	changed map[string]bool
}

func newRunFlags(opts *cliOptions) *pflag.FlagSet {
	fs := pflag.NewFlagSet("qaweave run", pflag.ContinueOnError)
	fs.StringVarP(&opts.Instructions, "instructions", "i", "", "Markdown file with the test instructions.")
	fs.StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file.")
	fs.StringVar(&opts.EnvFile, "env-file", ".env", "Environment file loaded before reading the environment.")
	fs.StringVar(&opts.Strategy, "strategy", "", "Context strategy: "+strategyList()+".")
	fs.IntVar(&opts.WindowSize, "window-size", 0, "Token budget per model call; 0 disables trimming.")
	fs.IntVar(&opts.PreserveFirst, "preserve-first", 0, "Earliest human/system messages always kept.")
	fs.IntVar(&opts.PreserveLast, "preserve-last", 0, "Most recent messages always kept.")
	fs.IntVar(&opts.MaxTurns, "max-turns", 0, "Maximum model calls per run.")
	fs.StringVar(&opts.BrowserCommand, "browser-command", "", "Command that starts the MCP browser server on stdio.")
	fs.StringVar(&opts.BrowserURL, "browser-url", "", "Streamable HTTP endpoint of a running MCP browser server.")
	fs.BoolVarP(&opts.Verbose, "verbose", "v", false, "Log trimming reports and debug output.")
	return fs
}

func usageText() string {
	var out bytes.Buffer
	out.WriteString(usageHeader)
	out.WriteString(newRunFlags(&cliOptions{}).FlagUsages())
	return out.String()
}

func strategyList() string {
	names := make([]string, 0, 4)
	for _, s := range agentctx.Strategies() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func parseCLIArgs(args []string) (cliOptions, error) {
	if len(args) == 0 {
		return cliOptions{}, errUsage
	}
	opts := cliOptions{Command: args[0]}
	switch args[0] {
	case "strategies":
		return opts, nil
	case "help", "-h", "--help":
		return cliOptions{}, pflag.ErrHelp
	case "run":
	default:
		return cliOptions{}, fmt.Errorf("unknown command %q", args[0])
	}

	fs := newRunFlags(&opts)
	var out bytes.Buffer
	fs.SetOutput(&out)
	if err := fs.Parse(args[1:]); err != nil {
		return cliOptions{}, err
	}
	if opts.Instructions == "" && fs.NArg() == 1 {
		opts.Instructions = fs.Arg(0)
	}
	if strings.TrimSpace(opts.Instructions) == "" {
		return cliOptions{}, errors.New("run requires --instructions")
	}
	opts.changed = make(map[string]bool)
	fs.Visit(func(f *pflag.Flag) {
		opts.changed[f.Name] = true
	})
	return opts, nil
}

// apply overrides cfg with the flags given on the command line.
func (o cliOptions) apply(cfg *config.Config) {
	if o.changed["strategy"] {
		cfg.Context.Strategy = o.Strategy
	}
	if o.changed["window-size"] {
		cfg.Context.WindowSize = o.WindowSize
	}
	if o.changed["preserve-first"] {
		cfg.Context.PreserveFirst = o.PreserveFirst
	}
	if o.changed["preserve-last"] {
		cfg.Context.PreserveLast = o.PreserveLast
	}
	if o.changed["max-turns"] {
		cfg.MaxTurns = o.MaxTurns
	}
	if o.changed["browser-command"] {
		cfg.Browser.Command = strings.Fields(o.BrowserCommand)
		cfg.Browser.URL = ""
	}
	if o.changed["browser-url"] {
		cfg.Browser.URL = o.BrowserURL
	}
	if o.Verbose {
		cfg.Verbose = true
	}
}
