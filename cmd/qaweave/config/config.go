package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	agentctx "github.com/victorarias/qaweave/agentic/context"
	"gopkg.in/yaml.v3"
)

// Providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderVertex    = "vertex"
)

const defaultSystemPrompt = `You are qaweave, a QA engineer testing a web application through browser tools.
Follow the test instructions step by step, verify every expectation against what the page actually shows,
and finish by calling report_verdict exactly once with PASS or FAIL and the evidence.`

// Config controls the qaweave CLI runtime.
type Config struct {
	Provider          string   `yaml:"provider"`
	Model             string   `yaml:"model"`
	APIKey            string   `yaml:"-"`
	VertexProject     string   `yaml:"vertex_project"`
	VertexLocation    string   `yaml:"vertex_location"`
	MaxTokens         int      `yaml:"max_tokens"`
	Temperature       *float64 `yaml:"temperature"`
	SystemPrompt      string   `yaml:"system_prompt"`
	MaxTurns          int      `yaml:"max_turns"`
	RunTimeoutSeconds int      `yaml:"run_timeout_seconds"`
	LogLevel          string   `yaml:"log_level"`
	Verbose           bool     `yaml:"verbose"`
	Context           Context  `yaml:"context"`
	Browser           Browser  `yaml:"browser"`
}

// Context mirrors the trimming settings.
type Context struct {
	Strategy      string `yaml:"strategy"`
	WindowSize    int    `yaml:"window_size"`
	PreserveFirst int    `yaml:"preserve_first"`
	PreserveLast  int    `yaml:"preserve_last"`
}

// Browser selects the MCP browser server. URL, when set, wins over Command.
type Browser struct {
	Command []string `yaml:"command"`
	URL     string   `yaml:"url"`
	// Allow limits the browser tools exposed to the model; empty exposes all.
	Allow []string `yaml:"allow"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider:          ProviderAnthropic,
		VertexLocation:    "us-east5",
		SystemPrompt:      defaultSystemPrompt,
		MaxTurns:          30,
		RunTimeoutSeconds: 600,
		LogLevel:          "info",
		Context: Context{
			Strategy:      string(agentctx.StrategySlidingWindow),
			WindowSize:    agentctx.DefaultWindowSizeTokens,
			PreserveFirst: agentctx.DefaultPreserveFirst,
			PreserveLast:  agentctx.DefaultPreserveLast,
		},
		Browser: Browser{
			Command: []string{"npx", "@playwright/mcp@latest", "--headless"},
		},
	}
}

// LoadDotEnv loads variables from path into the environment without overriding existing ones.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	return nil
}

// Load layers the defaults, the YAML file at path (when set) and the environment.
// Call Validate once command-line overrides have been applied.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.readEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	return nil
}

func (c *Config) readEnv() error {
	setString(&c.APIKey, "ANTHROPIC_API_KEY")
	setString(&c.Model, "ANTHROPIC_MODEL")
	setString(&c.Provider, "QAWEAVE_PROVIDER")
	setString(&c.VertexProject, "VERTEX_PROJECT")
	setString(&c.VertexLocation, "VERTEX_LOCATION")
	setString(&c.SystemPrompt, "QAWEAVE_SYSTEM_PROMPT")
	setString(&c.LogLevel, "QAWEAVE_LOG_LEVEL")
	setString(&c.Context.Strategy, "QAWEAVE_STRATEGY")
	setString(&c.Browser.URL, "QAWEAVE_BROWSER_URL")
	if cmd := trimmedEnv("QAWEAVE_BROWSER_COMMAND"); cmd != "" {
		c.Browser.Command = strings.Fields(cmd)
	}
	if allow := trimmedEnv("QAWEAVE_BROWSER_ALLOW"); allow != "" {
		c.Browser.Allow = splitList(allow)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"ANTHROPIC_MAX_TOKENS", &c.MaxTokens},
		{"QAWEAVE_MAX_TURNS", &c.MaxTurns},
		{"QAWEAVE_RUN_TIMEOUT_SECONDS", &c.RunTimeoutSeconds},
		{"QAWEAVE_WINDOW_SIZE", &c.Context.WindowSize},
		{"QAWEAVE_PRESERVE_FIRST", &c.Context.PreserveFirst},
		{"QAWEAVE_PRESERVE_LAST", &c.Context.PreserveLast},
	}
	for _, v := range ints {
		if err := intEnvStrict(v.key, v.dst); err != nil {
			return err
		}
	}
	if err := boolEnvStrict("QAWEAVE_VERBOSE", &c.Verbose); err != nil {
		return err
	}
	if temp := trimmedEnv("ANTHROPIC_TEMPERATURE"); temp != "" {
		parsed, err := strconv.ParseFloat(temp, 64)
		if err != nil {
			return fmt.Errorf("config: invalid ANTHROPIC_TEMPERATURE: %w", err)
		}
		c.Temperature = &parsed
	}
	return nil
}

// Validate checks the final configuration.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic:
		if c.APIKey == "" {
			return errors.New("config: ANTHROPIC_API_KEY is required")
		}
	case ProviderVertex:
		if c.VertexProject == "" {
			return errors.New("config: VERTEX_PROJECT is required for the vertex provider")
		}
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	if c.Model == "" {
		return errors.New("config: model is required (ANTHROPIC_MODEL)")
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 1) {
		return errors.New("config: temperature must be between 0 and 1")
	}
	if c.MaxTokens < 0 {
		return errors.New("config: max tokens must be zero or greater")
	}
	if c.MaxTurns <= 0 {
		return errors.New("config: max turns must be greater than 0")
	}
	if c.RunTimeoutSeconds <= 0 {
		return errors.New("config: run timeout must be greater than 0")
	}
	if len(c.Browser.Command) == 0 && c.Browser.URL == "" {
		return errors.New("config: a browser command or URL is required")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.ContextConfig(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ContextConfig converts the trimming settings.
func (c Config) ContextConfig() (agentctx.Config, error) {
	return agentctx.NewConfig(c.Context.Strategy, c.Context.WindowSize, c.Context.PreserveFirst, c.Context.PreserveLast)
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if v := trimmedEnv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intEnvStrict(key string, dst *int) error {
	value := trimmedEnv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("config: invalid %s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func boolEnvStrict(key string, dst *bool) error {
	value := strings.ToLower(trimmedEnv(key))
	if value == "" {
		return nil
	}
	switch value {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off":
		*dst = false
	default:
		return fmt.Errorf("config: invalid %s: expected true/false", key)
	}
	return nil
}
