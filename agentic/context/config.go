package context

import (
	"errors"
	"fmt"
	"strings"
)

// StrategyName selects a trimming strategy.
type StrategyName string

// Supported strategies.
const (
	StrategyNoOp          StrategyName = "no-op"
	StrategySlidingWindow StrategyName = "sliding-window"
	StrategySmartTrim     StrategyName = "smart-trim"
	StrategyLibraryTrim   StrategyName = "library-trim"
)

// Defaults for Config.
const (
	DefaultWindowSizeTokens = 50000
	DefaultPreserveFirst    = 2
	DefaultPreserveLast     = 10
)

var (
	ErrInvalidConfig   = errors.New("invalid context config")
	ErrUnknownStrategy = errors.New("unknown context strategy")
)

// Strategies lists every supported strategy in display order.
func Strategies() []StrategyName {
	return []StrategyName{StrategyNoOp, StrategySlidingWindow, StrategySmartTrim, StrategyLibraryTrim}
}

// ParseStrategy resolves a strategy name. Underscores are accepted in place of dashes.
func ParseStrategy(name string) (StrategyName, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	if normalized == "" {
		return StrategySlidingWindow, nil
	}
	for _, s := range Strategies() {
		if string(s) == normalized {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Config controls a single trimming decision. It is passed by value and never mutated.
type Config struct {
	Strategy StrategyName
	// WindowSizeTokens is the token budget for kept messages. Zero disables trimming.
	WindowSizeTokens int
	// PreserveFirst is the number of earliest human/system messages always kept.
	PreserveFirst int
	// PreserveLast is the number of most recent messages always kept.
	PreserveLast int
}

// DefaultConfig returns the sliding-window configuration with default limits.
func DefaultConfig() Config {
	return Config{
		Strategy:         StrategySlidingWindow,
		WindowSizeTokens: DefaultWindowSizeTokens,
		PreserveFirst:    DefaultPreserveFirst,
		PreserveLast:     DefaultPreserveLast,
	}
}

// NewConfig builds and validates a Config.
func NewConfig(strategy string, windowSizeTokens, preserveFirst, preserveLast int) (Config, error) {
	name, err := ParseStrategy(strategy)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Strategy:         name,
		WindowSizeTokens: windowSizeTokens,
		PreserveFirst:    preserveFirst,
		PreserveLast:     preserveLast,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that must not reach the engine.
func (c Config) Validate() error {
	if _, err := ParseStrategy(string(c.Strategy)); err != nil {
		return err
	}
	if c.WindowSizeTokens < 0 {
		return fmt.Errorf("%w: window size must be zero or greater, got %d", ErrInvalidConfig, c.WindowSizeTokens)
	}
	if c.PreserveFirst < 0 {
		return fmt.Errorf("%w: preserve-first must be zero or greater, got %d", ErrInvalidConfig, c.PreserveFirst)
	}
	if c.PreserveLast < 0 {
		return fmt.Errorf("%w: preserve-last must be zero or greater, got %d", ErrInvalidConfig, c.PreserveLast)
	}
	return nil
}

// Disabled reports whether the config turns trimming off.
func (c Config) Disabled() bool {
	return c.Strategy == StrategyNoOp || c.WindowSizeTokens <= 0
}
