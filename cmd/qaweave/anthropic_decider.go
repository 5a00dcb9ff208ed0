package main

import (
	"context"

	"github.com/victorarias/qaweave/agentic/loop"
	provider "github.com/victorarias/qaweave/agentic/providers/anthropic"
	"github.com/victorarias/qaweave/cmd/qaweave/config"
)

type anthropicDecider struct {
	client *provider.Client
}

func newDecider(ctx context.Context, cfg config.Config) (anthropicDecider, error) {
	var (
		client *provider.Client
		err    error
	)
	switch cfg.Provider {
	case config.ProviderVertex:
		client, err = provider.NewVertex(ctx, provider.VertexConfig{
			Project:     cfg.VertexProject,
			Location:    cfg.VertexLocation,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
	default:
		client, err = provider.New(provider.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
	}
	if err != nil {
		return anthropicDecider{}, err
	}
	return anthropicDecider{client: client}, nil
}

func (d anthropicDecider) Decide(ctx context.Context, in loop.Input) (loop.Decision, error) {
	decision, err := d.client.Decide(ctx, provider.Input{
		Messages: in.Messages,
		Tools:    in.Tools,
	})
	if err != nil {
		return loop.Decision{}, err
	}
	return loop.Decision{
		Reply:      decision.Reply,
		ToolCalls:  decision.ToolCalls,
		Usage:      decision.Usage,
		StopReason: decision.StopReason,
	}, nil
}
