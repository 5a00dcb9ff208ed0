package anthropic

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/vertex"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// VertexConfig controls an Anthropic client that routes through Vertex AI.
type VertexConfig struct {
	Project     string
	Location    string
	Model       string
	MaxTokens   int
	Temperature *float64
	// TokenSource overrides Application Default Credentials.
	TokenSource oauth2.TokenSource
}

// NewVertex constructs an Anthropic client that uses Vertex AI as the backend.
func NewVertex(ctx context.Context, cfg VertexConfig) (*Client, error) {
	if cfg.Project == "" || cfg.Model == "" {
		return nil, errors.New("anthropic vertex: project and model are required")
	}
	location := cfg.Location
	if location == "" {
		location = "us-east5"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	creds, err := vertexCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		client:      sdk.NewClient(vertex.WithCredentials(ctx, location, cfg.Project, creds)),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// vertexCredentials resolves credentials up front so that failures surface as errors.
func vertexCredentials(ctx context.Context, cfg VertexConfig) (*google.Credentials, error) {
	if cfg.TokenSource != nil {
		return &google.Credentials{ProjectID: cfg.Project, TokenSource: cfg.TokenSource}, nil
	}
	creds, err := google.FindDefaultCredentials(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("anthropic vertex: credentials: %w", err)
	}
	return creds, nil
}

// NewFromVertexEnv builds an Anthropic-on-Vertex client from environment variables.
// Required: VERTEX_PROJECT, VERTEX_MODEL.
// Optional: VERTEX_LOCATION (default us-east5), VERTEX_MAX_TOKENS, VERTEX_TEMPERATURE.
func NewFromVertexEnv(ctx context.Context) (*Client, error) {
	project := envTrimmed("VERTEX_PROJECT")
	model := envTrimmed("VERTEX_MODEL")
	if project == "" || model == "" {
		return nil, errors.New("anthropic vertex: VERTEX_PROJECT and VERTEX_MODEL are required")
	}
	maxTokens, temperature := envLimits("VERTEX")
	return NewVertex(ctx, VertexConfig{
		Project:     project,
		Location:    envTrimmed("VERTEX_LOCATION"),
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
}
