// Package ai implements the Generator port against OpenAI-compatible
// chat APIs, which covers Mistral's hosted endpoint as well as local
// servers.
package ai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driven"
)

// Ensure Generator implements driven.Generator
var _ driven.Generator = (*Generator)(nil)

// Generator produces completions through a chat model
type Generator struct {
	client llms.Model
	model  string
}

// Config holds chat-model connection settings
type Config struct {
	// BaseURL is the OpenAI-compatible endpoint
	// (e.g., https://api.mistral.ai/v1)
	BaseURL string

	// APIKey authenticates against the endpoint. Local servers that
	// skip authentication still need a placeholder token.
	APIKey string

	// Model is the chat model identifier (e.g., mistral-small-latest)
	Model string
}

// NewGenerator creates a new chat-model-backed Generator
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model is required", domain.ErrInvalidInput)
	}
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}

	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create chat client: %w", err)
	}

	return &Generator{client: client, model: cfg.Model}, nil
}

// Complete sends a single-prompt completion request
func (g *Generator) Complete(ctx context.Context, prompt string) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	response, err := g.client.GenerateContent(ctx, content, llms.WithTemperature(0.2))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%w: model returned no choices", domain.ErrGeneration)
	}
	return response.Choices[0].Content, nil
}

// Model returns the configured model identifier
func (g *Generator) Model() string { return g.model }

// Ping sends a minimal completion to verify connectivity
func (g *Generator) Ping(ctx context.Context) error {
	_, err := g.Complete(ctx, "ping")
	return err
}
