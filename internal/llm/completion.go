package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/nbenliogludev/go-browser-command-agent/internal/config"
)

// CompletionGenerator samples a text-completion model with n / best_of and
// returns the top-ranked candidate.
type CompletionGenerator struct {
	client *openai.Client
	cfg    config.LLMConfig
	logger *zap.Logger
}

func NewCompletionGenerator(cfg config.LLMConfig, logger *zap.Logger) (*CompletionGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &CompletionGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger.Named("completion"),
	}, nil
}

func (g *CompletionGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       g.cfg.Model,
		Prompt:      prompt,
		Temperature: g.cfg.Temperature,
		N:           g.cfg.Candidates,
		BestOf:      g.cfg.BestOf,
		MaxTokens:   g.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrModelRequest, err)
	}

	fields := []zap.Field{zap.Int("choices", len(resp.Choices))}
	if resp.Usage != nil {
		fields = append(fields, zap.Int("prompt_tokens", resp.Usage.PromptTokens))
	}
	g.logger.Debug("Completion received", fields...)

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Text), nil
}
