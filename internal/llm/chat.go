package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"

	"github.com/nbenliogludev/go-browser-command-agent/internal/config"
)

// ChatGenerator sends the prompt as a single user message to a chat model.
// Chat models have no best_of; the first of n choices is used.
type ChatGenerator struct {
	client openai.Client
	cfg    config.LLMConfig
	logger *zap.Logger
}

func NewChatGenerator(cfg config.LLMConfig, logger *zap.Logger) (*ChatGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// One attempt per loop iteration.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &ChatGenerator{
		client: openai.NewClient(opts...),
		cfg:    cfg,
		logger: logger.Named("chat"),
	}, nil
}

func (g *ChatGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(g.cfg.Model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(float64(g.cfg.Temperature)),
		N:           openai.Int(int64(g.cfg.Candidates)),
		MaxTokens:   openai.Int(int64(g.cfg.MaxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrModelRequest, err)
	}

	g.logger.Debug("Chat completion received", zap.Int("choices", len(resp.Choices)))

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
