package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nbenliogludev/go-browser-command-agent/internal/config"
)

// ErrModelRequest wraps transport and model-side failures.
var ErrModelRequest = errors.New("model request failed")

// Generator turns a prompt into the model's best command text. An empty
// string with a nil error means the model produced no command.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// New builds the generator selected by cfg.Provider.
func New(cfg config.LLMConfig, logger *zap.Logger) (Generator, error) {
	var (
		gen Generator
		err error
	)
	switch cfg.Provider {
	case config.ProviderCompletion, "":
		gen, err = NewCompletionGenerator(cfg, logger)
	case config.ProviderChat:
		gen, err = NewChatGenerator(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RequestsPerMinute > 0 {
		gen = WithRateLimit(gen, rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1))
	}
	return gen, nil
}

type limitedGenerator struct {
	next    Generator
	limiter *rate.Limiter
}

// WithRateLimit delays each request until limiter admits it.
func WithRateLimit(next Generator, limiter *rate.Limiter) Generator {
	return &limitedGenerator{next: next, limiter: limiter}
}

func (l *limitedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %w", ErrModelRequest, err)
	}
	return l.next.Generate(ctx, prompt)
}
