package agent

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/nbenliogludev/go-browser-command-agent/internal/browser"
	"github.com/nbenliogludev/go-browser-command-agent/internal/command"
	"github.com/nbenliogludev/go-browser-command-agent/internal/llm"
	"github.com/nbenliogludev/go-browser-command-agent/internal/prompt"
)

// Agent drives one browser session through a sequence of objectives. The
// prompt window and the previous command survive from one objective to the
// next; objectives must not run concurrently.
type Agent struct {
	session     browser.Session
	extractor   browser.Extractor
	generator   llm.Generator
	builder     *prompt.Builder
	interpreter *command.Interpreter

	delay    time.Duration
	previous string
	last     Report

	out    io.Writer
	logger *zap.Logger
}

type Options struct {
	// Delay is the pause after every executed command.
	Delay time.Duration
	// Out receives the human-readable trace; defaults to stdout.
	Out io.Writer
}

func New(
	session browser.Session,
	extractor browser.Extractor,
	generator llm.Generator,
	builder *prompt.Builder,
	interpreter *command.Interpreter,
	opts Options,
	logger *zap.Logger,
) *Agent {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Agent{
		session:     session,
		extractor:   extractor,
		generator:   generator,
		builder:     builder,
		interpreter: interpreter,
		delay:       opts.Delay,
		out:         out,
		logger:      logger.Named("agent"),
	}
}

// PreviousCommand is the raw text of the last successfully executed command.
func (a *Agent) PreviousCommand() string { return a.previous }

// LastReport summarizes the most recent Run.
func (a *Agent) LastReport() Report { return a.last }

// Run works on objective until the model stops producing commands, a step
// fails, or ctx is cancelled. A nil error means the model signalled completion.
func (a *Agent) Run(ctx context.Context, objective string) error {
	r := NewRunner(a, objective)
	err := r.Run(ctx)
	a.last = r.Report()
	if err != nil {
		return fmt.Errorf("objective %q: %w", objective, err)
	}
	return nil
}
