package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nbenliogludev/go-browser-command-agent/internal/browser"
	"github.com/nbenliogludev/go-browser-command-agent/internal/dom"
	"github.com/nbenliogludev/go-browser-command-agent/internal/prompt"
)

// executeStep runs one Extracting→Executing pass. It returns finished=true
// when the model produced no command.
func (r *Runner) executeStep(ctx context.Context, step int) (bool, error) {
	a := r.agent

	page, err := a.session.Current()
	if err != nil {
		return false, err
	}

	elements, err := a.extractor.Extract(ctx, page)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExtractionFail, err)
	}
	index := dom.NewIndex(page.Generation(), elements)

	pageURL, err := page.URL(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPageUnavailable, err)
	}

	text := a.builder.Build(prompt.Input{
		Objective:       r.objective,
		URL:             pageURL,
		PreviousCommand: a.previous,
		Elements:        elements,
	})
	a.logger.Debug("Prompt built",
		zap.Int("step", step),
		zap.Int("elements", index.Len()),
		zap.Int("prompt_chars", len(text)),
	)

	raw, err := a.generator.Generate(ctx, text)
	if err != nil {
		return false, err
	}
	if raw == "" {
		r.reporter.NoCommand(step)
		return true, nil
	}

	action, err := a.interpreter.Interpret(raw, index)
	if err != nil {
		r.reporter.Rejected(step, raw, err)
		return false, err
	}
	r.reporter.Command(step, pageURL, action)

	if !a.session.IsCurrent(index.Generation()) {
		r.reporter.Skipped(step, browser.ErrStalePage)
		return false, nil
	}

	if err := a.interpreter.Execute(ctx, page, action); err != nil {
		a.logger.Error("Failed to run command", zap.Int("step", step), zap.Error(err))
		return false, err
	}

	a.previous = raw
	r.reporter.Executed()
	return false, nil
}
