package agent

import (
	"errors"

	"github.com/nbenliogludev/go-browser-command-agent/internal/browser"
	"github.com/nbenliogludev/go-browser-command-agent/internal/command"
	"github.com/nbenliogludev/go-browser-command-agent/internal/llm"
)

const (
	ReasonFinished    = "no command generated"
	ReasonInterrupted = "interrupted by user (Ctrl+C)"
)

// exitReason maps the error that ended a run onto a short explanation.
func exitReason(err error) string {
	switch {
	case err == nil:
		return ReasonFinished
	case errors.Is(err, ErrInterrupted):
		return ReasonInterrupted
	case errors.Is(err, command.ErrInvalidCommandSyntax):
		return "model produced an invalid command"
	case errors.Is(err, command.ErrUnknownElementID):
		return "model referenced an element id that does not exist"
	case errors.Is(err, command.ErrActionExecution):
		return "browser action failed"
	case errors.Is(err, llm.ErrModelRequest):
		return "model request failed"
	case errors.Is(err, browser.ErrUninitializedSession):
		return "no page is open"
	case errors.Is(err, ErrExtractionFail):
		return "page extraction error"
	default:
		return err.Error()
	}
}
