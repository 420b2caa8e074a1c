package command

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nbenliogludev/go-browser-command-agent/internal/browser"
	"github.com/nbenliogludev/go-browser-command-agent/internal/dom"
)

const (
	DefaultClickTimeout = 5 * time.Second
	DefaultTypeDelay    = 100 * time.Millisecond
)

// Action is a Command bound to the selector its id resolved to.
type Action struct {
	Command
	Selector string
}

type Interpreter struct {
	clickTimeout time.Duration
	typeDelay    time.Duration
	logger       *zap.Logger
}

func NewInterpreter(clickTimeout, typeDelay time.Duration, logger *zap.Logger) *Interpreter {
	if clickTimeout <= 0 {
		clickTimeout = DefaultClickTimeout
	}
	if typeDelay < 0 {
		typeDelay = DefaultTypeDelay
	}
	return &Interpreter{
		clickTimeout: clickTimeout,
		typeDelay:    typeDelay,
		logger:       logger.Named("interpreter"),
	}
}

// Interpret parses raw and resolves its element id against index. Nothing
// touches the page here.
func (in *Interpreter) Interpret(raw string, index *dom.Index) (Action, error) {
	cmd, err := Parse(raw)
	if err != nil {
		return Action{}, err
	}
	action := Action{Command: cmd}
	if !cmd.Kind.Targeted() {
		return action, nil
	}

	selector, ok := index.Lookup(cmd.Target)
	if !ok {
		return Action{}, fmt.Errorf("%w: %d (index has %d elements)", ErrUnknownElementID, cmd.Target, index.Len())
	}
	action.Selector = selector
	return action, nil
}

// Execute performs action on page and waits for the page to settle.
func (in *Interpreter) Execute(ctx context.Context, page browser.Page, action Action) error {
	if page == nil {
		return browser.ErrUninitializedSession
	}

	in.logger.Info("Executing command",
		zap.Stringer("kind", action.Kind),
		zap.String("selector", action.Selector),
	)

	if err := in.perform(ctx, page, action); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrActionExecution, action.Line, err)
	}
	if err := page.WaitForContentLoaded(ctx); err != nil {
		return fmt.Errorf("%w: wait for content loaded: %w", ErrActionExecution, err)
	}
	return nil
}

func (in *Interpreter) perform(ctx context.Context, page browser.Page, action Action) error {
	switch action.Kind {
	case KindNavigate:
		return page.Navigate(ctx, action.Payload)
	case KindScrollUp, KindScrollDown:
		return page.Locator(action.Selector).ScrollIntoView(ctx)
	case KindClick:
		return page.Locator(action.Selector).Click(ctx, in.clickTimeout)
	case KindType, KindTypeSubmit:
		loc := page.Locator(action.Selector)
		if err := loc.Type(ctx, action.Payload, in.typeDelay); err != nil {
			return err
		}
		if action.Kind == KindTypeSubmit {
			return loc.Press(ctx, "Enter")
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported kind %s", ErrInvalidCommandSyntax, action.Kind)
	}
}
