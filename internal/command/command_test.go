package command

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nbenliogludev/go-browser-command-agent/internal/browser"
	"github.com/nbenliogludev/go-browser-command-agent/internal/dom"
)

type fakePage struct {
	calls     []string
	failOn    string
	loadCalls int
}

func (p *fakePage) record(call string) error {
	p.calls = append(p.calls, call)
	if p.failOn != "" && p.failOn == call {
		return errors.New("timeout 5000ms exceeded")
	}
	return nil
}

func (p *fakePage) Generation() uint64                           { return 1 }
func (p *fakePage) URL(context.Context) (string, error)          { return "https://example.com", nil }
func (p *fakePage) Evaluate(context.Context, string) (any, error) { return "[]", nil }
func (p *fakePage) Content(context.Context) (string, error)      { return "", nil }
func (p *fakePage) Navigate(_ context.Context, url string) error {
	return p.record("navigate " + url)
}
func (p *fakePage) WaitForContentLoaded(context.Context) error {
	p.loadCalls++
	return nil
}
func (p *fakePage) Locator(selector string) browser.Locator {
	return &fakeLocator{page: p, selector: selector}
}

type fakeLocator struct {
	page     *fakePage
	selector string
}

func (l *fakeLocator) ScrollIntoView(context.Context) error {
	return l.page.record("scroll " + l.selector)
}
func (l *fakeLocator) Click(_ context.Context, timeout time.Duration) error {
	return l.page.record(fmt.Sprintf("click %s %s", l.selector, timeout))
}
func (l *fakeLocator) Type(_ context.Context, text string, delay time.Duration) error {
	return l.page.record(fmt.Sprintf("type %s %q %s", l.selector, text, delay))
}
func (l *fakeLocator) Press(_ context.Context, key string) error {
	return l.page.record("press " + l.selector + " " + key)
}

func testIndex() *dom.Index {
	return dom.NewIndex(1, []dom.Element{
		{Kind: dom.KindLink, Text: "Home", DomPath: "body:nth-of-type(1) > a:nth-of-type(1)"},
		{Kind: dom.KindButton, Text: "Go", DomPath: "body:nth-of-type(1) > button:nth-of-type(1)"},
		{Kind: dom.KindInput, Text: "Search", DomPath: "div:nth-of-type(1) > input:nth-of-type(1)"},
		{Kind: dom.KindLink, Text: "About", DomPath: "body:nth-of-type(1) > a:nth-of-type(2)"},
	})
}

func TestParse(t *testing.T) {
	tests := []struct {
		raw     string
		want    Command
		wantErr error
	}{
		{raw: "CLICK 3\nsome trailing text", want: Command{Kind: KindClick, Line: "CLICK 3", Target: 3}},
		{raw: "  SCROLL-UP 1  ", want: Command{Kind: KindScrollUp, Line: "SCROLL-UP 1", Target: 1}},
		{raw: "SCROLL-DOWN 0", want: Command{Kind: KindScrollDown, Line: "SCROLL-DOWN 0", Target: 0}},
		{raw: `TYPE 2 "hello world"`, want: Command{Kind: KindType, Line: `TYPE 2 "hello world"`, Target: 2, Payload: "hello world"}},
		{raw: `TYPE 2 "hello   world"`, want: Command{Kind: KindType, Line: `TYPE 2 "hello   world"`, Target: 2, Payload: "hello world"}},
		{raw: `TYPESUBMIT 7 "cheap flights"`, want: Command{Kind: KindTypeSubmit, Line: `TYPESUBMIT 7 "cheap flights"`, Target: 7, Payload: "cheap flights"}},
		{raw: "NAVIGATE https://example.com", want: Command{Kind: KindNavigate, Line: "NAVIGATE https://example.com", Payload: "https://example.com"}},
		{raw: "NAVIGATE", wantErr: ErrInvalidCommandSyntax},
		{raw: "NAVIGATE example.com", wantErr: ErrInvalidCommandSyntax},
		{raw: "CLICK", wantErr: ErrInvalidCommandSyntax},
		{raw: "CLICK abc", wantErr: ErrUnknownElementID},
		{raw: `TYPE 2`, wantErr: ErrInvalidCommandSyntax},
		{raw: "HOVER 3", wantErr: ErrInvalidCommandSyntax},
		{raw: "click 3", wantErr: ErrInvalidCommandSyntax},
		{raw: "\nCLICK 3", wantErr: ErrInvalidCommandSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterpret(t *testing.T) {
	in := NewInterpreter(0, DefaultTypeDelay, zap.NewNop())

	action, err := in.Interpret(`TYPE 2 "hello world"`, testIndex())
	require.NoError(t, err)
	assert.Equal(t, "div:nth-of-type(1) > input:nth-of-type(1)", action.Selector)
	assert.Equal(t, "hello world", action.Payload)

	action, err = in.Interpret("NAVIGATE https://example.com", nil)
	require.NoError(t, err)
	assert.Empty(t, action.Selector)

	_, err = in.Interpret("CLICK 4", testIndex())
	require.ErrorIs(t, err, ErrUnknownElementID)

	_, err = in.Interpret("CLICK -1", testIndex())
	require.ErrorIs(t, err, ErrUnknownElementID)

	_, err = in.Interpret("CLICK 0", nil)
	require.ErrorIs(t, err, ErrUnknownElementID)
}

func TestExecute(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{raw: "CLICK 3\nsome trailing text", want: []string{"click body:nth-of-type(1) > a:nth-of-type(2) 5s"}},
		{raw: "SCROLL-UP 0", want: []string{"scroll body:nth-of-type(1) > a:nth-of-type(1)"}},
		{raw: "SCROLL-DOWN 1", want: []string{"scroll body:nth-of-type(1) > button:nth-of-type(1)"}},
		{raw: `TYPE 2 "hello world"`, want: []string{`type div:nth-of-type(1) > input:nth-of-type(1) "hello world" 100ms`}},
		{raw: `TYPESUBMIT 2 "hello"`, want: []string{
			`type div:nth-of-type(1) > input:nth-of-type(1) "hello" 100ms`,
			"press div:nth-of-type(1) > input:nth-of-type(1) Enter",
		}},
		{raw: "NAVIGATE https://example.com", want: []string{"navigate https://example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			in := NewInterpreter(DefaultClickTimeout, DefaultTypeDelay, zap.NewNop())
			page := &fakePage{}

			action, err := in.Interpret(tt.raw, testIndex())
			require.NoError(t, err)
			require.NoError(t, in.Execute(context.Background(), page, action))

			assert.Equal(t, tt.want, page.calls)
			assert.Equal(t, 1, page.loadCalls)
		})
	}
}

func TestExecute_Failure(t *testing.T) {
	in := NewInterpreter(DefaultClickTimeout, DefaultTypeDelay, zap.NewNop())
	page := &fakePage{failOn: "click body:nth-of-type(1) > button:nth-of-type(1) 5s"}

	action, err := in.Interpret("CLICK 1", testIndex())
	require.NoError(t, err)

	err = in.Execute(context.Background(), page, action)
	require.ErrorIs(t, err, ErrActionExecution)
	assert.Contains(t, err.Error(), "CLICK 1")
	assert.Zero(t, page.loadCalls, "no settle wait after a failed action")
}

func TestExecute_NoPage(t *testing.T) {
	in := NewInterpreter(DefaultClickTimeout, DefaultTypeDelay, zap.NewNop())
	err := in.Execute(context.Background(), nil, Action{Command: Command{Kind: KindClick}})
	require.ErrorIs(t, err, browser.ErrUninitializedSession)
}
