package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/nbenliogludev/go-browser-command-agent/internal/browser"
	"github.com/nbenliogludev/go-browser-command-agent/internal/command"
	"github.com/nbenliogludev/go-browser-command-agent/internal/dom"
	"github.com/nbenliogludev/go-browser-command-agent/internal/llm"
	"github.com/nbenliogludev/go-browser-command-agent/internal/prompt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakePage struct {
	gen    uint64
	calls  []string
	failOn string
}

func (p *fakePage) record(call string) error {
	p.calls = append(p.calls, call)
	if call == p.failOn {
		return errors.New("timeout 5000ms exceeded")
	}
	return nil
}

func (p *fakePage) Generation() uint64                           { return p.gen }
func (p *fakePage) URL(context.Context) (string, error)          { return "https://example.com/", nil }
func (p *fakePage) Evaluate(context.Context, string) (any, error) { return "[]", nil }
func (p *fakePage) Content(context.Context) (string, error)      { return "", nil }
func (p *fakePage) Navigate(_ context.Context, url string) error  { return p.record("navigate " + url) }
func (p *fakePage) WaitForContentLoaded(context.Context) error    { return nil }
func (p *fakePage) Locator(selector string) browser.Locator {
	return &fakeLocator{page: p, selector: selector}
}

type fakeLocator struct {
	page     *fakePage
	selector string
}

func (l *fakeLocator) ScrollIntoView(context.Context) error { return l.page.record("scroll " + l.selector) }
func (l *fakeLocator) Click(context.Context, time.Duration) error {
	return l.page.record("click " + l.selector)
}
func (l *fakeLocator) Type(_ context.Context, text string, _ time.Duration) error {
	return l.page.record(fmt.Sprintf("type %s %q", l.selector, text))
}
func (l *fakeLocator) Press(_ context.Context, key string) error {
	return l.page.record("press " + l.selector + " " + key)
}

type fakeSession struct {
	page *fakePage
	// stale lists IsCurrent answers to return before reporting true.
	stale   []bool
	checked []uint64
}

func (s *fakeSession) Open(context.Context, string) error { return nil }
func (s *fakeSession) Current() (browser.Page, error) {
	if s.page == nil {
		return nil, browser.ErrUninitializedSession
	}
	return s.page, nil
}
func (s *fakeSession) IsCurrent(generation uint64) bool {
	s.checked = append(s.checked, generation)
	if len(s.stale) > 0 {
		v := s.stale[0]
		s.stale = s.stale[1:]
		return v
	}
	return true
}
func (s *fakeSession) Close() error { return nil }

type fakeExtractor struct {
	elements []dom.Element
	calls    int
}

func (e *fakeExtractor) Extract(context.Context, browser.Page) ([]dom.Element, error) {
	e.calls++
	return e.elements, nil
}

type scriptedGenerator struct {
	replies []string
	err     error
	prompts []string
	onCall  func()
}

func (g *scriptedGenerator) Generate(_ context.Context, p string) (string, error) {
	g.prompts = append(g.prompts, p)
	if g.onCall != nil {
		g.onCall()
	}
	if g.err != nil {
		return "", g.err
	}
	if len(g.replies) == 0 {
		return "", nil
	}
	reply := g.replies[0]
	g.replies = g.replies[1:]
	return reply, nil
}

var testElements = []dom.Element{
	{Kind: dom.KindLink, Text: "Home", DomPath: "body:nth-of-type(1) > a:nth-of-type(1)"},
	{Kind: dom.KindButton, Text: "Go", DomPath: "body:nth-of-type(1) > button:nth-of-type(1)"},
	{Kind: dom.KindInput, Text: "Search", DomPath: "div:nth-of-type(1) > input:nth-of-type(1)"},
}

type harness struct {
	agent     *Agent
	session   *fakeSession
	page      *fakePage
	extractor *fakeExtractor
	gen       *scriptedGenerator
	out       *bytes.Buffer
}

func newHarness(replies ...string) *harness {
	page := &fakePage{gen: 1}
	h := &harness{
		session:   &fakeSession{page: page},
		page:      page,
		extractor: &fakeExtractor{elements: testElements},
		gen:       &scriptedGenerator{replies: replies},
		out:       &bytes.Buffer{},
	}
	h.agent = New(
		h.session,
		h.extractor,
		h.gen,
		prompt.NewBuilder(prompt.Options{WindowSize: 3, URLLimit: 100, ContentLimit: 4500}),
		command.NewInterpreter(command.DefaultClickTimeout, command.DefaultTypeDelay, zap.NewNop()),
		Options{Out: h.out},
		zap.NewNop(),
	)
	return h
}

func TestRun_EmptyCommandFinishes(t *testing.T) {
	h := newHarness()

	require.NoError(t, h.agent.Run(context.Background(), "do nothing"))

	assert.Empty(t, h.page.calls)
	assert.Len(t, h.gen.prompts, 1)
	assert.Equal(t, ReasonFinished, h.agent.LastReport().ExitReason)
	assert.Contains(t, h.out.String(), "No command generated")
}

func TestRun_ExecutesUntilNoCommand(t *testing.T) {
	h := newHarness("CLICK 1", `TYPESUBMIT 2 "hello world"`)

	require.NoError(t, h.agent.Run(context.Background(), "search for hello world"))

	assert.Equal(t, []string{
		"click body:nth-of-type(1) > button:nth-of-type(1)",
		`type div:nth-of-type(1) > input:nth-of-type(1) "hello world"`,
		"press div:nth-of-type(1) > input:nth-of-type(1) Enter",
	}, h.page.calls)
	assert.Equal(t, 3, h.extractor.calls)
	require.Len(t, h.gen.prompts, 3)

	assert.Contains(t, h.gen.prompts[0], "PREVIOUS COMMAND: \n")
	assert.Contains(t, h.gen.prompts[1], "PREVIOUS COMMAND: CLICK 1\n")
	assert.Contains(t, h.gen.prompts[2], `PREVIOUS COMMAND: TYPESUBMIT 2 "hello world"`)
	assert.Contains(t, h.gen.prompts[0], "<button id=1>Go</button>")

	report := h.agent.LastReport()
	assert.Equal(t, 2, report.Executed)
	assert.Equal(t, 3, report.Steps)
	assert.NotEmpty(t, report.RunID)

	out := h.out.String()
	assert.Contains(t, out, "COMMAND: CLICK 1\n")
	assert.Contains(t, out, "SELECTOR: body:nth-of-type(1) > button:nth-of-type(1)\n")
	assert.Contains(t, out, "EXECUTION REPORT")
}

func TestRun_OnlyFirstLineIsExecuted(t *testing.T) {
	h := newHarness("CLICK 0\nCLICK 1")

	require.NoError(t, h.agent.Run(context.Background(), "go home"))
	assert.Equal(t, []string{"click body:nth-of-type(1) > a:nth-of-type(1)"}, h.page.calls)
	assert.Equal(t, "CLICK 0\nCLICK 1", h.agent.PreviousCommand())
}

func TestRun_UnknownElementIDFailsWithoutExecution(t *testing.T) {
	h := newHarness("CLICK 9")

	err := h.agent.Run(context.Background(), "click something")
	require.ErrorIs(t, err, command.ErrUnknownElementID)
	assert.Empty(t, h.page.calls)
	assert.Empty(t, h.agent.PreviousCommand())
	assert.Len(t, h.gen.prompts, 1)
}

func TestRun_MissingElementIDFails(t *testing.T) {
	h := newHarness("CLICK")

	err := h.agent.Run(context.Background(), "click something")
	require.ErrorIs(t, err, command.ErrInvalidCommandSyntax)
	assert.Empty(t, h.page.calls)
}

func TestRun_ExecutionFailureStopsObjective(t *testing.T) {
	h := newHarness("CLICK 1", "CLICK 0")
	h.page.failOn = "click body:nth-of-type(1) > button:nth-of-type(1)"

	err := h.agent.Run(context.Background(), "press go")
	require.ErrorIs(t, err, command.ErrActionExecution)
	assert.Len(t, h.gen.prompts, 1)
	assert.Empty(t, h.agent.PreviousCommand())
	assert.Equal(t, "browser action failed", h.agent.LastReport().ExitReason)
	assert.Contains(t, h.out.String(), "Failed to run command")
}

func TestRun_ModelFailure(t *testing.T) {
	h := newHarness()
	h.gen.err = fmt.Errorf("%w: connection refused", llm.ErrModelRequest)

	err := h.agent.Run(context.Background(), "anything")
	require.ErrorIs(t, err, llm.ErrModelRequest)
	assert.Empty(t, h.page.calls)
}

func TestRun_UninitializedSession(t *testing.T) {
	h := newHarness("CLICK 0")
	h.session.page = nil

	err := h.agent.Run(context.Background(), "anything")
	require.ErrorIs(t, err, browser.ErrUninitializedSession)
	assert.Empty(t, h.gen.prompts)
}

func TestRun_StalePageIsReextracted(t *testing.T) {
	h := newHarness("CLICK 0", "CLICK 1")
	h.session.stale = []bool{false}

	require.NoError(t, h.agent.Run(context.Background(), "go"))

	assert.Equal(t, []string{"click body:nth-of-type(1) > button:nth-of-type(1)"}, h.page.calls)
	assert.Equal(t, 3, h.extractor.calls)
	assert.Equal(t, "CLICK 1", h.agent.PreviousCommand())

	report := h.agent.LastReport()
	assert.Equal(t, 1, report.Executed)
	require.Len(t, report.Trace, 3)
	assert.Contains(t, report.Trace[0], "CLICK 0")
	assert.Contains(t, report.Trace[1], "SKIPPED")
	assert.Contains(t, h.out.String(), browser.ErrStalePage.Error())
}

func TestRun_ChecksGenerationOfTheIndex(t *testing.T) {
	h := newHarness("CLICK 0", "CLICK 1")
	h.page.gen = 7

	require.NoError(t, h.agent.Run(context.Background(), "go"))

	assert.Equal(t, []uint64{7, 7}, h.session.checked)
	assert.Equal(t, 2, h.agent.LastReport().Executed)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	h := newHarness("CLICK 0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.agent.Run(ctx, "anything")
	require.ErrorIs(t, err, ErrInterrupted)
	assert.Empty(t, h.gen.prompts)
	assert.Equal(t, ReasonInterrupted, h.agent.LastReport().ExitReason)
}

func TestRun_CancelledDuringDelay(t *testing.T) {
	h := newHarness("CLICK 0", "CLICK 1")
	h.agent.delay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.gen.onCall = cancel

	start := time.Now()
	err := h.agent.Run(ctx, "anything")
	require.ErrorIs(t, err, ErrInterrupted)
	assert.Less(t, time.Since(start), time.Minute)
	assert.Len(t, h.gen.prompts, 1)
}

func TestRun_StatePersistsAcrossObjectives(t *testing.T) {
	h := newHarness("CLICK 0", "", "CLICK 1")

	require.NoError(t, h.agent.Run(context.Background(), "first objective"))
	firstRun := h.agent.LastReport().RunID

	require.NoError(t, h.agent.Run(context.Background(), "second objective"))
	assert.NotEqual(t, firstRun, h.agent.LastReport().RunID)

	last := h.gen.prompts[len(h.gen.prompts)-1]
	assert.Contains(t, last, "OBJECTIVE: first objective")
	assert.Contains(t, last, "OBJECTIVE: second objective")
	assert.Contains(t, h.gen.prompts[2], "PREVIOUS COMMAND: CLICK 0\n")
	assert.Equal(t, "CLICK 1", h.agent.PreviousCommand())
}

func TestExitReason(t *testing.T) {
	assert.Equal(t, ReasonFinished, exitReason(nil))
	assert.Equal(t, ReasonInterrupted, exitReason(fmt.Errorf("wrap: %w", ErrInterrupted)))
	assert.Equal(t, "model request failed", exitReason(llm.ErrModelRequest))
	assert.Equal(t, "something else", exitReason(errors.New("something else")))
}

func TestSignalController_Release(t *testing.T) {
	sc := NewSignalController()
	ctx, release := sc.Scope(context.Background())
	release()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestSignalController_InterruptCancelsScope(t *testing.T) {
	sc := NewSignalController(os.Interrupt)
	ctx, release := sc.Scope(context.Background())
	defer release()

	self, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	require.NoError(t, self.Signal(os.Interrupt))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scope was not cancelled by interrupt")
	}
}

func TestSleep(t *testing.T) {
	assert.True(t, sleep(context.Background(), 0))
	assert.True(t, sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, time.Hour))
	assert.False(t, sleep(ctx, 0))
}
