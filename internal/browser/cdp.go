package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/nbenliogludev/go-browser-command-agent/internal/config"
)

// CDPManager is the chromedp-backed Session. Each page is a chromedp tab context.
type CDPManager struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	tabs          PageRef[context.Context]

	mu         sync.Mutex
	tabCancels []context.CancelFunc
	opened     bool

	logger *zap.Logger
}

func NewCDPManager(cfg config.BrowserConfig, logger *zap.Logger) (*CDPManager, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser and its initial tab.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome failed: %w", err)
	}

	m := &CDPManager{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		logger:        logger.Named("chromedp"),
	}

	chromedp.ListenBrowser(browserCtx, func(ev interface{}) {
		created, ok := ev.(*target.EventTargetCreated)
		if !ok || created.TargetInfo == nil {
			return
		}
		info := created.TargetInfo
		if info.Type != "page" || info.OpenerID == "" {
			return
		}
		// Listeners must not block; attaching issues CDP calls.
		go m.attach(info.TargetID)
	})

	return m, nil
}

func (m *CDPManager) attach(id target.ID) {
	tabCtx, cancel := chromedp.NewContext(m.browserCtx, chromedp.WithTargetID(id))
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		m.logger.Warn("Failed to attach to new page", zap.String("target_id", string(id)), zap.Error(err))
		return
	}
	m.track(cancel)
	gen := m.tabs.Set(tabCtx)
	m.logger.Info("New page became current", zap.Uint64("generation", gen))
}

func (m *CDPManager) track(cancel context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tabCancels = append(m.tabCancels, cancel)
}

// Open navigates the initial tab on the first call and a fresh tab afterwards.
func (m *CDPManager) Open(ctx context.Context, url string) error {
	m.mu.Lock()
	tabCtx := m.browserCtx
	if m.opened {
		var cancel context.CancelFunc
		tabCtx, cancel = chromedp.NewContext(m.browserCtx)
		m.tabCancels = append(m.tabCancels, cancel)
	}
	fresh := m.opened
	m.opened = true
	m.mu.Unlock()

	if fresh {
		// A tab is created by the first Run on its own context, never on a derived one.
		if err := chromedp.Run(tabCtx); err != nil {
			return fmt.Errorf("failed to create page: %w", err)
		}
	}

	page := &cdpPage{tab: tabCtx}
	if err := page.Navigate(ctx, url); err != nil {
		return fmt.Errorf("could not navigate to %s: %w", url, err)
	}
	m.tabs.Set(tabCtx)
	return nil
}

func (m *CDPManager) Current() (Page, error) {
	tab, gen, ok := m.tabs.Get()
	if !ok || tab == nil {
		return nil, ErrUninitializedSession
	}
	return &cdpPage{tab: tab, gen: gen}, nil
}

func (m *CDPManager) IsCurrent(generation uint64) bool {
	return generation == m.tabs.Generation()
}

func (m *CDPManager) Close() error {
	m.mu.Lock()
	for _, cancel := range m.tabCancels {
		cancel()
	}
	m.tabCancels = nil
	m.mu.Unlock()

	err := chromedp.Cancel(m.browserCtx)
	m.browserCancel()
	m.allocCancel()
	return err
}

type cdpPage struct {
	tab context.Context
	gen uint64
}

// run executes actions on the tab, aborting when ctx is done.
func (p *cdpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (p *cdpPage) Generation() uint64 { return p.gen }

func (p *cdpPage) URL(ctx context.Context) (string, error) {
	var url string
	err := p.run(ctx, chromedp.Location(&url))
	return url, err
}

func (p *cdpPage) Evaluate(ctx context.Context, script string) (any, error) {
	var result any
	err := p.run(ctx, chromedp.Evaluate("("+script+")()", &result))
	return result, err
}

func (p *cdpPage) Content(ctx context.Context) (string, error) {
	var content string
	err := p.run(ctx, chromedp.OuterHTML("html", &content, chromedp.ByQuery))
	return content, err
}

func (p *cdpPage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url))
}

func (p *cdpPage) WaitForContentLoaded(ctx context.Context) error {
	return p.run(ctx, chromedp.WaitReady("body", chromedp.ByQuery))
}

func (p *cdpPage) Locator(selector string) Locator {
	return &cdpLocator{page: p, selector: selector}
}

type cdpLocator struct {
	page     *cdpPage
	selector string
}

func (l *cdpLocator) ScrollIntoView(ctx context.Context) error {
	return l.page.run(ctx, chromedp.ScrollIntoView(l.selector, chromedp.ByQuery))
}

func (l *cdpLocator) Click(ctx context.Context, timeout time.Duration) error {
	clickCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return l.page.run(clickCtx, chromedp.Click(l.selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (l *cdpLocator) Type(ctx context.Context, text string, delay time.Duration) error {
	actions := []chromedp.Action{chromedp.Focus(l.selector, chromedp.ByQuery)}
	for i, r := range text {
		if i > 0 && delay > 0 {
			actions = append(actions, chromedp.Sleep(delay))
		}
		actions = append(actions, chromedp.KeyEvent(string(r)))
	}
	return l.page.run(ctx, actions...)
}

var namedKeys = map[string]string{
	"Enter":     kb.Enter,
	"Tab":       kb.Tab,
	"Escape":    kb.Escape,
	"Backspace": kb.Backspace,
}

func (l *cdpLocator) Press(ctx context.Context, key string) error {
	if k, ok := namedKeys[key]; ok {
		key = k
	}
	return l.page.run(ctx,
		chromedp.Focus(l.selector, chromedp.ByQuery),
		chromedp.KeyEvent(key),
	)
}
