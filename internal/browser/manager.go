package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/nbenliogludev/go-browser-command-agent/internal/config"
)

// Manager is the playwright-backed Session.
type Manager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	pages   PageRef[playwright.Page]

	cfg    config.BrowserConfig
	logger *zap.Logger
}

func NewManager(cfg config.BrowserConfig, logger *zap.Logger) (*Manager, error) {
	if cfg.Install {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("install pw failed: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start pw failed: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium failed: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(cfg.UserAgent),
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("create browser context failed: %w", err)
	}

	m := &Manager{
		pw:      pw,
		browser: browser,
		context: bctx,
		cfg:     cfg,
		logger:  logger.Named("playwright"),
	}

	// target="_blank" links and window.open land here.
	bctx.OnPage(func(page playwright.Page) {
		m.adopt(page)
		gen := m.pages.Set(page)
		m.logger.Info("New page became current", zap.Uint64("generation", gen))
	})

	return m, nil
}

func (m *Manager) adopt(page playwright.Page) {
	if m.cfg.DefaultTimeout > 0 {
		ms := float64(m.cfg.DefaultTimeout / time.Millisecond)
		page.SetDefaultTimeout(ms)
		page.SetDefaultNavigationTimeout(ms)
	}
}

// Open creates a new page, navigates it to url and makes it current.
func (m *Manager) Open(ctx context.Context, url string) error {
	return await(ctx, func() error {
		page, err := m.context.NewPage()
		if err != nil {
			return fmt.Errorf("failed to create page: %w", err)
		}
		m.adopt(page)
		if _, err := page.Goto(url); err != nil {
			return fmt.Errorf("could not navigate to %s: %w", url, err)
		}
		if cur, _, ok := m.pages.Get(); !ok || cur != page {
			m.pages.Set(page)
		}
		return nil
	})
}

func (m *Manager) Current() (Page, error) {
	page, gen, ok := m.pages.Get()
	if !ok || page == nil {
		return nil, ErrUninitializedSession
	}
	return &pwPage{page: page, gen: gen}, nil
}

func (m *Manager) IsCurrent(generation uint64) bool {
	return generation == m.pages.Generation()
}

func (m *Manager) Close() error {
	if m.context != nil {
		_ = m.context.Close()
	}
	if m.browser != nil {
		_ = m.browser.Close()
	}
	if m.pw != nil {
		return m.pw.Stop()
	}
	return nil
}

type pwPage struct {
	page playwright.Page
	gen  uint64
}

func (p *pwPage) Generation() uint64 { return p.gen }

func (p *pwPage) URL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.page.URL(), nil
}

func (p *pwPage) Evaluate(ctx context.Context, script string) (any, error) {
	return awaitValue(ctx, func() (any, error) {
		return p.page.Evaluate(script)
	})
}

func (p *pwPage) Content(ctx context.Context) (string, error) {
	return awaitValue(ctx, p.page.Content)
}

func (p *pwPage) Navigate(ctx context.Context, url string) error {
	return await(ctx, func() error {
		_, err := p.page.Goto(url)
		return err
	})
}

func (p *pwPage) WaitForContentLoaded(ctx context.Context) error {
	state := playwright.LoadState(LoadStateDomcontentloaded)
	return await(ctx, func() error {
		return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State: &state,
		})
	})
}

func (p *pwPage) Locator(selector string) Locator {
	return &pwLocator{loc: p.page.Locator(selector)}
}

type pwLocator struct {
	loc playwright.Locator
}

func (l *pwLocator) ScrollIntoView(ctx context.Context) error {
	return await(ctx, func() error {
		return l.loc.ScrollIntoViewIfNeeded()
	})
}

func (l *pwLocator) Click(ctx context.Context, timeout time.Duration) error {
	return await(ctx, func() error {
		return l.loc.Click(playwright.LocatorClickOptions{
			Timeout: playwright.Float(float64(timeout / time.Millisecond)),
		})
	})
}

func (l *pwLocator) Type(ctx context.Context, text string, delay time.Duration) error {
	return await(ctx, func() error {
		return l.loc.PressSequentially(text, playwright.LocatorPressSequentiallyOptions{
			Delay: playwright.Float(float64(delay / time.Millisecond)),
		})
	})
}

func (l *pwLocator) Press(ctx context.Context, key string) error {
	return await(ctx, func() error {
		return l.loc.Press(key)
	})
}
