package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages in a shared headless Chrome. Each fetch
// runs in its own tab.
type BrowserFetcher struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
	log         *slog.Logger
}

// BrowserOptions configures the Chrome process.
type BrowserOptions struct {
	ExecPath  string
	UserAgent string
	Headless  bool
	Timeout   time.Duration
	Logger    *slog.Logger
}

// NewBrowserFetcher prepares a Chrome allocator. The browser itself is
// started lazily by the first fetch.
func NewBrowserFetcher(opts BrowserOptions) *BrowserFetcher {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(1920, 1080),
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	return &BrowserFetcher{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		timeout:     timeout,
		log:         log,
	}
}

// Close shuts the browser down.
func (b *BrowserFetcher) Close() {
	b.log.Debug("closing browser")
	b.allocCancel()
}

// FetchPage navigates to url, waits for waitSelector if set and returns the
// document HTML.
func (b *BrowserFetcher) FetchPage(ctx context.Context, url, waitSelector string) (string, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.allocCtx)
	defer tabCancel()

	tabCtx, cancel := context.WithTimeout(tabCtx, b.timeout)
	defer cancel()

	// Tie the tab to the caller's context as well.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		hideWebDriver(),
	}
	if waitSelector != "" {
		actions = append(actions, chromedp.WaitVisible(waitSelector, chromedp.ByQuery))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return "", fmt.Errorf("rendering %s: %w", url, err)
	}
	return html, nil
}

func hideWebDriver() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return chromedp.Evaluate(
			`Object.defineProperty(navigator, 'webdriver', { get: () => undefined })`, nil,
		).Do(ctx)
	})
}
