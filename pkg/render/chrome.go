package render

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const defaultChromeTimeout = 30 * time.Second

// ChromeOptions configures the headless browser session.
type ChromeOptions struct {
	ExecPath string
	Headless bool
	Timeout  time.Duration
}

// ChromeRenderer drives one headless Chrome process; each navigation opens a fresh tab.
type ChromeRenderer struct {
	opts ChromeOptions

	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

// NewChromeRenderer returns a renderer whose browser starts on first navigation.
func NewChromeRenderer(opts ChromeOptions) *ChromeRenderer {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultChromeTimeout
	}
	return &ChromeRenderer{opts: opts}
}

func (r *ChromeRenderer) browser() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCtx != nil {
		return r.browserCtx, nil
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.Flag("headless", r.opts.Headless))
	if path := strings.TrimSpace(r.opts.ExecPath); path != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(path))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	r.browserCtx = browserCtx
	r.browserCancel = browserCancel
	r.allocCancel = allocCancel
	return browserCtx, nil
}

// Navigate loads url in a new tab and captures the rendered DOM.
func (r *ChromeRenderer) Navigate(ctx context.Context, url string, opts NavigateOptions) (Page, error) {
	browserCtx, err := r.browser()
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = r.opts.Timeout
	}

	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	defer tabCancel()
	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, timeout)
	defer timeoutCancel()
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var (
		html     string
		location string
	)
	actions := chromedp.Tasks{network.Enable()}
	if ua := strings.TrimSpace(opts.UserAgent); ua != "" {
		actions = append(actions, emulation.SetUserAgentOverride(ua))
	}
	if len(opts.Headers) > 0 {
		headers := make(network.Headers, len(opts.Headers))
		for k, v := range opts.Headers {
			headers[k] = v
		}
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}
	actions = append(actions, chromedp.Navigate(url))
	if sel := strings.TrimSpace(opts.WaitSelector); sel != "" {
		actions = append(actions, chromedp.WaitVisible(sel, chromedp.ByQuery))
	} else {
		actions = append(actions, chromedp.WaitReady("body", chromedp.ByQuery))
	}
	actions = append(actions,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)

	if err := chromedp.Run(tabCtx, actions); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: chrome %s: %v", ErrNavigation, url, err)
	}
	if location == "" {
		location = url
	}

	page, err := NewPage(location, html)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	return page, nil
}

// Close shuts the browser down.
func (r *ChromeRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCancel != nil {
		r.browserCancel()
	}
	if r.allocCancel != nil {
		r.allocCancel()
	}
	r.browserCtx = nil
	r.browserCancel = nil
	r.allocCancel = nil
	return nil
}
