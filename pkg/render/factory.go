package render

import (
	"fmt"
	"strings"
	"time"
)

const (
	KindHTTP   = "http"
	KindChrome = "chrome"
)

// Factory opens renderer sessions. Each Crawler asks for its own.
type Factory func() (Renderer, error)

// FactoryOptions selects and tunes the renderer kind.
type FactoryOptions struct {
	Kind           string
	Timeout        time.Duration
	ChromeExecPath string
	ChromeHeadless bool
}

// NewFactory returns a Factory for the configured renderer kind.
func NewFactory(opts FactoryOptions) (Factory, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case "", KindHTTP:
		return func() (Renderer, error) {
			return NewHTTPRenderer(nil, opts.Timeout), nil
		}, nil
	case KindChrome, "chromedp":
		return func() (Renderer, error) {
			return NewChromeRenderer(ChromeOptions{
				ExecPath: opts.ChromeExecPath,
				Headless: opts.ChromeHeadless,
				Timeout:  opts.Timeout,
			}), nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported renderer %q", opts.Kind)
	}
}
