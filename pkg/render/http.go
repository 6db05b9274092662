package render

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-site-harvester/pkg/httpclient"
)

const maxHTMLBodyBytes = 4 << 20 // 4 MiB

// HTTPRenderer fetches static HTML with resty. WaitSelector is checked after parsing.
type HTTPRenderer struct {
	client httpclient.Client
}

// NewHTTPRenderer builds a renderer over client, or a default resty client when nil.
// The default client refuses bodies over 4 MiB while reading them.
func NewHTTPRenderer(client httpclient.Client, timeout time.Duration) *HTTPRenderer {
	if client == nil {
		client = httpclient.NewRestyClient(httpclient.Options{
			Timeout:      timeout,
			MaxBodyBytes: maxHTMLBodyBytes,
		})
	}
	return &HTTPRenderer{client: client}
}

// Navigate GETs url and parses the body.
func (r *HTTPRenderer) Navigate(ctx context.Context, url string, opts NavigateOptions) (Page, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	headers := make(map[string]string, len(opts.Headers)+1)
	for k, v := range opts.Headers {
		headers[k] = v
	}
	if ua := strings.TrimSpace(opts.UserAgent); ua != "" {
		headers["User-Agent"] = ua
	}

	resp, err := r.client.Get(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", ErrNavigation, url, err)
	}
	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d body: %s", ErrNavigation, url, resp.StatusCode(), snippet(body))
	}

	page, err := NewPage(resp.FinalURL(), string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	if sel := strings.TrimSpace(opts.WaitSelector); sel != "" && len(page.Query(sel)) == 0 {
		return nil, fmt.Errorf("%w: %s has no element matching %q", ErrNavigation, url, sel)
	}
	return page, nil
}

// Close is a no-op; the resty client holds no session.
func (r *HTTPRenderer) Close() error { return nil }

func snippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "<empty>"
	}
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
