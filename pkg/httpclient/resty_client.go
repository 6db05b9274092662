package httpclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "samvad-site-harvester/1.0"

// ErrBodyTooLarge is returned when a response exceeds Options.MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// Options configures the shared resty client. MaxBodyBytes <= 0 means no limit.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int
}

// RestyClient adapts resty.Client to the Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a Client backed by resty.
func NewRestyClient(opts Options) *RestyClient {
	return &RestyClient{client: NewRestyHTTPClient(opts)}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(opts Options) *resty.Client {
	c := resty.New()
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	c.SetHeader("User-Agent", ua)
	if opts.MaxBodyBytes > 0 {
		c.SetResponseBodyLimit(opts.MaxBodyBytes)
	}
	return c
}

// Get performs a GET with per-request headers layered over the client defaults.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		if errors.Is(err, resty.ErrResponseBodyTooLarge) {
			return nil, fmt.Errorf("%w: %s", ErrBodyTooLarge, url)
		}
		return nil, err
	}
	return &restyResponseAdapter{resp: resp, requested: url}, nil
}

type restyResponseAdapter struct {
	resp      *resty.Response
	requested string
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }

func (r *restyResponseAdapter) FinalURL() string {
	if raw := r.resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		return raw.Request.URL.String()
	}
	return r.requested
}
