package httpclient

import "context"

// Response is the part of an HTTP response page loaders care about.
type Response interface {
	Body() []byte
	StatusCode() int
	// FinalURL is the URL after redirects, or the requested URL when unknown.
	FinalURL() string
}

// Client abstracts HTTP GETs so renderers can be tested with fakes.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
