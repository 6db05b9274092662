package crawler

import (
	"context"
	"errors"
	"time"
)

// ErrPageUnavailable marks a list page that could not be loaded. The crawl moves on to the next page.
var ErrPageUnavailable = errors.New("page unavailable")

// MainContentExtractor isolates the article body from a full HTML document.
type MainContentExtractor interface {
	ExtractMainContent(html, baseURL string) (string, bool)
}

// Clock supplies crawl timestamps.
type Clock func() time.Time

// waitFunc pauses between detail fetches, returning early with ctx.Err() on cancellation.
type waitFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
