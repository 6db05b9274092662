package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-site-harvester/internal/domain"
	"github.com/samvad-hq/samvad-site-harvester/internal/logger"
	"golang.org/x/time/rate"
)

// Options tunes prompting, pacing and retry.
type Options struct {
	CallDelay     time.Duration
	Backoff       time.Duration
	MaxRetries    int
	ContentBudget int
	MinWords      int
	MaxWords      int
}

// BatchResult is the outcome of one SummarizeBatch call. Summaries is keyed by article URL.
type BatchResult struct {
	Summaries map[string]string
	// Throttled lists URLs whose summary was omitted after retries ran out.
	Throttled []string
	// Failed lists URLs whose backend call failed for another reason.
	Failed []string
}

// Client summarizes article batches one call at a time.
type Client struct {
	backend Backend
	opts    Options
	limiter *rate.Limiter
	log     logger.Logger
	wait    func(ctx context.Context, d time.Duration) error
}

// New returns a Client. A nil backend makes every batch a no-op.
func New(backend Backend, opts Options, log logger.Logger) *Client {
	if opts.ContentBudget <= 0 {
		opts.ContentBudget = 4000
	}
	if opts.MinWords <= 0 {
		opts.MinWords = 100
	}
	if opts.MaxWords < opts.MinWords {
		opts.MaxWords = opts.MinWords
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	limit := rate.Inf
	if opts.CallDelay > 0 {
		limit = rate.Every(opts.CallDelay)
	}
	return &Client{
		backend: backend,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		log:     logger.Ensure(log),
		wait:    sleepCtx,
	}
}

// Enabled reports whether a backend is configured.
func (c *Client) Enabled() bool { return c != nil && c.backend != nil }

// SummarizeBatch summarizes articles in input order. Articles without content are skipped.
func (c *Client) SummarizeBatch(ctx context.Context, articles []domain.Article) BatchResult {
	res := BatchResult{Summaries: make(map[string]string)}
	if !c.Enabled() {
		return res
	}

	for _, a := range articles {
		if ctx.Err() != nil {
			break
		}
		if strings.TrimSpace(a.Content) == "" {
			continue
		}

		summary, err := c.summarizeOne(ctx, a)
		switch {
		case err == nil:
			if summary != "" {
				res.Summaries[a.URL] = summary
			}
		case errors.Is(err, ErrRateLimited):
			res.Throttled = append(res.Throttled, a.URL)
			c.log.WarnObj("summary omitted after rate limiting", "summarizer_throttled", map[string]any{
				"url":     a.URL,
				"retries": c.opts.MaxRetries,
			})
		case ctx.Err() != nil:
			return res
		default:
			res.Failed = append(res.Failed, a.URL)
			c.log.ErrorObj("summary failed", "summarizer_error", map[string]any{
				"url":   a.URL,
				"error": err.Error(),
			})
		}
	}
	return res
}

// summarizeOne calls the backend, retrying rate-limited attempts up to MaxRetries times.
func (c *Client) summarizeOne(ctx context.Context, a domain.Article) (string, error) {
	prompt := BuildPrompt(a, c.opts)

	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, c.opts.Backoff); err != nil {
				return "", err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("pace summarizer: %w", err)
		}

		summary, err := c.backend.Summarize(ctx, prompt)
		if err == nil {
			return summary, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return "", err
		}
		lastErr = err
		c.log.DebugObj("summarizer rate limited", "summarizer_backoff", map[string]any{
			"url":     a.URL,
			"attempt": attempt + 1,
			"backoff": c.opts.Backoff.String(),
		})
	}
	return "", lastErr
}

// BuildPrompt renders the bounded summarization prompt for a. The instruction follows the article.
func BuildPrompt(a domain.Article, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", strings.TrimSpace(a.Title))
	if author := strings.TrimSpace(a.Author); author != "" {
		fmt.Fprintf(&b, "Author: %s\n", author)
	}
	if a.PublishedAt != nil {
		fmt.Fprintf(&b, "Published: %s\n", a.PublishedAt.Format("2006-01-02"))
	}
	b.WriteString("\n")
	b.WriteString(truncateRunes(strings.TrimSpace(a.Content), opts.ContentBudget))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Summarize the news article above in %d to %d words. ", opts.MinWords, opts.MaxWords)
	b.WriteString("Reply with the summary only, in the language of the article.")
	return b.String()
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

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
