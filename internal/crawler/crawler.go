package crawler

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/samvad-site-harvester/internal/domain"
	"github.com/samvad-hq/samvad-site-harvester/internal/logger"
	"github.com/samvad-hq/samvad-site-harvester/pkg/dates"
	"github.com/samvad-hq/samvad-site-harvester/pkg/render"
	"github.com/samvad-hq/samvad-site-harvester/pkg/sites"
)

// Crawler walks one site at a time: list pages, then each candidate's detail page.
// It owns a single renderer session, opened on first use and released by Close.
type Crawler struct {
	factory  render.Factory
	renderer render.Renderer
	list     *ListExtractor
	detail   *DetailExtractor
	log      logger.Logger
	wait     waitFunc
}

// New wires a Crawler.
func New(factory render.Factory, main MainContentExtractor, normalizer *dates.Normalizer, log logger.Logger) *Crawler {
	log = logger.Ensure(log)
	return &Crawler{
		factory: factory,
		list:    NewListExtractor(log),
		detail:  NewDetailExtractor(NewContentExtractor(main), normalizer, nil, log),
		log:     log,
		wait:    sleepCtx,
	}
}

func (c *Crawler) session() (render.Renderer, error) {
	if c.renderer != nil {
		return c.renderer, nil
	}
	if c.factory == nil {
		return nil, errors.New("crawler has no renderer factory")
	}
	r, err := c.factory()
	if err != nil {
		return nil, fmt.Errorf("open renderer: %w", err)
	}
	c.renderer = r
	return r, nil
}

// Crawl returns the complete articles found for site, in discovery order.
// On cancellation it returns what was collected so far together with ctx.Err().
func (c *Crawler) Crawl(ctx context.Context, site sites.Site) ([]domain.Article, error) {
	r, err := c.session()
	if err != nil {
		return nil, err
	}

	var (
		out  []domain.Article
		seen = make(map[string]struct{})
	)
	capped := func() bool { return site.MaxArticles > 0 && len(out) >= site.MaxArticles }

	for _, pageURL := range ResolvePages(site) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if capped() {
			break
		}

		candidates, err := c.list.Extract(ctx, r, pageURL, site)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return out, ctxErr
			}
			if !errors.Is(err, ErrPageUnavailable) {
				return out, fmt.Errorf("list page %s: %w", pageURL, err)
			}
			c.log.WarnObj("list page skipped", "list_page_error", map[string]any{
				"site":  site.Name,
				"url":   pageURL,
				"error": err.Error(),
			})
			continue
		}
		c.log.DebugObj("list page parsed", "list_page", map[string]any{
			"site":       site.Name,
			"url":        pageURL,
			"candidates": len(candidates),
		})

		for i := range candidates {
			cand := candidates[i]
			if err := ctx.Err(); err != nil {
				return out, err
			}
			if capped() {
				break
			}
			if _, dup := seen[cand.URL]; dup {
				continue
			}
			seen[cand.URL] = struct{}{}

			art, ok := c.detail.Extract(ctx, r, cand.URL, site, &cand)
			switch {
			case ok && art.Complete():
				out = append(out, *art)
			case ok:
				c.log.DebugObj("incomplete article dropped", "article_incomplete", map[string]any{
					"site":      site.Name,
					"url":       cand.URL,
					"has_title": art.Title != "",
				})
			}

			if err := c.wait(ctx, site.RequestDelay()); err != nil {
				return out, err
			}
		}
	}

	return out, nil
}

// Close releases the renderer session, if one was opened.
func (c *Crawler) Close() error {
	if c == nil || c.renderer == nil {
		return nil
	}
	err := c.renderer.Close()
	c.renderer = nil
	return err
}
