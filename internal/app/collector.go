package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/samvad-site-harvester/internal/config"
	"github.com/samvad-hq/samvad-site-harvester/internal/domain"
	"github.com/samvad-hq/samvad-site-harvester/internal/logger"
	"github.com/samvad-hq/samvad-site-harvester/pkg/sites"
)

// Collector crawls sites once without touching storage, publishers or the summarizer.
// It backs the dry-run command used to check selectors against live pages.
type Collector struct {
	registry *sites.Registry
	crawler  siteCrawler
	log      logger.Logger
}

// NewCollector builds a collector runtime from config files.
func NewCollector(cfg *config.Config, log logger.Logger) (*Collector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)

	reg, err := sites.LoadRegistry(cfg.SitesFile)
	if err != nil {
		return nil, fmt.Errorf("load sites registry: %w", err)
	}
	for _, w := range reg.Warnings() {
		log.WarnObj("sites registry warning", "sites_warning", w)
	}

	c, err := newCrawler(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Collector{registry: reg, crawler: c, log: log}, nil
}

// Collect crawls the named site, or every enabled site when name is empty. A named
// site is crawled even if it is disabled.
func (c *Collector) Collect(ctx context.Context, name string) ([]domain.Article, error) {
	if c == nil || c.crawler == nil {
		return nil, fmt.Errorf("collector is not initialized")
	}

	targets := c.registry.Enabled()
	if name != "" {
		site, ok := c.registry.ByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown site %q", name)
		}
		targets = []sites.Site{site}
	}

	var (
		out  []domain.Article
		errs []error
	)
	for _, site := range targets {
		articles, err := c.crawler.Crawl(ctx, site)
		out = append(out, articles...)
		c.log.InfoObj("site collected", "collect_meta", map[string]any{
			"site":     site.Name,
			"articles": len(articles),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("site %s: %w", site.Name, err))
			if ctx.Err() != nil {
				break
			}
		}
	}
	return out, errors.Join(errs...)
}

// Close releases the renderer session.
func (c *Collector) Close() error {
	if c == nil || c.crawler == nil {
		return nil
	}
	return c.crawler.Close()
}
