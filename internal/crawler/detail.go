package crawler

import (
	"context"
	"time"

	"github.com/samvad-hq/samvad-site-harvester/internal/domain"
	"github.com/samvad-hq/samvad-site-harvester/internal/logger"
	"github.com/samvad-hq/samvad-site-harvester/pkg/dates"
	"github.com/samvad-hq/samvad-site-harvester/pkg/render"
	"github.com/samvad-hq/samvad-site-harvester/pkg/sites"
)

// DetailExtractor builds an Article from an article page and its list-page candidate.
type DetailExtractor struct {
	content ContentExtractor
	dates   *dates.Normalizer
	now     Clock
	log     logger.Logger
}

// NewDetailExtractor wires a DetailExtractor. A nil clock uses time.Now.
func NewDetailExtractor(content ContentExtractor, normalizer *dates.Normalizer, now Clock, log logger.Logger) *DetailExtractor {
	if normalizer == nil {
		normalizer = dates.NewNormalizer(time.UTC)
	}
	if now == nil {
		now = time.Now
	}
	return &DetailExtractor{content: content, dates: normalizer, now: now, log: logger.Ensure(log)}
}

// Extract loads url and fills an Article. It returns false only when the page could not be loaded;
// completeness is for the caller to judge.
func (d *DetailExtractor) Extract(ctx context.Context, r render.Renderer, url string, site sites.Site, cand *domain.CandidateSummary) (*domain.Article, bool) {
	page, err := r.Navigate(ctx, url, navigateOptions(site))
	if err != nil {
		d.log.WarnObj("detail page unavailable", "detail_error", map[string]any{
			"site":  site.Name,
			"url":   url,
			"error": err.Error(),
		})
		return nil, false
	}

	dp := site.DetailPage
	now := d.now().UTC()
	art := &domain.Article{
		ID:        domain.ArticleID(url),
		URL:       url,
		Source:    site.Name,
		CrawledAt: now,
		UpdatedAt: now,
	}

	if el := firstMatch(page, dp.TitleSelector); el != nil {
		art.Title = el.Text()
	}
	if art.Title == "" && cand != nil {
		art.Title = cand.Title
	}

	art.Content = d.content.Extract(page, site)

	if el := firstMatch(page, dp.AuthorSelector); el != nil {
		art.Author = el.Text()
		if art.Author == "" {
			art.Author, _ = el.Attr("content")
		}
	}

	art.PublishedAt = d.publishDate(page, dp, cand)
	return art, true
}

// publishDate tries the detail page first and the list-page raw date second.
func (d *DetailExtractor) publishDate(page render.Page, dp sites.DetailPage, cand *domain.CandidateSummary) *time.Time {
	if el := firstMatch(page, dp.DateSelector); el != nil {
		for _, raw := range dateCandidates(el) {
			if t, ok := d.dates.Normalize(raw); ok {
				return &t
			}
		}
	}
	if cand != nil && cand.RawDate != "" {
		if t, ok := d.dates.Normalize(cand.RawDate); ok {
			return &t
		}
	}
	return nil
}

func dateCandidates(el render.Element) []string {
	out := make([]string, 0, 3)
	if txt := el.Text(); txt != "" {
		out = append(out, txt)
	}
	for _, attr := range []string{"datetime", "content"} {
		if v, ok := el.Attr(attr); ok && v != "" {
			out = append(out, v)
		}
	}
	return out
}
