package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/samvad-site-harvester/internal/domain"
	"github.com/samvad-hq/samvad-site-harvester/internal/logger"
	"github.com/samvad-hq/samvad-site-harvester/pkg/render"
	"github.com/samvad-hq/samvad-site-harvester/pkg/sites"
)

// ListExtractor turns an index page into candidate summaries.
type ListExtractor struct {
	log logger.Logger
}

// NewListExtractor returns a ListExtractor logging item failures to log.
func NewListExtractor(log logger.Logger) *ListExtractor {
	return &ListExtractor{log: logger.Ensure(log)}
}

// Extract loads pageURL and reads candidates according to the site's list mode.
// A page that cannot be loaded yields an error wrapping ErrPageUnavailable; any other
// renderer error (a browser that will not start, cancellation) is returned as is.
func (l *ListExtractor) Extract(ctx context.Context, r render.Renderer, pageURL string, site sites.Site) ([]domain.CandidateSummary, error) {
	page, err := r.Navigate(ctx, pageURL, navigateOptions(site))
	if err != nil {
		if errors.Is(err, render.ErrNavigation) {
			return nil, fmt.Errorf("%w: %s: %w", ErrPageUnavailable, pageURL, err)
		}
		return nil, err
	}

	switch site.ListPage.Mode {
	case sites.ListModeFeed:
		return l.fromFeed(page, site)
	case sites.ListModeSitemap:
		return l.fromSitemap(page, site)
	default:
		return l.fromHTML(page, site), nil
	}
}

func (l *ListExtractor) fromHTML(page render.Page, site sites.Site) []domain.CandidateSummary {
	items := page.Query(site.ListPage.ArticleSelector)
	out := make([]domain.CandidateSummary, 0, len(items))
	for i, item := range items {
		cand, ok := l.extractItem(item, site, i)
		if ok {
			out = append(out, cand)
		}
	}
	return out
}

// extractItem reads one list entry. Panics from selector evaluation are contained to the item.
func (l *ListExtractor) extractItem(item render.Element, site sites.Site, index int) (cand domain.CandidateSummary, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			l.log.WarnObj("list item extraction failed", "list_item_error", map[string]any{
				"site":  site.Name,
				"index": index,
				"error": fmt.Sprint(r),
			})
			cand, ok = domain.CandidateSummary{}, false
		}
	}()

	lp := site.ListPage

	link := firstMatch(item, lp.LinkSelector)
	if link == nil && item.Is(lp.LinkSelector) {
		link = item
	}
	if link == nil {
		return domain.CandidateSummary{}, false
	}
	href, _ := link.Attr("href")
	cand.URL = site.ResolveURL(href)
	if cand.URL == "" {
		return domain.CandidateSummary{}, false
	}

	// Own text only stands in when no title selector is configured.
	if lp.TitleSelector == "" {
		cand.Title = item.Text()
	} else if t := firstMatch(item, lp.TitleSelector); t != nil {
		cand.Title = t.Text()
	}
	if cand.Title == "" {
		return domain.CandidateSummary{}, false
	}

	cand.RawDate = dateText(firstMatch(item, lp.DateSelector), "datetime")
	if d := firstMatch(item, lp.DescriptionSelector); d != nil {
		cand.Description = d.Text()
	}
	return cand, true
}

func navigateOptions(site sites.Site) render.NavigateOptions {
	return render.NavigateOptions{
		WaitSelector: site.WaitSelector,
		Timeout:      site.NavigationTimeout(),
		UserAgent:    site.UserAgent,
		Headers:      sites.RequestHeaders(site),
	}
}

type queryable interface {
	Query(selector string) []render.Element
}

func firstMatch(scope queryable, selector string) render.Element {
	if strings.TrimSpace(selector) == "" {
		return nil
	}
	if found := scope.Query(selector); len(found) > 0 {
		return found[0]
	}
	return nil
}

// dateText prefers the visible text and falls back to the given attributes.
func dateText(el render.Element, attrs ...string) string {
	if el == nil {
		return ""
	}
	if txt := el.Text(); txt != "" {
		return txt
	}
	for _, a := range attrs {
		if v, ok := el.Attr(a); ok && v != "" {
			return v
		}
	}
	return ""
}
