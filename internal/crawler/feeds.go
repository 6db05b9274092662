package crawler

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/samvad-hq/samvad-site-harvester/internal/domain"
	"github.com/samvad-hq/samvad-site-harvester/pkg/render"
	"github.com/samvad-hq/samvad-site-harvester/pkg/sites"
)

// fromFeed reads RSS/Atom items as candidates.
func (l *ListExtractor) fromFeed(page render.Page, site sites.Site) ([]domain.CandidateSummary, error) {
	feed, err := gofeed.NewParser().ParseString(page.HTML())
	if err != nil {
		return nil, fmt.Errorf("%w: parse feed %s: %w", ErrPageUnavailable, page.URL(), err)
	}

	out := make([]domain.CandidateSummary, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		link := site.ResolveURL(item.Link)
		title := strings.TrimSpace(item.Title)
		if link == "" || title == "" {
			continue
		}
		raw := strings.TrimSpace(item.Published)
		if item.PublishedParsed != nil {
			raw = item.PublishedParsed.Format(time.RFC3339)
		} else if raw == "" && item.UpdatedParsed != nil {
			raw = item.UpdatedParsed.Format(time.RFC3339)
		}
		out = append(out, domain.CandidateSummary{
			Title:       title,
			URL:         link,
			RawDate:     raw,
			Description: strings.TrimSpace(item.Description),
		})
	}
	return out, nil
}

type newsSitemap struct {
	URLs []newsSitemapURL `xml:"url"`
}

type newsSitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
	News    struct {
		Title           string `xml:"title"`
		PublicationDate string `xml:"publication_date"`
	} `xml:"news"`
}

func parseNewsSitemap(data []byte) ([]newsSitemapURL, error) {
	var sm newsSitemap
	if err := xml.Unmarshal(data, &sm); err != nil {
		return nil, err
	}
	return sm.URLs, nil
}

// fromSitemap reads a Google News sitemap. A missing news:title is left for the detail page to supply.
func (l *ListExtractor) fromSitemap(page render.Page, site sites.Site) ([]domain.CandidateSummary, error) {
	urls, err := parseNewsSitemap([]byte(page.HTML()))
	if err != nil {
		return nil, fmt.Errorf("%w: decode sitemap %s: %w", ErrPageUnavailable, page.URL(), err)
	}

	out := make([]domain.CandidateSummary, 0, len(urls))
	for _, entry := range urls {
		loc := site.ResolveURL(entry.Loc)
		if loc == "" {
			continue
		}
		raw := strings.TrimSpace(entry.News.PublicationDate)
		if raw == "" {
			raw = strings.TrimSpace(entry.LastMod)
		}
		out = append(out, domain.CandidateSummary{
			Title:   strings.TrimSpace(entry.News.Title),
			URL:     loc,
			RawDate: raw,
		})
	}
	return out, nil
}
