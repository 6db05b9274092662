package crawler

import (
	"github.com/samvad-hq/samvad-site-harvester/pkg/render"
	"github.com/samvad-hq/samvad-site-harvester/pkg/sites"
)

// ContentExtractor pulls the article body out of a detail page, either by selector or by boilerplate removal.
type ContentExtractor struct {
	main MainContentExtractor
}

// NewContentExtractor returns a ContentExtractor. main may be nil when no site uses readability.
func NewContentExtractor(main MainContentExtractor) ContentExtractor {
	return ContentExtractor{main: main}
}

// Extract returns the body text, or "" when nothing was found.
func (c ContentExtractor) Extract(page render.Page, site sites.Site) string {
	if site.DetailPage.UseReadability {
		if c.main == nil {
			return ""
		}
		text, ok := c.main.ExtractMainContent(page.HTML(), canonicalURL(page, site))
		if !ok {
			return ""
		}
		return text
	}

	if el := firstMatch(page, site.DetailPage.ContentSelector); el != nil {
		return el.Text()
	}
	return ""
}

func canonicalURL(page render.Page, site sites.Site) string {
	if link := firstMatch(page, `link[rel="canonical"]`); link != nil {
		if href, ok := link.Attr("href"); ok {
			if u := site.ResolveURL(href); u != "" {
				return u
			}
		}
	}
	return page.URL()
}
