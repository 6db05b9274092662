package crawler

import (
	"strconv"
	"strings"

	"github.com/samvad-hq/samvad-site-harvester/pkg/sites"
)

// ResolvePages lists the index pages to visit for site, in order.
func ResolvePages(site sites.Site) []string {
	p := site.Pagination
	if p == nil || !p.Enabled || strings.TrimSpace(p.URLPattern) == "" {
		return []string{site.URL}
	}

	start := p.StartPage
	if start <= 0 {
		start = 1
	}
	end := p.MaxPages
	if end < start {
		end = start
	}

	pages := make([]string, 0, end-start+1)
	for n := start; n <= end; n++ {
		raw := strings.ReplaceAll(p.URLPattern, sites.PagePlaceholder, strconv.Itoa(n))
		if resolved := site.ResolveURL(raw); resolved != "" {
			raw = resolved
		}
		pages = append(pages, raw)
	}
	return pages
}
