package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-site-harvester/pkg/dates"
	"github.com/samvad-hq/samvad-site-harvester/pkg/render"
	"github.com/samvad-hq/samvad-site-harvester/pkg/sites"
)

func crawlSite() sites.Site {
	return sites.Site{
		Name:    "ex",
		BaseURL: "https://ex.com",
		URL:     "https://ex.com/news",
		ListPage: sites.ListPage{
			Mode:            sites.ListModeHTML,
			ArticleSelector: ".item",
			LinkSelector:    "a",
		},
		DetailPage: sites.DetailPage{TitleSelector: "h1", ContentSelector: ".body"},
	}
}

func listPage(n int, prefix string) string {
	var b strings.Builder
	b.WriteString("<ul>")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<li class="item"><a href="/%s/%d">Story %d</a></li>`, prefix, i, i)
	}
	b.WriteString("</ul>")
	return b.String()
}

func articlePage(title, body string) string {
	return fmt.Sprintf(`<html><body><h1>%s</h1><div class="body">%s</div></body></html>`, title, body)
}

func newTestCrawler(r *fakeRenderer) *Crawler {
	c := New(r.factory(), nil, dates.NewNormalizer(time.UTC), nil)
	c.wait = noWait
	return c
}

func TestCrawlKeepsOnlyCompleteArticles(t *testing.T) {
	r := newFakeRenderer(map[string]string{
		"https://ex.com/news": listPage(4, "a"),
		"https://ex.com/a/1":  articlePage("One", "Body one"),
		"https://ex.com/a/2":  articlePage("Two", "   "),
		"https://ex.com/a/3":  `<html><body><div class="body">No title on page</div></body></html>`,
		// a/4 is missing: navigation fails
	})
	c := newTestCrawler(r)
	defer c.Close()

	got, err := c.Crawl(context.Background(), crawlSite())
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	// a/3 falls back to the list title "Story 3", so it is complete.
	if len(got) != 2 || got[0].URL != "https://ex.com/a/1" || got[1].Title != "Story 3" {
		t.Fatalf("unexpected batch %#v", got)
	}
	for _, a := range got {
		if !a.Complete() {
			t.Fatalf("incomplete article in batch: %#v", a)
		}
	}
}

func TestCrawlSitemapEntriesTakeTitleFromDetailPage(t *testing.T) {
	sitemap := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://ex.com/s/1</loc></url>
  <url><loc>https://ex.com/s/2</loc></url>
</urlset>`
	r := newFakeRenderer(map[string]string{
		"https://ex.com/sitemap.xml": sitemap,
		"https://ex.com/s/1":         articlePage("From detail", "Body"),
		"https://ex.com/s/2":         `<html><body><div class="body">Untitled</div></body></html>`,
	})
	c := newTestCrawler(r)
	defer c.Close()

	site := crawlSite()
	site.URL = "https://ex.com/sitemap.xml"
	site.ListPage = sites.ListPage{Mode: sites.ListModeSitemap}

	got, err := c.Crawl(context.Background(), site)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(got) != 1 || got[0].URL != "https://ex.com/s/1" || got[0].Title != "From detail" {
		t.Fatalf("expected only the titled detail page, got %#v", got)
	}
}

func TestCrawlEnforcesCap(t *testing.T) {
	pages := map[string]string{"https://ex.com/news": listPage(5, "a")}
	for i := 1; i <= 5; i++ {
		pages[fmt.Sprintf("https://ex.com/a/%d", i)] = articlePage(fmt.Sprintf("T%d", i), "body")
	}
	r := newFakeRenderer(pages)
	c := newTestCrawler(r)
	site := crawlSite()
	site.MaxArticles = 2

	got, err := c.Crawl(context.Background(), site)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
	for _, u := range r.visits() {
		for _, forbidden := range []string{"/a/3", "/a/4", "/a/5"} {
			if strings.HasSuffix(u, forbidden) {
				t.Fatalf("detail page %s fetched after cap reached", u)
			}
		}
	}
}

func TestCrawlCapStopsPagination(t *testing.T) {
	pages := map[string]string{
		"https://ex.com/p/1": listPage(1, "a"),
		"https://ex.com/p/2": listPage(1, "b"),
		"https://ex.com/a/1": articlePage("A", "body"),
		"https://ex.com/b/1": articlePage("B", "body"),
	}
	r := newFakeRenderer(pages)
	c := newTestCrawler(r)
	site := crawlSite()
	site.MaxArticles = 1
	site.Pagination = &sites.Pagination{Enabled: true, URLPattern: "/p/{page}", StartPage: 1, MaxPages: 2}

	got, err := c.Crawl(context.Background(), site)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 article, got %d", len(got))
	}
	for _, u := range r.visits() {
		if u == "https://ex.com/p/2" {
			t.Fatalf("second list page fetched after cap reached")
		}
	}
}

func TestCrawlSkipsUnavailableListPagesAndDuplicates(t *testing.T) {
	pages := map[string]string{
		"https://ex.com/p/2": listPage(2, "a"),
		"https://ex.com/p/3": listPage(2, "a"),
		"https://ex.com/a/1": articlePage("A1", "body"),
		"https://ex.com/a/2": articlePage("A2", "body"),
	}
	r := newFakeRenderer(pages)
	c := newTestCrawler(r)
	site := crawlSite()
	site.Pagination = &sites.Pagination{Enabled: true, URLPattern: "/p/{page}", StartPage: 1, MaxPages: 3}

	got, err := c.Crawl(context.Background(), site)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
	detailVisits := 0
	for _, u := range r.visits() {
		if strings.Contains(u, "/a/") {
			detailVisits++
		}
	}
	if detailVisits != 2 {
		t.Fatalf("expected each detail page fetched once, got %d visits", detailVisits)
	}
}

func TestCrawlWaitsAfterEachDetailFetch(t *testing.T) {
	r := newFakeRenderer(map[string]string{
		"https://ex.com/news": listPage(3, "a"),
		"https://ex.com/a/1":  articlePage("A", "body"),
		"https://ex.com/a/2":  articlePage("B", "body"),
	})
	c := newTestCrawler(r)
	var waits []time.Duration
	c.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	site := crawlSite()
	site.RequestDelayMs = 250

	if _, err := c.Crawl(context.Background(), site); err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(waits) != 3 {
		t.Fatalf("expected 3 waits, got %d", len(waits))
	}
	for _, d := range waits {
		if d != 250*time.Millisecond {
			t.Fatalf("unexpected delay %v", d)
		}
	}
}

func TestCrawlReturnsPartialBatchOnCancel(t *testing.T) {
	pages := map[string]string{"https://ex.com/news": listPage(3, "a")}
	for i := 1; i <= 3; i++ {
		pages[fmt.Sprintf("https://ex.com/a/%d", i)] = articlePage(fmt.Sprintf("T%d", i), "body")
	}
	r := newFakeRenderer(pages)
	c := newTestCrawler(r)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.wait = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	got, err := c.Crawl(ctx, crawlSite())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected the first article in the partial batch, got %d", len(got))
	}
}

func TestCrawlRendererSessionLifecycle(t *testing.T) {
	r := newFakeRenderer(map[string]string{"https://ex.com/news": "<ul></ul>"})
	opened := 0
	c := New(func() (render.Renderer, error) {
		opened++
		return r, nil
	}, nil, nil, nil)

	for i := 0; i < 2; i++ {
		if _, err := c.Crawl(context.Background(), crawlSite()); err != nil {
			t.Fatalf("Crawl: %v", err)
		}
	}
	if opened != 1 {
		t.Fatalf("expected one renderer session, opened %d", opened)
	}
	if err := c.Close(); err != nil || !r.closed {
		t.Fatalf("expected renderer closed, err=%v closed=%v", err, r.closed)
	}
}

func TestCrawlRunLevelFailures(t *testing.T) {
	c := New(func() (render.Renderer, error) { return nil, errors.New("no browser") }, nil, nil, nil)
	if _, err := c.Crawl(context.Background(), crawlSite()); err == nil {
		t.Fatalf("expected factory error")
	}

	r := newFakeRenderer(nil)
	r.err = errors.New("devtools connection lost")
	c = newTestCrawler(r)
	if _, err := c.Crawl(context.Background(), crawlSite()); err == nil {
		t.Fatalf("expected renderer session error to abort the crawl")
	}
}
