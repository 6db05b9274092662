package crawler

import (
	"context"
	"errors"
	"testing"

	"github.com/samvad-hq/samvad-site-harvester/pkg/render"
	"github.com/samvad-hq/samvad-site-harvester/pkg/sites"
)

func listSite(mode string) sites.Site {
	return sites.Site{
		Name:    "ex",
		BaseURL: "https://ex.com",
		URL:     "https://ex.com/news",
		ListPage: sites.ListPage{
			Mode:                mode,
			ArticleSelector:     ".item",
			TitleSelector:       ".title",
			LinkSelector:        "a",
			DateSelector:        "time",
			DescriptionSelector: ".desc",
		},
	}
}

func TestListExtractorSkipsItemsWithoutLinks(t *testing.T) {
	html := `<div>
	<div class="item"><a href="/a/1"><span class="title">One</span></a><time datetime="2024-03-05"></time><p class="desc">d1</p></div>
	<div class="item"><a href="https://other.com/2"><b class="title">Two</b></a></div>
	<div class="item"><span class="title">No link here</span></div>
	</div>`
	r := newFakeRenderer(map[string]string{"https://ex.com/news": html})

	got, err := NewListExtractor(nil).Extract(context.Background(), r, "https://ex.com/news", listSite(sites.ListModeHTML))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %#v", len(got), got)
	}
	if got[0].URL != "https://ex.com/a/1" || got[0].Title != "One" || got[0].RawDate != "2024-03-05" || got[0].Description != "d1" {
		t.Fatalf("unexpected first candidate %#v", got[0])
	}
	if got[1].URL != "https://other.com/2" || got[1].Title != "Two" {
		t.Fatalf("unexpected second candidate %#v", got[1])
	}
}

func TestListExtractorDropsItemsWhoseTitleSelectorMisses(t *testing.T) {
	html := `<div>
	<div class="item"><a href="/a/1"><span class="title">One</span></a></div>
	<div class="item"><a href="/a/2">Read more</a><time>2024-01-01</time></div>
	<div class="item"><a href="/a/3"><span class="title">Three</span></a></div>
	</div>`
	r := newFakeRenderer(map[string]string{"https://ex.com/news": html})

	got, err := NewListExtractor(nil).Extract(context.Background(), r, "https://ex.com/news", listSite(sites.ListModeHTML))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 2 || got[0].URL != "https://ex.com/a/1" || got[1].URL != "https://ex.com/a/3" {
		t.Fatalf("expected only titled items, got %#v", got)
	}
	for _, c := range got {
		if c.Title == "Read more" || c.Title == "Read more2024-01-01" {
			t.Fatalf("item text leaked into title: %#v", c)
		}
	}
}

func TestListExtractorUsesElementItselfAsLink(t *testing.T) {
	html := `<ul><li><a class="item" href="/x">Self linked</a></li></ul>`
	r := newFakeRenderer(map[string]string{"https://ex.com/news": html})
	site := listSite(sites.ListModeHTML)
	site.ListPage.TitleSelector = ""

	got, err := NewListExtractor(nil).Extract(context.Background(), r, site.URL, site)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 1 || got[0].URL != "https://ex.com/x" || got[0].Title != "Self linked" {
		t.Fatalf("unexpected candidates %#v", got)
	}
}

func TestListExtractorNavigationFailure(t *testing.T) {
	r := newFakeRenderer(nil)

	got, err := NewListExtractor(nil).Extract(context.Background(), r, "https://ex.com/news", listSite(sites.ListModeHTML))
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %d", len(got))
	}
	if !errors.Is(err, ErrPageUnavailable) {
		t.Fatalf("expected ErrPageUnavailable, got %v", err)
	}
}

func TestListExtractorSessionFailureIsNotPageLevel(t *testing.T) {
	r := newFakeRenderer(nil)
	r.err = errors.New("chrome did not start")

	_, err := NewListExtractor(nil).Extract(context.Background(), r, "https://ex.com/news", listSite(sites.ListModeHTML))
	if err == nil || errors.Is(err, ErrPageUnavailable) {
		t.Fatalf("expected a run-level error, got %v", err)
	}
}

type panickyElement struct{ render.Element }

func (panickyElement) Query(string) []render.Element { panic("selector engine exploded") }
func (panickyElement) Is(string) bool                { return false }
func (panickyElement) Text() string                  { return "" }

func TestExtractItemRecoversFromPanics(t *testing.T) {
	l := NewListExtractor(nil)
	if _, ok := l.extractItem(panickyElement{}, listSite(sites.ListModeHTML), 0); ok {
		t.Fatalf("expected panicking item to be skipped")
	}
}

func TestListExtractorFeedMode(t *testing.T) {
	feed := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Ex</title>
<item><title>Feed one</title><link>https://ex.com/f/1</link><pubDate>Tue, 05 Mar 2024 10:00:00 GMT</pubDate><description>first</description></item>
<item><title></title><link>https://ex.com/f/2</link></item>
</channel></rss>`
	r := newFakeRenderer(map[string]string{"https://ex.com/feed": feed})

	got, err := NewListExtractor(nil).Extract(context.Background(), r, "https://ex.com/feed", listSite(sites.ListModeFeed))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %#v", got)
	}
	if got[0].Title != "Feed one" || got[0].URL != "https://ex.com/f/1" || got[0].Description != "first" {
		t.Fatalf("unexpected candidate %#v", got[0])
	}
	if got[0].RawDate != "2024-03-05T10:00:00Z" {
		t.Fatalf("unexpected raw date %q", got[0].RawDate)
	}
}

func TestListExtractorSitemapMode(t *testing.T) {
	sitemap := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:news="http://www.google.com/schemas/sitemap-news/0.9">
  <url>
    <loc>https://ex.com/s/1</loc>
    <news:news>
      <news:publication_date>2024-03-05T08:00:00+05:30</news:publication_date>
      <news:title>Sitemap one</news:title>
    </news:news>
  </url>
  <url><loc>https://ex.com/s/2</loc><lastmod>2024-03-04</lastmod></url>
  <url><loc></loc></url>
</urlset>`
	r := newFakeRenderer(map[string]string{"https://ex.com/sitemap.xml": sitemap})

	got, err := NewListExtractor(nil).Extract(context.Background(), r, "https://ex.com/sitemap.xml", listSite(sites.ListModeSitemap))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %#v", got)
	}
	if got[0].Title != "Sitemap one" || got[0].RawDate != "2024-03-05T08:00:00+05:30" {
		t.Fatalf("unexpected first candidate %#v", got[0])
	}
	if got[1].Title != "" || got[1].RawDate != "2024-03-04" {
		t.Fatalf("unexpected second candidate %#v", got[1])
	}
}

func TestListExtractorSitemapDecodeFailure(t *testing.T) {
	r := newFakeRenderer(map[string]string{"https://ex.com/sitemap.xml": "<urlset><url>"})
	_, err := NewListExtractor(nil).Extract(context.Background(), r, "https://ex.com/sitemap.xml", listSite(sites.ListModeSitemap))
	if !errors.Is(err, ErrPageUnavailable) {
		t.Fatalf("expected ErrPageUnavailable, got %v", err)
	}
}
