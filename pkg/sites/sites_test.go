package sites

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write sites file: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	path := writeFile(t, "sites.yaml", `
sites:
  - name: example-news
    url: https://news.example.com/latest
    request_delay_ms: 750
    user_agent: harvester-test
    max_articles: 5
    headers:
      accept_language: zh-CN
      x-custom: "  yes "
      user-agent: ignored
    list_page:
      article_selector: li.item
      title_selector: a
      link_selector: a
      date_selector: .date
    detail_page:
      title_selector: h1
      content_selector: .article-body
    pagination:
      enabled: true
      url_pattern: /latest?page={page}
      max_pages: 3
  - name: disabled-site
    url: https://other.example.com/
    enabled: false
    list_page:
      mode: feed
    detail_page:
      title_selector: h1
      use_readability: true
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(reg.All()) != 2 {
		t.Fatalf("expected 2 sites, got %d", len(reg.All()))
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].Name != "example-news" {
		t.Fatalf("unexpected enabled sites %#v", enabled)
	}

	s, ok := reg.ByName("example-news")
	if !ok {
		t.Fatalf("expected example-news to be loaded")
	}
	if s.BaseURL != "https://news.example.com" {
		t.Fatalf("expected base url derived from url, got %q", s.BaseURL)
	}
	if s.RequestDelay() != 750*time.Millisecond {
		t.Fatalf("unexpected request delay %v", s.RequestDelay())
	}
	if s.ListPage.Mode != ListModeHTML {
		t.Fatalf("expected default html mode, got %q", s.ListPage.Mode)
	}
	if s.Pagination.StartPage != 1 || s.Pagination.MaxPages != 3 {
		t.Fatalf("unexpected pagination %#v", s.Pagination)
	}

	headers := RequestHeaders(s)
	if headers["Accept-Language"] != "zh-CN" || headers["X-Custom"] != "yes" {
		t.Fatalf("unexpected headers %#v", headers)
	}
	if _, ok := headers["User-Agent"]; ok {
		t.Fatalf("user agent must come from user_agent only")
	}

	other, _ := reg.ByName("disabled-site")
	if other.RequestDelay() != time.Second {
		t.Fatalf("expected default delay of 1s, got %v", other.RequestDelay())
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeFile(t, "sites.json", `{"sites":[{"name":"j","url":"https://j.example.com/list",
"list_page":{"mode":"sitemap"},"detail_page":{"title_selector":"h1","content_selector":"article"}}]}`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if s, _ := reg.ByName("j"); s.ListPage.Mode != ListModeSitemap {
		t.Fatalf("unexpected mode %q", s.ListPage.Mode)
	}
}

func TestNewRegistryRejectsInvalidSites(t *testing.T) {
	valid := func() Site {
		return Site{
			Name:       "s",
			URL:        "https://s.example.com",
			ListPage:   ListPage{ArticleSelector: ".a", LinkSelector: "a"},
			DetailPage: DetailPage{TitleSelector: "h1", ContentSelector: ".body"},
		}
	}

	cases := map[string]func(*Site){
		"missing name":             func(s *Site) { s.Name = "" },
		"relative url":             func(s *Site) { s.URL = "/news" },
		"missing article selector": func(s *Site) { s.ListPage.ArticleSelector = " " },
		"missing link selector":    func(s *Site) { s.ListPage.LinkSelector = "" },
		"missing title selector":   func(s *Site) { s.DetailPage.TitleSelector = "" },
		"missing content selector": func(s *Site) { s.DetailPage.ContentSelector = "" },
		"unknown list mode":        func(s *Site) { s.ListPage.Mode = "graphql" },
	}
	for name, mutate := range cases {
		s := valid()
		mutate(&s)
		if _, err := NewRegistry([]Site{s}); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}

	s := valid()
	s.DetailPage.ContentSelector = ""
	s.DetailPage.UseReadability = true
	if _, err := NewRegistry([]Site{s}); err != nil {
		t.Fatalf("readability sites need no content selector: %v", err)
	}

	if _, err := NewRegistry([]Site{valid(), valid()}); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}

func TestNewRegistryWarnsOnPatternWithoutPlaceholder(t *testing.T) {
	s := Site{
		Name:       "s",
		URL:        "https://s.example.com",
		ListPage:   ListPage{ArticleSelector: ".a", LinkSelector: "a"},
		DetailPage: DetailPage{TitleSelector: "h1", ContentSelector: ".body"},
		Pagination: &Pagination{Enabled: true, URLPattern: "/news/page", MaxPages: 2},
	}
	reg, err := NewRegistry([]Site{s})
	if err != nil {
		t.Fatalf("malformed patterns must not be rejected: %v", err)
	}
	warnings := reg.Warnings()
	if len(warnings) != 1 || !strings.Contains(warnings[0], PagePlaceholder) {
		t.Fatalf("expected placeholder warning, got %v", warnings)
	}
}

func TestResolveURL(t *testing.T) {
	s := Site{BaseURL: "https://example.com/news/"}
	cases := map[string]string{
		"/a/1":                  "https://example.com/a/1",
		"story.html":            "https://example.com/news/story.html",
		"https://other.com/x":   "https://other.com/x",
		"":                      "",
		"#top":                  "",
		"javascript:void(0)":    "",
		"//cdn.example.com/p/2": "https://cdn.example.com/p/2",
	}
	for in, want := range cases {
		if got := s.ResolveURL(in); got != want {
			t.Fatalf("ResolveURL(%q) = %q, want %q", in, got, want)
		}
	}
}
