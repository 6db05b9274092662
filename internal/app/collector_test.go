package app

import (
	"context"
	"errors"
	"testing"

	"github.com/samvad-hq/samvad-site-harvester/internal/domain"
	"github.com/samvad-hq/samvad-site-harvester/internal/logger"
	"github.com/samvad-hq/samvad-site-harvester/pkg/sites"
)

func testRegistry(t *testing.T) *sites.Registry {
	t.Helper()
	off := false
	mk := func(name string) sites.Site {
		return sites.Site{
			Name:       name,
			URL:        "https://" + name + ".example.com/",
			ListPage:   sites.ListPage{Mode: sites.ListModeFeed},
			DetailPage: sites.DetailPage{TitleSelector: "h1", UseReadability: true},
		}
	}
	disabled := mk("c")
	disabled.Enabled = &off

	reg, err := sites.NewRegistry([]sites.Site{mk("a"), mk("b"), disabled})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func TestCollectEnabledSites(t *testing.T) {
	c := &fakeCrawler{
		batches: map[string][]domain.Article{
			"a": {article("https://a/1", "one")},
			"b": {article("https://b/1", "two")},
		},
		errs: map[string]error{"b": errors.New("boom")},
	}
	col := &Collector{registry: testRegistry(t), crawler: c, log: logger.NopLogger{}}

	got, err := col.Collect(context.Background(), "")
	if err == nil {
		t.Fatalf("expected the failing site to be reported")
	}
	if len(got) != 2 {
		t.Fatalf("expected articles from both sites, got %d", len(got))
	}
	if len(c.calls) != 2 || c.calls[0] != "a" || c.calls[1] != "b" {
		t.Fatalf("unexpected crawl order %v", c.calls)
	}
}

func TestCollectNamedSiteIncludesDisabled(t *testing.T) {
	c := &fakeCrawler{}
	col := &Collector{registry: testRegistry(t), crawler: c, log: logger.NopLogger{}}

	if _, err := col.Collect(context.Background(), "c"); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(c.calls) != 1 || c.calls[0] != "c" {
		t.Fatalf("unexpected calls %v", c.calls)
	}

	if _, err := col.Collect(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for unknown site")
	}
	if err := col.Close(); err != nil || !c.closed {
		t.Fatalf("Close should release the crawler")
	}
}
