// Package sites loads the declarative per-site crawl configuration (YAML/JSON).
package sites

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ListModeHTML    = "html"
	ListModeFeed    = "feed"
	ListModeSitemap = "sitemap"

	PagePlaceholder = "{page}"

	defaultRequestDelayMs = 1000
	defaultStartPage      = 1
)

// Site describes how to crawl one news site. It is immutable once loaded.
type Site struct {
	Name           string            `json:"name" yaml:"name"`
	BaseURL        string            `json:"base_url" yaml:"base_url"`
	URL            string            `json:"url" yaml:"url"`
	Enabled        *bool             `json:"enabled" yaml:"enabled"`
	RequestDelayMs int               `json:"request_delay_ms" yaml:"request_delay_ms"`
	UserAgent      string            `json:"user_agent" yaml:"user_agent"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	MaxArticles    int               `json:"max_articles" yaml:"max_articles"`
	WaitSelector   string            `json:"wait_selector" yaml:"wait_selector"`
	TimeoutMs      int               `json:"timeout_ms" yaml:"timeout_ms"`
	ListPage       ListPage          `json:"list_page" yaml:"list_page"`
	DetailPage     DetailPage        `json:"detail_page" yaml:"detail_page"`
	Pagination     *Pagination       `json:"pagination" yaml:"pagination"`
}

// ListPage holds the selectors applied to index pages.
type ListPage struct {
	Mode                string `json:"mode" yaml:"mode"`
	ArticleSelector     string `json:"article_selector" yaml:"article_selector"`
	TitleSelector       string `json:"title_selector" yaml:"title_selector"`
	LinkSelector        string `json:"link_selector" yaml:"link_selector"`
	DateSelector        string `json:"date_selector" yaml:"date_selector"`
	DescriptionSelector string `json:"description_selector" yaml:"description_selector"`
}

// DetailPage holds the selectors applied to article pages.
type DetailPage struct {
	TitleSelector   string `json:"title_selector" yaml:"title_selector"`
	ContentSelector string `json:"content_selector" yaml:"content_selector"`
	AuthorSelector  string `json:"author_selector" yaml:"author_selector"`
	DateSelector    string `json:"date_selector" yaml:"date_selector"`
	UseReadability  bool   `json:"use_readability" yaml:"use_readability"`
}

// Pagination enumerates list pages from a URL pattern.
type Pagination struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	URLPattern string `json:"url_pattern" yaml:"url_pattern"`
	StartPage  int    `json:"start_page" yaml:"start_page"`
	MaxPages   int    `json:"max_pages" yaml:"max_pages"`
	// NextSelector is accepted but not followed.
	NextSelector string `json:"next_selector" yaml:"next_selector"`
}

type configFile struct {
	Sites []Site `json:"sites" yaml:"sites"`
}

// Registry is the validated set of sites from one config file.
type Registry struct {
	sites    []Site
	idx      map[string]Site
	warnings []string
}

// LoadRegistry reads, sanitizes and validates the sites file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sites file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sites file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}

	cf, err := parseConfigFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewRegistry(cf.Sites)
}

// NewRegistry validates sites and builds a Registry from them.
func NewRegistry(in []Site) (*Registry, error) {
	if len(in) == 0 {
		return nil, errors.New("sites file contains no sites entries")
	}

	reg := &Registry{
		sites: make([]Site, len(in)),
		idx:   make(map[string]Site, len(in)),
	}
	for i := range in {
		s := sanitizeSite(in[i])
		if err := validateSite(s); err != nil {
			return nil, fmt.Errorf("sites[%d]: %w", i, err)
		}
		if _, exists := reg.idx[s.Name]; exists {
			return nil, fmt.Errorf("duplicate site name %q", s.Name)
		}
		if p := s.Pagination; p != nil && p.Enabled && p.URLPattern != "" && !strings.Contains(p.URLPattern, PagePlaceholder) {
			reg.warnings = append(reg.warnings, fmt.Sprintf("site %q: pagination url_pattern has no %s placeholder", s.Name, PagePlaceholder))
		}
		if p := s.Pagination; p != nil && p.NextSelector != "" {
			reg.warnings = append(reg.warnings, fmt.Sprintf("site %q: pagination next_selector is not followed", s.Name))
		}
		reg.sites[i] = s
		reg.idx[s.Name] = s
	}
	return reg, nil
}

func parseConfigFile(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var cf configFile
		if err := d.fn(data, &cf); err != nil {
			errs = append(errs, fmt.Errorf("decode %s sites: %w", d.name, err))
			continue
		}
		return cf, nil
	}
	if len(errs) > 0 {
		return configFile{}, errors.Join(errs...)
	}
	return configFile{}, errors.New("sites file format not recognized (expected YAML or JSON)")
}

func sanitizeSite(s Site) Site {
	s.Name = strings.TrimSpace(s.Name)
	s.URL = strings.TrimSpace(s.URL)
	s.BaseURL = strings.TrimSpace(s.BaseURL)
	if s.BaseURL == "" {
		s.BaseURL = originOf(s.URL)
	}
	s.UserAgent = strings.TrimSpace(s.UserAgent)
	s.WaitSelector = strings.TrimSpace(s.WaitSelector)
	s.Headers = sanitizeHeaders(s.Headers)
	if s.Enabled == nil {
		def := true
		s.Enabled = &def
	}
	if s.RequestDelayMs <= 0 {
		s.RequestDelayMs = defaultRequestDelayMs
	}
	if s.MaxArticles < 0 {
		s.MaxArticles = 0
	}

	lp := &s.ListPage
	lp.Mode = strings.ToLower(strings.TrimSpace(lp.Mode))
	if lp.Mode == "" {
		lp.Mode = ListModeHTML
	}
	lp.ArticleSelector = strings.TrimSpace(lp.ArticleSelector)
	lp.TitleSelector = strings.TrimSpace(lp.TitleSelector)
	lp.LinkSelector = strings.TrimSpace(lp.LinkSelector)
	lp.DateSelector = strings.TrimSpace(lp.DateSelector)
	lp.DescriptionSelector = strings.TrimSpace(lp.DescriptionSelector)

	dp := &s.DetailPage
	dp.TitleSelector = strings.TrimSpace(dp.TitleSelector)
	dp.ContentSelector = strings.TrimSpace(dp.ContentSelector)
	dp.AuthorSelector = strings.TrimSpace(dp.AuthorSelector)
	dp.DateSelector = strings.TrimSpace(dp.DateSelector)

	if s.Pagination != nil {
		p := *s.Pagination
		p.URLPattern = strings.TrimSpace(p.URLPattern)
		p.NextSelector = strings.TrimSpace(p.NextSelector)
		if p.StartPage <= 0 {
			p.StartPage = defaultStartPage
		}
		if p.MaxPages < p.StartPage {
			p.MaxPages = p.StartPage
		}
		s.Pagination = &p
	}
	return s
}

func validateSite(s Site) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.URL == "" {
		return fmt.Errorf("url is required for site %q", s.Name)
	}
	if !isAbsolute(s.URL) {
		return fmt.Errorf("url %q for site %q must be absolute", s.URL, s.Name)
	}
	if !isAbsolute(s.BaseURL) {
		return fmt.Errorf("base_url %q for site %q must be absolute", s.BaseURL, s.Name)
	}

	switch s.ListPage.Mode {
	case ListModeHTML:
		if s.ListPage.ArticleSelector == "" {
			return fmt.Errorf("list_page.article_selector is required for site %q", s.Name)
		}
		if s.ListPage.LinkSelector == "" {
			return fmt.Errorf("list_page.link_selector is required for site %q", s.Name)
		}
	case ListModeFeed, ListModeSitemap:
	default:
		return fmt.Errorf("unsupported list_page.mode %q for site %q", s.ListPage.Mode, s.Name)
	}

	if s.DetailPage.TitleSelector == "" {
		return fmt.Errorf("detail_page.title_selector is required for site %q", s.Name)
	}
	if !s.DetailPage.UseReadability && s.DetailPage.ContentSelector == "" {
		return fmt.Errorf("detail_page.content_selector is required for site %q unless use_readability is set", s.Name)
	}
	return nil
}

// All returns a copy of all loaded sites in file order.
func (r *Registry) All() []Site {
	if r == nil {
		return nil
	}
	out := make([]Site, len(r.sites))
	copy(out, r.sites)
	return out
}

// Enabled returns the sites that are switched on.
func (r *Registry) Enabled() []Site {
	all := r.All()
	out := make([]Site, 0, len(all))
	for _, s := range all {
		if s.EnabledValue() {
			out = append(out, s)
		}
	}
	return out
}

// ByName returns the site with the given name, if loaded.
func (r *Registry) ByName(name string) (Site, bool) {
	if r == nil {
		return Site{}, false
	}
	s, ok := r.idx[strings.TrimSpace(name)]
	return s, ok
}

// Warnings lists non-fatal config problems found at load.
func (r *Registry) Warnings() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.warnings...)
}

// EnabledValue returns the enabled flag defaulting to true.
func (s Site) EnabledValue() bool {
	if s.Enabled == nil {
		return true
	}
	return *s.Enabled
}

// RequestDelay returns the pause between detail fetches.
func (s Site) RequestDelay() time.Duration {
	if s.RequestDelayMs <= 0 {
		return time.Duration(defaultRequestDelayMs) * time.Millisecond
	}
	return time.Duration(s.RequestDelayMs) * time.Millisecond
}

// NavigationTimeout returns the per-page timeout, zero meaning the renderer default.
func (s Site) NavigationTimeout() time.Duration {
	if s.TimeoutMs <= 0 {
		return 0
	}
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// ResolveURL resolves ref against the site base URL. Empty or unparsable refs yield "".
func (s Site) ResolveURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(strings.ToLower(ref), "javascript:") {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return u.String()
	}
	base, err := url.Parse(s.BaseURL)
	if err != nil || !base.IsAbs() {
		return ""
	}
	return base.ResolveReference(u).String()
}

func isAbsolute(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs() && u.Host != ""
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
