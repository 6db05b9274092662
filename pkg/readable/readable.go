// Package readable strips page chrome (navigation, ads, footers) and keeps the main article text.
package readable

import (
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Extractor implements main-content extraction with go-readability.
type Extractor struct{}

// New returns a readability-backed extractor.
func New() Extractor { return Extractor{} }

// ExtractMainContent returns the article body text of html. The bool is false when nothing usable was found.
func (Extractor) ExtractMainContent(html, baseURL string) (string, bool) {
	if strings.TrimSpace(html) == "" {
		return "", false
	}

	var pageURL *url.URL
	if u, err := url.Parse(strings.TrimSpace(baseURL)); err == nil && u.Scheme != "" {
		pageURL = u
	}

	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return "", false
	}

	text := normalizeWhitespace(article.TextContent)
	if text == "" {
		return "", false
	}
	return text, true
}

// normalizeWhitespace collapses runs of blank lines and trims each line.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
