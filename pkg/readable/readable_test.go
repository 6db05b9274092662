package readable

import (
	"strings"
	"testing"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Rain expected</title></head>
<body>
  <nav><a href="/">Home</a> <a href="/world">World</a></nav>
  <article>
    <h1>Rain expected across the region</h1>
    <p>Forecasters said on Tuesday that heavy rain is expected across the region for the rest of the week, with
    local flooding possible in low-lying districts near the river.</p>
    <p>Residents were advised to avoid unnecessary travel and to keep up with official updates, as the weather
    service could raise its warning level if rainfall totals continue to climb through Thursday evening.</p>
    <p>Schools in the affected districts will remain open for now, officials said, though that decision will be
    reviewed daily as conditions change and more information becomes available from the monitoring stations.</p>
  </article>
  <footer>Copyright 2024 Example News</footer>
</body></html>`

func TestExtractMainContentKeepsArticleBody(t *testing.T) {
	text, ok := New().ExtractMainContent(articleHTML, "https://example.com/news/rain")
	if !ok {
		t.Fatalf("expected main content")
	}
	if !strings.Contains(text, "heavy rain is expected") {
		t.Fatalf("article text missing: %q", text)
	}
	if strings.Contains(text, "Copyright 2024") {
		t.Fatalf("footer should be stripped: %q", text)
	}
}

func TestExtractMainContentEmptyInput(t *testing.T) {
	if _, ok := New().ExtractMainContent("   ", "https://example.com"); ok {
		t.Fatalf("expected no content for blank html")
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	got := normalizeWhitespace("\n  a  \n\n\n b\n")
	if got != "a\n\nb" {
		t.Fatalf("normalizeWhitespace = %q", got)
	}
}
