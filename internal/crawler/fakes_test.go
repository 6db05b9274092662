package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-site-harvester/pkg/render"
)

// fakeRenderer serves canned HTML by URL and records every navigation.
type fakeRenderer struct {
	mu      sync.Mutex
	pages   map[string]string
	visited []string
	closed  bool
	err     error
}

func newFakeRenderer(pages map[string]string) *fakeRenderer {
	return &fakeRenderer{pages: pages}
}

func (f *fakeRenderer) Navigate(_ context.Context, url string, _ render.NavigateOptions) (render.Page, error) {
	f.mu.Lock()
	f.visited = append(f.visited, url)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	html, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s returned status 404", render.ErrNavigation, url)
	}
	return render.NewPage(url, html)
}

func (f *fakeRenderer) Close() error {
	f.closed = true
	return nil
}

func (f *fakeRenderer) visits() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.visited...)
}

func (f *fakeRenderer) factory() render.Factory {
	return func() (render.Renderer, error) { return f, nil }
}

type stubMainContent struct {
	text string
	ok   bool
	got  []string
}

func (s *stubMainContent) ExtractMainContent(_ string, baseURL string) (string, bool) {
	s.got = append(s.got, baseURL)
	return s.text, s.ok
}

func noWait(context.Context, time.Duration) error { return nil }
