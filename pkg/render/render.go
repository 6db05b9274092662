// Package render loads pages (plain HTTP or headless Chrome) and exposes a DOM query surface over them.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrNavigation marks a page that could not be loaded.
var ErrNavigation = errors.New("navigation failed")

// NavigateOptions tunes a single navigation.
type NavigateOptions struct {
	// WaitSelector is a CSS selector that must be present before the page is captured.
	WaitSelector string
	Timeout      time.Duration
	UserAgent    string
	Headers      map[string]string
}

// Renderer loads URLs into queryable pages. A Renderer is owned by a single caller.
type Renderer interface {
	Navigate(ctx context.Context, url string, opts NavigateOptions) (Page, error)
	Close() error
}

// Page is a loaded document.
type Page interface {
	URL() string
	HTML() string
	Query(selector string) []Element
}

// Element is one node of a loaded document.
type Element interface {
	Text() string
	Attr(name string) (string, bool)
	Query(selector string) []Element
	Is(selector string) bool
}

// NewPage parses html into a Page. Renderers and tests share it.
func NewPage(pageURL, html string) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &documentPage{url: pageURL, html: html, doc: doc}, nil
}

type documentPage struct {
	url  string
	html string
	doc  *goquery.Document
}

func (p *documentPage) URL() string  { return p.url }
func (p *documentPage) HTML() string { return p.html }

func (p *documentPage) Query(selector string) []Element {
	if strings.TrimSpace(selector) == "" {
		return nil
	}
	return wrapSelection(p.doc.Find(selector))
}

type selectionElement struct {
	sel *goquery.Selection
}

func wrapSelection(sel *goquery.Selection) []Element {
	if sel == nil || sel.Length() == 0 {
		return nil
	}
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, selectionElement{sel: s})
	})
	return out
}

func (e selectionElement) Text() string { return strings.TrimSpace(e.sel.Text()) }

func (e selectionElement) Attr(name string) (string, bool) {
	v, ok := e.sel.Attr(name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e selectionElement) Query(selector string) []Element {
	if strings.TrimSpace(selector) == "" {
		return nil
	}
	return wrapSelection(e.sel.Find(selector))
}

func (e selectionElement) Is(selector string) bool {
	if strings.TrimSpace(selector) == "" {
		return false
	}
	return e.sel.Is(selector)
}
