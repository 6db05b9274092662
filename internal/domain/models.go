// Package domain contains core models shared by the crawler, storage and summarizer.
package domain

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CandidateSummary is an article stub read from a list page. It never leaves the crawl pass that produced it.
type CandidateSummary struct {
	Title       string
	URL         string
	RawDate     string
	Description string
}

// Article is the durable unit persisted by the storage gateway. URL is the identity key.
type Article struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	Content     string     `json:"content"`
	Summary     string     `json:"summary,omitempty"`
	Author      string     `json:"author,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CrawledAt   time.Time  `json:"crawled_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Complete reports whether the article carries both a title and a body.
func (a Article) Complete() bool {
	return strings.TrimSpace(a.Title) != "" && strings.TrimSpace(a.Content) != ""
}

// ArticleID derives the stable article id from its URL.
func ArticleID(u string) string {
	sum := sha1.Sum([]byte(u))
	return hex.EncodeToString(sum[:])
}

// RunStatus is the terminal state of a crawl run.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
	RunStatusPartial RunStatus = "partial"
)

// CrawlRunLog records one orchestrator invocation for one site.
type CrawlRunLog struct {
	ID               string    `json:"id"`
	Source           string    `json:"source"`
	Status           RunStatus `json:"status"`
	ArticlesFound    int       `json:"articles_found"`
	ArticlesSaved    int       `json:"articles_saved"`
	SummariesWritten int       `json:"summaries_written"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

// NewRunLog opens a run log for source starting at now.
func NewRunLog(source string, now time.Time) CrawlRunLog {
	return CrawlRunLog{
		ID:        uuid.NewString(),
		Source:    source,
		StartedAt: now.UTC(),
	}
}

// Finish returns the finalized copy of the run log.
func (r CrawlRunLog) Finish(status RunStatus, runErr error, now time.Time) CrawlRunLog {
	r.Status = status
	r.FinishedAt = now.UTC()
	if runErr != nil {
		r.ErrorMessage = runErr.Error()
	}
	return r
}

// Duration returns the elapsed time of a finalized run.
func (r CrawlRunLog) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
