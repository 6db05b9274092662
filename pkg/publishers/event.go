package publishers

import (
	"time"

	"github.com/samvad-hq/samvad-site-harvester/internal/domain"
)

// Event announces a newly stored article downstream.
type Event struct {
	Source      string         `json:"source"`
	Article     domain.Article `json:"article"`
	CollectedAt time.Time      `json:"collected_at"`
}

// NewEvent constructs an Event for an article saved from source.
func NewEvent(source string, article domain.Article) Event {
	return Event{
		Source:      source,
		Article:     article,
		CollectedAt: time.Now().UTC(),
	}
}

// key is the ordering/dedup key sinks can use.
func (e Event) key() string {
	if e.Article.ID != "" {
		return e.Article.ID
	}
	return domain.ArticleID(e.Article.URL)
}
