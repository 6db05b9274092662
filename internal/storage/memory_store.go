package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/samvad-hq/samvad-site-harvester/internal/domain"
)

// memoryStore keeps articles in process memory. Useful for dry runs; nothing survives a restart.
type memoryStore struct {
	mu           sync.Mutex
	articles     *cache.Cache
	runs         *cache.Cache
	runRetention time.Duration
	now          func() time.Time
}

func newMemoryStore(opts Options) *memoryStore {
	return &memoryStore{
		articles:     cache.New(cache.NoExpiration, 0),
		runs:         cache.New(opts.RunRetention, opts.CleanupInterval),
		runRetention: opts.RunRetention,
		now:          time.Now,
	}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := m.articles.Get(url)
	return ok, nil
}

// SaveIfNotExists uses cache.Add, which fails when the key is present.
func (m *memoryStore) SaveIfNotExists(ctx context.Context, a domain.Article) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := m.articles.Add(a.URL, a, cache.NoExpiration); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *memoryStore) UpdateSummary(ctx context.Context, url, summary string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.articles.Get(url)
	if !ok {
		return fmt.Errorf("update summary %s: %w", url, ErrNotFound)
	}
	a := v.(domain.Article)
	a.Summary = summary
	a.UpdatedAt = m.now().UTC()
	return m.articles.Replace(url, a, cache.NoExpiration)
}

func (m *memoryStore) RecordRun(ctx context.Context, run domain.CrawlRunLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.runs.Set(run.ID, run, m.runRetention)
	return nil
}

func (m *memoryStore) article(url string) (domain.Article, bool) {
	v, ok := m.articles.Get(url)
	if !ok {
		return domain.Article{}, false
	}
	return v.(domain.Article), true
}
