// Package storage is the dedup gateway for articles and the sink for crawl run logs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-site-harvester/internal/domain"
)

// ErrNotFound is returned when an update targets an article that was never saved.
var ErrNotFound = errors.New("article not found")

// Store persists articles keyed by exact URL and records crawl runs.
type Store interface {
	ExistsByURL(ctx context.Context, url string) (bool, error)
	// SaveIfNotExists inserts the article unless its URL is already stored. The check and
	// insert are one atomic step; the bool reports whether a record was created.
	SaveIfNotExists(ctx context.Context, article domain.Article) (bool, error)
	UpdateSummary(ctx context.Context, url, summary string) error
	RecordRun(ctx context.Context, run domain.CrawlRunLog) error
	Close() error
}

const (
	TypeBBolt  = "bbolt"
	TypeSQLite = "sqlite"
	TypeRedis  = "redis"
	TypeMemory = "memory"
	TypeNone   = "none"
)

// Options carries backend locations and run-log retention.
type Options struct {
	BBoltPath     string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RunRetention    time.Duration
	CleanupInterval time.Duration
}

const (
	defaultRunRetention    = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case TypeNone, "disabled":
		return noopStore{}, nil
	case "", TypeBBolt:
		if strings.TrimSpace(opts.BBoltPath) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(opts.BBoltPath, opts)
	case TypeSQLite:
		if strings.TrimSpace(opts.SQLitePath) == "" {
			return nil, fmt.Errorf("sqlite storage requires a path")
		}
		return openSQLite(opts.SQLitePath, opts)
	case TypeRedis:
		if strings.TrimSpace(opts.RedisAddr) == "" {
			return nil, fmt.Errorf("redis storage requires an address")
		}
		return openRedis(opts)
	case TypeMemory:
		return newMemoryStore(opts), nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.RunRetention <= 0 {
		opts.RunRetention = defaultRunRetention
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// noopStore remembers nothing: every article is new and every run is dropped.
type noopStore struct{}

func (noopStore) ExistsByURL(context.Context, string) (bool, error)             { return false, nil }
func (noopStore) SaveIfNotExists(context.Context, domain.Article) (bool, error) { return true, nil }
func (noopStore) UpdateSummary(context.Context, string, string) error           { return nil }
func (noopStore) RecordRun(context.Context, domain.CrawlRunLog) error           { return nil }
func (noopStore) Close() error                                                  { return nil }
