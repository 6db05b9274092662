package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/samvad-hq/samvad-site-harvester/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS articles (
	url          TEXT PRIMARY KEY,
	id           TEXT NOT NULL,
	title        TEXT NOT NULL,
	source       TEXT NOT NULL,
	content      TEXT NOT NULL,
	summary      TEXT NOT NULL DEFAULT '',
	author       TEXT NOT NULL DEFAULT '',
	published_at TEXT,
	crawled_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS crawl_runs (
	id                TEXT PRIMARY KEY,
	source            TEXT NOT NULL,
	status            TEXT NOT NULL,
	articles_found    INTEGER NOT NULL,
	articles_saved    INTEGER NOT NULL,
	summaries_written INTEGER NOT NULL,
	error_message     TEXT NOT NULL DEFAULT '',
	started_at        TEXT NOT NULL,
	finished_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_crawl_runs_started_at ON crawl_runs (started_at);
`

// sqliteStore implements Store on a local SQLite file.
type sqliteStore struct {
	db           *sql.DB
	runRetention time.Duration
	now          func() time.Time
}

func openSQLite(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer keeps the check-and-insert free of SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	return &sqliteStore{db: db, runRetention: opts.RunRetention, now: time.Now}, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM articles WHERE url = ?`, url).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("lookup article: %w", err)
	}
	return true, nil
}

func (s *sqliteStore) SaveIfNotExists(ctx context.Context, a domain.Article) (bool, error) {
	var published sql.NullString
	if a.PublishedAt != nil {
		published = sql.NullString{String: formatTime(*a.PublishedAt), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO articles (url, id, title, source, content, summary, author, published_at, crawled_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.URL, a.ID, a.Title, a.Source, a.Content, a.Summary, a.Author, published,
		formatTime(a.CrawledAt), formatTime(a.UpdatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("save article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save article: %w", err)
	}
	return n == 1, nil
}

func (s *sqliteStore) UpdateSummary(ctx context.Context, url, summary string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE articles SET summary = ?, updated_at = ? WHERE url = ?`,
		summary, formatTime(s.now()), url)
	if err != nil {
		return fmt.Errorf("update summary: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update summary %s: %w", url, ErrNotFound)
	}
	return nil
}

func (s *sqliteStore) RecordRun(ctx context.Context, run domain.CrawlRunLog) error {
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO crawl_runs (id, source, status, articles_found, articles_saved, summaries_written, error_message, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, string(run.Status), run.ArticlesFound, run.ArticlesSaved, run.SummariesWritten,
		run.ErrorMessage, formatTime(run.StartedAt), formatTime(run.FinishedAt),
	); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	cutoff := formatTime(s.now().Add(-s.runRetention))
	if _, err := s.db.ExecContext(ctx, `DELETE FROM crawl_runs WHERE started_at < ?`, cutoff); err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}
	return nil
}

// formatTime stores UTC with fixed-width fractions so text order matches time order.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}
