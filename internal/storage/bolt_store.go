package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/samvad-site-harvester/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const (
	articleBucket = "articles"
	runBucket     = "runs"
	runKeyTSBytes = 8
)

// boltStore implements Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	runRetention    time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{articleBucket, runBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	store := &boltStore{
		db:              db,
		runRetention:    opts.RunRetention,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// ExistsByURL reports whether an article with this exact URL is stored.
func (b *boltStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var exists bool
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(articleBucket))
		if bucket == nil {
			return fmt.Errorf("article bucket missing")
		}
		exists = bucket.Get([]byte(url)) != nil
		return nil
	})
	return exists, err
}

// SaveIfNotExists stores the article inside a single write transaction.
func (b *boltStore) SaveIfNotExists(ctx context.Context, article domain.Article) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	payload, err := json.Marshal(article)
	if err != nil {
		return false, fmt.Errorf("marshal article: %w", err)
	}

	var created bool
	err = b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(articleBucket))
		if bucket == nil {
			return fmt.Errorf("article bucket missing")
		}
		key := []byte(article.URL)
		if bucket.Get(key) != nil {
			return nil
		}
		created = true
		return bucket.Put(key, payload)
	})
	if err != nil {
		return false, fmt.Errorf("save article: %w", err)
	}
	return created, nil
}

// UpdateSummary rewrites the stored article with its summary.
func (b *boltStore) UpdateSummary(ctx context.Context, url, summary string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(articleBucket))
		if bucket == nil {
			return fmt.Errorf("article bucket missing")
		}
		key := []byte(url)
		raw := bucket.Get(key)
		if raw == nil {
			return fmt.Errorf("update summary %s: %w", url, ErrNotFound)
		}

		var art domain.Article
		if err := json.Unmarshal(raw, &art); err != nil {
			return fmt.Errorf("decode article %s: %w", url, err)
		}
		art.Summary = summary
		art.UpdatedAt = b.now().UTC()

		payload, err := json.Marshal(art)
		if err != nil {
			return fmt.Errorf("marshal article: %w", err)
		}
		return bucket.Put(key, payload)
	})
}

// RecordRun appends a run log keyed by its start time, then prunes old runs on the cleanup cadence.
func (b *boltStore) RecordRun(ctx context.Context, run domain.CrawlRunLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run log: %w", err)
	}

	if err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(runBucket))
		if bucket == nil {
			return fmt.Errorf("run bucket missing")
		}
		return bucket.Put(runKey(run), payload)
	}); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	return b.maybeCleanupRuns(b.now())
}

// runs returns all stored run logs in start order.
func (b *boltStore) runs() ([]domain.CrawlRunLog, error) {
	var out []domain.CrawlRunLog
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(runBucket))
		if bucket == nil {
			return fmt.Errorf("run bucket missing")
		}
		return bucket.ForEach(func(_, v []byte) error {
			var run domain.CrawlRunLog
			if err := json.Unmarshal(v, &run); err != nil {
				return err
			}
			out = append(out, run)
			return nil
		})
	})
	return out, err
}

// maybeCleanupRuns drops run logs older than the retention window on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupRuns(now time.Time) error {
	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	cutoff := now.Add(-b.runRetention)
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(runBucket))
		if bucket == nil {
			return fmt.Errorf("run bucket missing")
		}

		// Keys sort by start time, so stop at the first one inside the window.
		var expired [][]byte
		cursor := bucket.Cursor()
		for k, _ := cursor.First(); k != nil; k, _ = cursor.Next() {
			started, ok := decodeRunKeyTime(k)
			if ok && !started.Before(cutoff) {
				break
			}
			expired = append(expired, append([]byte(nil), k...))
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// runKey is the big-endian start time in nanoseconds followed by the run id.
func runKey(run domain.CrawlRunLog) []byte {
	key := make([]byte, runKeyTSBytes, runKeyTSBytes+len(run.ID))
	binary.BigEndian.PutUint64(key, uint64(run.StartedAt.UnixNano()))
	return append(key, run.ID...)
}

func decodeRunKeyTime(key []byte) (time.Time, bool) {
	if len(key) < runKeyTSBytes {
		return time.Time{}, false
	}
	nanos := int64(binary.BigEndian.Uint64(key[:runKeyTSBytes]))
	if nanos <= 0 {
		return time.Time{}, false
	}
	return time.Unix(0, nanos), true
}
