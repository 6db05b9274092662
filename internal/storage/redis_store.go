package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samvad-hq/samvad-site-harvester/internal/domain"
)

const (
	redisArticlePrefix = "harvester:article:"
	redisRunPrefix     = "harvester:run:"
	redisPingTimeout   = 5 * time.Second
)

// redisStore implements Store on Redis, one JSON value per article URL.
type redisStore struct {
	client       *redis.Client
	runRetention time.Duration
	now          func() time.Time
}

func openRedis(opts Options) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.RedisAddr, err)
	}

	return &redisStore{client: client, runRetention: opts.RunRetention, now: time.Now}, nil
}

func (r *redisStore) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *redisStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	n, err := r.client.Exists(ctx, redisArticlePrefix+url).Result()
	if err != nil {
		return false, fmt.Errorf("lookup article: %w", err)
	}
	return n > 0, nil
}

// SaveIfNotExists relies on SETNX for the atomic check-and-insert.
func (r *redisStore) SaveIfNotExists(ctx context.Context, a domain.Article) (bool, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return false, fmt.Errorf("marshal article: %w", err)
	}
	created, err := r.client.SetNX(ctx, redisArticlePrefix+a.URL, payload, 0).Result()
	if err != nil {
		return false, fmt.Errorf("save article: %w", err)
	}
	return created, nil
}

func (r *redisStore) UpdateSummary(ctx context.Context, url, summary string) error {
	key := redisArticlePrefix + url
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("update summary %s: %w", url, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load article: %w", err)
	}

	var a domain.Article
	if err := json.Unmarshal(raw, &a); err != nil {
		return fmt.Errorf("decode article %s: %w", url, err)
	}
	a.Summary = summary
	a.UpdatedAt = r.now().UTC()

	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal article: %w", err)
	}
	ok, err := r.client.SetXX(ctx, key, payload, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("update summary: %w", err)
	}
	if !ok {
		return fmt.Errorf("update summary %s: %w", url, ErrNotFound)
	}
	return nil
}

// RecordRun stores the run log with the retention window as its TTL.
func (r *redisStore) RecordRun(ctx context.Context, run domain.CrawlRunLog) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run log: %w", err)
	}
	if err := r.client.Set(ctx, redisRunPrefix+run.ID, payload, r.runRetention).Err(); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}
