package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/samvad-site-harvester/internal/config"
	"github.com/samvad-hq/samvad-site-harvester/internal/crawler"
	"github.com/samvad-hq/samvad-site-harvester/internal/domain"
	"github.com/samvad-hq/samvad-site-harvester/internal/logger"
	"github.com/samvad-hq/samvad-site-harvester/internal/storage"
	"github.com/samvad-hq/samvad-site-harvester/internal/summarizer"
	"github.com/samvad-hq/samvad-site-harvester/pkg/dates"
	"github.com/samvad-hq/samvad-site-harvester/pkg/publishers"
	"github.com/samvad-hq/samvad-site-harvester/pkg/readable"
	"github.com/samvad-hq/samvad-site-harvester/pkg/render"
	"github.com/samvad-hq/samvad-site-harvester/pkg/sites"
)

// siteCrawler is the part of crawler.Crawler the harvester drives.
type siteCrawler interface {
	Crawl(ctx context.Context, site sites.Site) ([]domain.Article, error)
	Close() error
}

type batchSummarizer interface {
	SummarizeBatch(ctx context.Context, articles []domain.Article) summarizer.BatchResult
}

type eventSink interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
	Size() int
	Close() error
}

// Harvester represents the site harvester runtime. It runs every enabled site through
// crawl, persist, publish and summarize, then records one run log per site.
type Harvester struct {
	sites         []sites.Site
	sitesFile     string
	crawler       siteCrawler
	store         storage.Store
	fanout        eventSink
	summarizer    batchSummarizer
	crawlInterval time.Duration
	runOnce       bool
	log           logger.Logger
	now           func() time.Time
}

// NewHarvester builds a harvester runtime from config files.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	siteReg, err := sites.LoadRegistry(cfg.SitesFile)
	if err != nil {
		return nil, fmt.Errorf("load sites registry: %w", err)
	}
	for _, w := range siteReg.Warnings() {
		log.WarnObj("sites registry warning", "sites_warning", w)
	}
	enabled := siteReg.Enabled()
	names := make([]string, 0, len(enabled))
	for _, s := range enabled {
		names = append(names, s.Name)
	}
	log.InfoObj("sites registry loaded", "sites_meta", map[string]any{
		"count":   len(siteReg.All()),
		"enabled": names,
	})

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, storage.Options{
		BBoltPath:       cfg.BBoltPath,
		SQLitePath:      cfg.SQLitePath,
		RedisAddr:       cfg.RedisAddr,
		RedisPassword:   cfg.RedisPassword,
		RedisDB:         cfg.RedisDB,
		RunRetention:    cfg.RunRetention,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"run_retention_seconds":    int(cfg.RunRetention.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	c, err := newCrawler(cfg, log)
	if err != nil {
		_ = fanout.Close()
		_ = store.Close()
		return nil, err
	}

	return &Harvester{
		sites:         enabled,
		sitesFile:     cfg.SitesFile,
		crawler:       c,
		store:         store,
		fanout:        fanout,
		summarizer:    newSummarizer(cfg, log),
		crawlInterval: cfg.CrawlInterval,
		runOnce:       cfg.RunOnce,
		log:           log,
		now:           time.Now,
	}, nil
}

func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	publisherReg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

func newCrawler(cfg *config.Config, log logger.Logger) (*crawler.Crawler, error) {
	factory, err := render.NewFactory(render.FactoryOptions{
		Kind:           cfg.Renderer,
		Timeout:        cfg.RenderTimeout,
		ChromeExecPath: cfg.ChromeExecPath,
		ChromeHeadless: cfg.ChromeHeadless,
	})
	if err != nil {
		return nil, fmt.Errorf("init renderer: %w", err)
	}
	return crawler.New(factory, readable.New(), dates.NewNormalizer(cfg.Location), log), nil
}

func newSummarizer(cfg *config.Config, log logger.Logger) *summarizer.Client {
	s := cfg.Summarizer
	var backend summarizer.Backend
	if s.APIKey != "" {
		backend = summarizer.NewChatBackend(s.BaseURL, s.APIKey, s.Model, s.Timeout)
	} else {
		log.WarnObj("summarizer api key not set; summaries disabled", "summarizer_model", s.Model)
	}
	return summarizer.New(backend, summarizer.Options{
		CallDelay:     s.CallDelay,
		Backoff:       s.Backoff,
		MaxRetries:    s.MaxRetries,
		ContentBudget: s.ContentBudget,
		MinWords:      s.MinWords,
		MaxWords:      s.MaxWords,
	}, log)
}

// Run starts the crawl loop until the context is cancelled, or returns after one
// pass when run_once is set.
func (h *Harvester) Run(ctx context.Context) error {
	if h == nil || h.crawler == nil || h.store == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()

	if len(h.sites) == 0 {
		h.log.WarnObj("no sites enabled; harvester idle", "sites_file", h.sitesFile)
		if h.runOnce {
			return nil
		}
		<-ctx.Done()
		return nil
	}

	h.log.InfoObj("harvester loop starting", "harvester_state", map[string]any{
		"sites_count":      len(h.sites),
		"publishers_count": h.fanout.Size(),
		"crawl_interval":   h.crawlInterval.String(),
		"run_once":         h.runOnce,
	})

	h.runPass(ctx)
	if h.runOnce {
		return nil
	}

	ticker := time.NewTicker(h.crawlInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoObj("harvester loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			h.runPass(ctx)
		}
	}
}

// runPass crawls every enabled site in turn. A failing site never stops the others.
func (h *Harvester) runPass(ctx context.Context) []domain.CrawlRunLog {
	start := h.now()
	h.log.InfoObj("crawl pass started", "crawl_meta", map[string]any{
		"sites_count": len(h.sites),
		"started_at":  start.UTC(),
	})

	runs := make([]domain.CrawlRunLog, 0, len(h.sites))
	for _, site := range h.sites {
		if ctx.Err() != nil {
			break
		}
		runs = append(runs, h.runSite(ctx, site))
	}

	h.log.InfoObj("crawl pass completed", "crawl_meta", map[string]any{
		"sites_count": len(runs),
		"elapsed_ms":  h.now().Sub(start).Milliseconds(),
	})
	return runs
}

// close releases the crawler, the store and the publishers, logging any errors encountered.
func (h *Harvester) close() {
	if err := h.crawler.Close(); err != nil {
		h.log.ErrorObj("crawler close failed", "error", err)
	}
	if err := h.store.Close(); err != nil {
		h.log.ErrorObj("storage close failed", "error", err)
	}
	if h.fanout != nil {
		if err := h.fanout.Close(); err != nil {
			h.log.ErrorObj("publishers close failed", "error", err)
		}
	}
}
