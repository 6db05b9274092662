package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/samvad-site-harvester/internal/domain"
	"github.com/samvad-hq/samvad-site-harvester/internal/storage"
	"github.com/samvad-hq/samvad-site-harvester/internal/summarizer"
	"github.com/samvad-hq/samvad-site-harvester/pkg/publishers"
	"github.com/samvad-hq/samvad-site-harvester/pkg/sites"
)

// runSite takes one site through crawl, persist, publish and summarize and records
// exactly one run log for it.
func (h *Harvester) runSite(ctx context.Context, site sites.Site) domain.CrawlRunLog {
	run := domain.NewRunLog(site.Name, h.now())
	// Persistence and run recording outlive a shutdown signal so a partial run is not lost.
	durable := context.WithoutCancel(ctx)

	articles, crawlErr := h.crawler.Crawl(ctx, site)
	run.ArticlesFound = len(articles)
	cancelled := crawlErr != nil && ctx.Err() != nil
	if crawlErr != nil && !cancelled {
		return h.finish(durable, run, domain.RunStatusFailed, fmt.Errorf("crawl: %w", crawlErr))
	}

	saved, err := h.persist(durable, site, articles)
	run.ArticlesSaved = len(saved)
	if err != nil {
		return h.finish(durable, run, domain.RunStatusFailed, err)
	}
	h.publish(durable, site, saved)

	if cancelled {
		return h.finish(durable, run, interruptedStatus(run), crawlErr)
	}

	result := h.summarizer.SummarizeBatch(ctx, saved)
	written, err := h.writeSummaries(durable, site, result)
	run.SummariesWritten = written
	if err != nil {
		return h.finish(durable, run, domain.RunStatusFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return h.finish(durable, run, interruptedStatus(run), err)
	}
	return h.finish(durable, run, domain.RunStatusSuccess, nil)
}

func interruptedStatus(run domain.CrawlRunLog) domain.RunStatus {
	if run.ArticlesSaved > 0 {
		return domain.RunStatusPartial
	}
	return domain.RunStatusFailed
}

// persist stores articles whose URL is not yet known and returns the ones actually created.
func (h *Harvester) persist(ctx context.Context, site sites.Site, articles []domain.Article) ([]domain.Article, error) {
	saved := make([]domain.Article, 0, len(articles))
	skipped := 0
	for _, art := range articles {
		exists, err := h.store.ExistsByURL(ctx, art.URL)
		if err != nil {
			return saved, fmt.Errorf("check article %s: %w", art.URL, err)
		}
		if exists {
			skipped++
			continue
		}

		inserted, err := h.store.SaveIfNotExists(ctx, art)
		if err != nil {
			return saved, fmt.Errorf("save article %s: %w", art.URL, err)
		}
		if !inserted {
			skipped++
			continue
		}
		saved = append(saved, art)
	}

	h.log.DebugObj("articles persisted", "persist_meta", map[string]any{
		"site":    site.Name,
		"saved":   len(saved),
		"skipped": skipped,
	})
	return saved, nil
}

// publish announces new articles. Delivery failures are logged and never fail the run.
func (h *Harvester) publish(ctx context.Context, site sites.Site, saved []domain.Article) {
	if h.fanout == nil || h.fanout.Size() == 0 {
		return
	}
	for _, art := range saved {
		delivered, err := h.fanout.Publish(ctx, publishers.NewEvent(site.Name, art))
		if err != nil {
			h.log.WarnObj("article event delivery failed", "publish_error", map[string]any{
				"site":      site.Name,
				"url":       art.URL,
				"delivered": delivered,
				"error":     err.Error(),
			})
		}
	}
}

// writeSummaries stores every summary produced and returns how many were written.
func (h *Harvester) writeSummaries(ctx context.Context, site sites.Site, result summarizer.BatchResult) (int, error) {
	written := 0
	for url, summary := range result.Summaries {
		if err := h.store.UpdateSummary(ctx, url, summary); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				h.log.WarnObj("summary target missing", "summary_url", url)
				continue
			}
			return written, fmt.Errorf("update summary %s: %w", url, err)
		}
		written++
	}

	if len(result.Throttled) > 0 || len(result.Failed) > 0 {
		h.log.WarnObj("summaries omitted", "summary_meta", map[string]any{
			"site":      site.Name,
			"throttled": result.Throttled,
			"failed":    result.Failed,
		})
	}
	return written, nil
}

// finish finalizes and records the run log. A recording failure is logged, not returned.
func (h *Harvester) finish(ctx context.Context, run domain.CrawlRunLog, status domain.RunStatus, runErr error) domain.CrawlRunLog {
	run = run.Finish(status, runErr, h.now())
	if err := h.store.RecordRun(ctx, run); err != nil {
		h.log.ErrorObj("record run failed", "run_error", map[string]any{
			"site":   run.Source,
			"run_id": run.ID,
			"error":  err.Error(),
		})
	}

	fields := map[string]any{
		"site":              run.Source,
		"run_id":            run.ID,
		"status":            run.Status,
		"articles_found":    run.ArticlesFound,
		"articles_saved":    run.ArticlesSaved,
		"summaries_written": run.SummariesWritten,
		"elapsed_ms":        run.Duration().Milliseconds(),
	}
	if run.ErrorMessage != "" {
		fields["error"] = run.ErrorMessage
		h.log.ErrorObj("site run finished", "run_meta", fields)
		return run
	}
	h.log.InfoObj("site run finished", "run_meta", fields)
	return run
}
