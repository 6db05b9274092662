package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-site-harvester/internal/app"
	"github.com/samvad-hq/samvad-site-harvester/internal/config"
	"github.com/samvad-hq/samvad-site-harvester/internal/logger"
)

func main() {
	site := flag.String("site", "", "crawl only this site (default: every enabled site)")
	flag.Parse()

	if err := run(*site); err != nil {
		fmt.Fprintf(os.Stderr, "collector failed: %v\n", err)
		os.Exit(1)
	}
}

func run(site string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("collector starting", "config", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector, err := app.NewCollector(cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize collector", "error", err)
		return err
	}
	defer collector.Close()

	articles, collectErr := collector.Collect(ctx, site)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(articles); err != nil {
		return fmt.Errorf("write articles: %w", err)
	}
	return collectErr
}
