package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-site-harvester/internal/app"
	"github.com/samvad-hq/samvad-site-harvester/internal/config"
	"github.com/samvad-hq/samvad-site-harvester/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "site harvester failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("site harvester starting", "startup_config", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h, err := app.NewHarvester(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("site harvester wiring failed", "error", err)
		return fmt.Errorf("init harvester: %w", err)
	}

	if err := h.Run(ctx); err != nil {
		return fmt.Errorf("run harvester: %w", err)
	}
	logger.InfoObj("site harvester stopped", "run_once", cfg.RunOnce)
	return nil
}
