package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Cyrix126/doli-client-api-go/internal/app"
	"github.com/Cyrix126/doli-client-api-go/internal/config"
	"github.com/Cyrix126/doli-client-api-go/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "doli-watcher start failed: %v\n", err)
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

	log.InfoObj("doli-watcher starting", "config", map[string]any{
		"app_name":          cfg.AppName,
		"app_env":           cfg.Env,
		"api_url":           cfg.APIURL,
		"poll_interval":     cfg.PollInterval.String(),
		"watched_customers": cfg.WatchCustomers,
		"storage_type":      cfg.StorageType,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := app.NewWatcher(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize watcher", "error", err)
		return err
	}

	if err := watcher.Run(ctx); err != nil {
		return fmt.Errorf("watcher run: %w", err)
	}

	return nil
}
