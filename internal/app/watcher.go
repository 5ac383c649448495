package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Cyrix126/doli-client-api-go/internal/config"
	"github.com/Cyrix126/doli-client-api-go/internal/logger"
	"github.com/Cyrix126/doli-client-api-go/internal/metrics"
	"github.com/Cyrix126/doli-client-api-go/internal/storage"
	"github.com/Cyrix126/doli-client-api-go/internal/watcher"
	"github.com/Cyrix126/doli-client-api-go/pkg/publishers"
	"github.com/prometheus/client_golang/prometheus"
)

// Watcher is the change watcher runtime. It runs watcher passes on a ticker
// and owns the fingerprint store and the publishers.
type Watcher struct {
	cfg          *config.Config
	fanout       *publishers.Fanout
	service      *watcher.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
	metricsAddr  string
	gatherer     prometheus.Gatherer
}

// NewWatcher builds a watcher runtime from config.
func NewWatcher(ctx context.Context, cfg *config.Config, log *logger.ZapLogger) (*Watcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var l logger.Logger = &logger.NopLogger{}
	if log != nil {
		l = log
	}

	client, err := NewClient(ctx, cfg, nil, log)
	if err != nil {
		return nil, err
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	fanout, err := publishers.DefaultRegistry().BuildFanout(ctx, enabledPublishers, l)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	publisherSummaries := make([]map[string]any, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]any{
			"id":    pubCfg.ID,
			"type":  pubCfg.Type,
			"kinds": pubCfg.KindFilter(),
		})
	}
	routes := make(map[string][]string, len(publishers.KnownKinds))
	for _, kind := range publishers.KnownKinds {
		routes[kind] = fanout.Routes(kind)
	}
	l.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
		"routes":     routes,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		TTL:             cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	l.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"ttl_seconds":              int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)

	service := watcher.NewService(client, fanout, store, l, rec, watcher.Options{
		Source:       client.BaseURL(),
		RequestDelay: cfg.RequestDelay,
		Customers:    cfg.WatchCustomers,
	})

	return &Watcher{
		cfg:          cfg,
		fanout:       fanout,
		service:      service,
		pollInterval: cfg.PollInterval,
		log:          l,
		store:        store,
		metricsAddr:  cfg.MetricsAddr,
		gatherer:     reg,
	}, nil
}

// Run starts the poll loop until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.service == nil {
		return fmt.Errorf("watcher is not initialized")
	}
	defer w.close()

	if w.metricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, w.metricsAddr, w.gatherer); err != nil {
				w.log.ErrorObj("metrics listener stopped", "error", err)
			}
		}()
	}

	w.log.InfoObj("watcher loop starting", "watcher_state", map[string]any{
		"publishers_count":  w.fanout.Size(),
		"watched_customers": w.cfg.WatchCustomers,
		"poll_interval":     w.pollInterval.String(),
	})

	if err := w.runOnce(ctx); err != nil {
		w.log.ErrorObj("initial pass failed", "error", err)
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.InfoObj("watcher loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := w.runOnce(ctx); err != nil {
				w.log.ErrorObj("scheduled pass failed", "error", err)
			}
		}
	}
}

// runOnce performs a single watcher pass.
func (w *Watcher) runOnce(ctx context.Context) error {
	start := time.Now()
	w.log.InfoObj("pass started", "pass_meta", map[string]any{
		"started_at": start.UTC(),
	})
	if err := w.service.Run(ctx); err != nil {
		return err
	}
	w.log.InfoObj("pass completed", "pass_meta", map[string]any{
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// close releases the store and publishers, logging any errors encountered.
func (w *Watcher) close() {
	if w.store != nil {
		if err := w.store.Close(); err != nil {
			w.log.ErrorObj("storage close failed", "error", err)
		}
	}
	if err := w.fanout.Close(); err != nil {
		w.log.ErrorObj("publishers close failed", "error", err)
	}
}
