package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	clipworkers "clypzy/contexts/campaign-editorial/clip-service/application/workers"
	walletworkers "clypzy/contexts/finance-core/wallet-service/application/workers"
	contractsv1 "clypzy/contracts/gen/events/v1"
	"clypzy/internal/platform/config"
	"clypzy/internal/platform/messaging"
	"clypzy/internal/platform/observability"
	"clypzy/internal/shared/outbox"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

type eventBus interface {
	outbox.Publisher
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, contractsv1.Envelope) error,
	) error
	Close() error
}

// WorkerApp runs the outbox relays, the view-sync consumer and the wallet
// reconcile loop against one core.
type WorkerApp struct {
	core      *Core
	bus       eventBus
	relays    []outbox.Relay
	viewSync  clipworkers.ViewSyncConsumer
	reconcile walletworkers.ReconcileJob
	registry  *prometheus.Registry
	cfg       config.Config
	logger    *slog.Logger
}

func BuildWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*WorkerApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", cfg.ServiceName, "process", "worker")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	core, err := BuildCore(ctx, cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	var bus eventBus
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := messaging.NewKafkaBus(cfg.KafkaBrokers, logger)
		if err != nil {
			_ = core.Close()
			return nil, err
		}
		bus = kafka
	} else {
		logger.Warn("no kafka brokers configured, using in-process bus",
			"event", "bootstrap_inprocess_bus",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		bus = messaging.NewInProcessBus(logger)
	}

	return newWorkerApp(core, bus, registry, cfg, logger), nil
}

func newWorkerApp(core *Core, bus eventBus, registry *prometheus.Registry, cfg config.Config, logger *slog.Logger) *WorkerApp {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerApp{
		core:      core,
		bus:       bus,
		relays:    core.Relays(bus, cfg.OutboxBatchSize),
		viewSync:  core.Clips.ViewSyncConsumer(bus, cfg.IdempotencyTTL, !cfg.EnableViewSyncConsumer),
		reconcile: core.Wallets.ReconcileJob(),
		registry:  registry,
		cfg:       cfg,
		logger:    logger,
	}
}

func (w *WorkerApp) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	if err := w.viewSync.Start(ctx); err != nil {
		return err
	}
	group.Go(func() error {
		return w.runRelays(ctx)
	})
	if w.cfg.EnableWalletReconcile {
		group.Go(func() error {
			return w.runReconcile(ctx)
		})
	}
	if strings.TrimSpace(w.cfg.MetricsAddr) != "" {
		group.Go(func() error {
			return w.serveMetrics(ctx)
		})
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.cfg.PollInterval.String(),
		"reconcile_enabled", w.cfg.EnableWalletReconcile,
		"view_sync_enabled", w.cfg.EnableViewSyncConsumer,
	)
	return group.Wait()
}

// runRelays drains every module outbox once per poll interval. Publish
// failures leave rows pending for the next cycle.
func (w *WorkerApp) runRelays(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval(w.cfg.PollInterval, 2*time.Second))
	defer ticker.Stop()
	for {
		for _, relay := range w.relays {
			if _, err := relay.RunOnce(ctx); err != nil && ctx.Err() != nil {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) runReconcile(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval(w.cfg.ReconcileInterval, 10*time.Minute))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if _, err := w.reconcile.RunOnce(ctx); err != nil && ctx.Err() != nil {
			return nil
		}
	}
}

func (w *WorkerApp) serveMetrics(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(w.registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              w.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	w.logger.Info("metrics endpoint listening",
		"event", "bootstrap_metrics_listening",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"addr", w.cfg.MetricsAddr,
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func (w *WorkerApp) Close() error {
	return errors.Join(w.bus.Close(), w.core.Close())
}

func pollInterval(value time.Duration, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}
