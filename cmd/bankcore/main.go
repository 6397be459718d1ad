package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corretorsys/bankcore/config"
	"github.com/corretorsys/bankcore/handler"
	"github.com/corretorsys/bankcore/integration"
	"github.com/corretorsys/bankcore/notify"
	"github.com/corretorsys/bankcore/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting bank error service",
		"env", cfg.Primary.Env,
		"storage", cfg.Storage.Backend,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	kv, err := cfg.Storage.NewKV(ctx, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	notifier := notify.NewService(logger)
	notifier.Subscribe(func(p notify.Payload) {
		logger.Info("user notification",
			"variant", p.Options.Variant,
			"sticky", p.Options.Sticky,
			"message", p.Message,
		)
	})

	metrics := store.NewMetricsService(kv, logger,
		store.WithTrendInterval(cfg.Metrics.Interval))
	errStore := store.New(kv, notifier, metrics, logger)

	h := handler.New(
		handler.WithNotifier(notifier),
		handler.WithStore(errStore),
		handler.WithLogger(logger),
	)
	defer h.Close()

	bbCfg, bbCreds := cfg.BBClientConfig()
	bb := integration.NewBancoDoBrasil(bbCfg, bbCreds,
		integration.WithSink(h),
		integration.WithLogger(logger),
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go metrics.Start(workerCtx)

	if cfg.Monitor.Interval > 0 {
		go probeBank(workerCtx, logger, cfg.Monitor.Interval, func(ctx context.Context) error {
			_, err := bb.ConsultarSaldo(ctx, cfg.BB.ContaMonitor)
			return err
		})
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	cancelWorkers()

	logger.Info("service exited")
}

// probeBank periodically exercises a cheap read operation against the bank.
// Failures flow through the handler via the client's sink, so they are
// recorded and notified like any other bank error.
func probeBank(ctx context.Context, logger *slog.Logger, interval time.Duration, probe func(context.Context) error) {
	logger.Info("bank connectivity probe started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("bank connectivity probe stopping")
			return
		case <-ticker.C:
			if err := probe(ctx); err != nil {
				logger.Warn("bank probe failed", "error", err)
			}
		}
	}
}
