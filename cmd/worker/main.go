package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/beready-legal-assistant/internal/bootstrap"
	"github.com/kirillkom/beready-legal-assistant/internal/config"
	"github.com/kirillkom/beready-legal-assistant/internal/observability/logging"
	"github.com/kirillkom/beready-legal-assistant/internal/observability/metrics"
)

const processTimeout = 5 * time.Minute

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("worker_failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred closers always run.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	workerMetrics := metrics.NewWorkerMetrics("worker")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Logger:               logger,
		OnBreakerStateChange: workerMetrics.BreakerHook("worker"),
		Guides:               true,
		Queue:                true,
	})
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject, "guides_path", app.Storage.BasePath())
	err = app.Queue.SubscribeGuideIngest(ctx, func(handlerCtx context.Context, key string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, processTimeout)
		defer cancel()

		workerMetrics.StartGuide()
		start := time.Now()
		err := app.ProcessUC.ProcessGuide(processCtx, key)
		workerMetrics.FinishGuide("worker", time.Since(start), err)
		if err == nil {
			logger.Info("guide_indexed", "key", key, "duration_ms", time.Since(start).Milliseconds())
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}
