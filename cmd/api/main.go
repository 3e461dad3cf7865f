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

	httpadapter "github.com/kirillkom/beready-legal-assistant/internal/adapters/http"
	"github.com/kirillkom/beready-legal-assistant/internal/bootstrap"
	"github.com/kirillkom/beready-legal-assistant/internal/config"
	"github.com/kirillkom/beready-legal-assistant/internal/observability/logging"
	"github.com/kirillkom/beready-legal-assistant/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("api_failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred closers always run.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	httpMetrics := metrics.NewHTTPServerMetrics("api")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Logger:               logger,
		OnBreakerStateChange: httpMetrics.BreakerHook("api"),
	})
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	router, err := httpadapter.NewRouter(cfg, httpadapter.Dependencies{
		Answerer: app.AnswerUC,
		Feedback: app.FeedbackUC,
		Health:   app.DB.PingContext,
		Metrics:  httpMetrics,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("init router: %w", err)
	}

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLMTimeout*3 + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("api_listening", "addr", server.Addr, "llm_provider", cfg.LLMProvider, "vector_backend", cfg.VectorBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
	return nil
}
