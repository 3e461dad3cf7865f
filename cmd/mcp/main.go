package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/kirillkom/beready-legal-assistant/internal/adapters/mcp"
	"github.com/kirillkom/beready-legal-assistant/internal/bootstrap"
	"github.com/kirillkom/beready-legal-assistant/internal/config"
	"github.com/kirillkom/beready-legal-assistant/internal/observability/logging"
)

var version = "dev"

func main() {
	cfg := config.Load()
	// stdout carries the protocol
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	server := mcpadapter.NewServer(app.AnswerUC, cfg.MCPUserID, version, nil, logger)
	logger.Info("mcp_serving_stdio", "user_id", cfg.MCPUserID)
	if err := server.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
