package main

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/kirillkom/beready-legal-assistant/internal/config"
)

func TestRunReturnsBootstrapError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := run(context.Background(), config.Config{}, logger)
	if err == nil || !strings.Contains(err.Error(), "bootstrap") || !strings.Contains(err.Error(), "POSTGRES_DSN") {
		t.Fatalf("expected bootstrap error, got %v", err)
	}
}
