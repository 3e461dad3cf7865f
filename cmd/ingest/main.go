package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirillkom/beready-legal-assistant/internal/bootstrap"
	"github.com/kirillkom/beready-legal-assistant/internal/config"
	"github.com/kirillkom/beready-legal-assistant/internal/observability/logging"
)

var (
	cfg        config.Config
	logger     *slog.Logger
	guidesPath string
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index UK legal guidance for the answer service",
	Long: `Reads guide files (Markdown with metadata, or PDF with a .meta.yaml sidecar)
from the guides directory and indexes them for retrieval.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if guidesPath != "" {
			cfg.GuidesPath = guidesPath
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&guidesPath, "guides", "", "guides directory (overrides GUIDES_PATH)")
}

func main() {
	cfg = config.Load()
	logger = logging.NewJSONLogger("ingest", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(ctx context.Context, opts bootstrap.Options) (*bootstrap.App, error) {
	opts.Logger = logger
	app, err := bootstrap.New(ctx, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return app, nil
}
