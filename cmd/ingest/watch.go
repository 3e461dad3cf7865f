package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/beready-legal-assistant/internal/bootstrap"
	"github.com/kirillkom/beready-legal-assistant/internal/infrastructure/watcher"
)

var (
	watchDebounce time.Duration
	watchInitial  bool
)

// watchCmd re-publishes guides whenever their files change.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the guides directory and publish created or modified guides",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx, bootstrap.Options{Queue: true})
		if err != nil {
			return err
		}
		defer app.Close()

		if watchInitial {
			published, err := app.IngestUC.PublishAll(ctx)
			logger.Info("guides_published", "count", published, "subject", cfg.NATSSubject)
			if err != nil {
				logger.Warn("initial_publish_incomplete", "error", err)
			}
		}

		w := watcher.New(guideKeyResolver(app.Storage), watchDebounce, logger)
		logger.Info("guides_watching", "dir", app.Storage.BasePath())
		err = w.Run(ctx, app.Storage.BasePath(), app.IngestUC.PublishGuide)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet period before a changed guide is published")
	watchCmd.Flags().BoolVar(&watchInitial, "initial-scan", false, "publish every guide once before watching")
	rootCmd.AddCommand(watchCmd)
}
