package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/beready-legal-assistant/internal/bootstrap"
)

// scanCmd queues every guide for the worker.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Publish every guide under the guides directory to the ingestion queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), bootstrap.Options{Queue: true})
		if err != nil {
			return err
		}
		defer app.Close()

		published, err := app.IngestUC.PublishAll(cmd.Context())
		logger.Info("guides_published", "count", published, "subject", cfg.NATSSubject)
		if err != nil {
			return fmt.Errorf("publish guides: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published %d guides to %s\n", published, cfg.NATSSubject)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
