package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kirillkom/beready-legal-assistant/internal/bootstrap"
)

var indexConcurrency int

// indexCmd processes guides in this process, without NATS.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Extract, chunk, embed and store every guide in-process",
	RunE: func(cmd *cobra.Command, args []string) error {
		if indexConcurrency > 0 {
			cfg.IngestConcurrency = indexConcurrency
		}
		app, err := newApp(cmd.Context(), bootstrap.Options{Guides: true})
		if err != nil {
			return err
		}
		defer app.Close()

		report, err := app.IndexUC.IndexAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("index guides: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "indexed %d guides\n", len(report.Indexed))
		if len(report.Failed) == 0 {
			return nil
		}
		failed := make([]string, 0, len(report.Failed))
		for key := range report.Failed {
			failed = append(failed, key)
		}
		sort.Strings(failed)
		for _, key := range failed {
			fmt.Fprintf(out, "failed %s: %v\n", key, report.Failed[key])
		}
		return fmt.Errorf("%d guides failed to index", len(failed))
	},
}

func init() {
	indexCmd.Flags().IntVar(&indexConcurrency, "concurrency", 0, "guides processed in parallel (overrides INGEST_CONCURRENCY)")
	rootCmd.AddCommand(indexCmd)
}
