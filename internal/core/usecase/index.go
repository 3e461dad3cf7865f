package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/beready-legal-assistant/internal/core/ports"
)

type IndexReport struct {
	Indexed []string
	Failed  map[string]error
}

// IndexGuidesUseCase processes every guide in storage in-process, without the queue.
type IndexGuidesUseCase struct {
	storage     ports.ObjectStorage
	processor   ports.GuideProcessor
	concurrency int
	logger      *slog.Logger
}

func NewIndexGuidesUseCase(storage ports.ObjectStorage, processor ports.GuideProcessor, concurrency int, logger *slog.Logger) *IndexGuidesUseCase {
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexGuidesUseCase{
		storage:     storage,
		processor:   processor,
		concurrency: concurrency,
		logger:      logger,
	}
}

// IndexAll keeps going past individual guide failures and reports them.
func (uc *IndexGuidesUseCase) IndexAll(ctx context.Context) (*IndexReport, error) {
	keys, err := uc.storage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list guides: %w", err)
	}

	var (
		mu     sync.Mutex
		report = &IndexReport{Failed: map[string]error{}}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)
	for _, key := range keys {
		if !IsGuideSource(key) {
			continue
		}
		g.Go(func() error {
			if err := uc.processor.ProcessGuide(gctx, key); err != nil {
				uc.logger.Error("guide_index_failed", "key", key, "error", err)
				mu.Lock()
				report.Failed[key] = err
				mu.Unlock()
				return nil
			}
			uc.logger.Info("guide_indexed", "key", key)
			mu.Lock()
			report.Indexed = append(report.Indexed, key)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(report.Indexed)
	return report, ctx.Err()
}
