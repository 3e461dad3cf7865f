package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
	"github.com/kirillkom/beready-legal-assistant/internal/core/ports"
)

var guideExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".pdf":      true,
}

// IsGuideSource reports whether a storage key names a guide file (not a sidecar).
func IsGuideSource(key string) bool {
	return guideExtensions[strings.ToLower(filepath.Ext(key))]
}

// IngestGuideUseCase queues guide files for the indexing worker.
type IngestGuideUseCase struct {
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestGuideUseCase(storage ports.ObjectStorage, queue ports.MessageQueue) *IngestGuideUseCase {
	return &IngestGuideUseCase{
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestGuideUseCase) PublishGuide(ctx context.Context, key string) error {
	key = filepath.ToSlash(strings.TrimSpace(key))
	if !IsGuideSource(key) {
		return domain.WrapError(domain.ErrInvalidInput, "publish guide", fmt.Errorf("unsupported guide file %q", key))
	}
	if err := uc.queue.PublishGuideIngest(ctx, key); err != nil {
		return fmt.Errorf("publish ingestion event: %w", err)
	}
	return nil
}

// PublishAll queues every guide in storage and returns how many were queued.
func (uc *IngestGuideUseCase) PublishAll(ctx context.Context) (int, error) {
	keys, err := uc.storage.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list guides: %w", err)
	}

	published := 0
	var errs []error
	for _, key := range keys {
		if !IsGuideSource(key) {
			continue
		}
		if err := uc.PublishGuide(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		published++
	}
	return published, errors.Join(errs...)
}
