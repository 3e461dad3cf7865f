package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
	"github.com/kirillkom/beready-legal-assistant/internal/core/ports"
)

// ProcessGuideUseCase extracts, chunks, embeds and indexes one guide.
type ProcessGuideUseCase struct {
	extractor ports.GuideExtractor
	guides    ports.GuideRepository
	chunker   ports.Chunker
	embedder  ports.Embedder
	index     ports.ChunkIndexer
}

func NewProcessGuideUseCase(
	extractor ports.GuideExtractor,
	guides ports.GuideRepository,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.ChunkIndexer,
) *ProcessGuideUseCase {
	return &ProcessGuideUseCase{
		extractor: extractor,
		guides:    guides,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
	}
}

func (uc *ProcessGuideUseCase) ProcessGuide(ctx context.Context, key string) error {
	guide, err := uc.extract(ctx, key)
	if err != nil {
		return err
	}

	texts, err := uc.chunk(guide)
	if err != nil {
		return err
	}

	vectors, err := uc.embed(ctx, texts)
	if err != nil {
		return err
	}

	id, err := uc.guides.UpsertGuide(ctx, guide)
	if err != nil {
		return fmt.Errorf("upsert guide: %w", err)
	}
	guide.ID = id

	if err := uc.index.IndexChunks(ctx, guide, buildGuideChunks(guide, texts, vectors)); err != nil {
		return fmt.Errorf("index guide chunks: %w", err)
	}
	return nil
}

func (uc *ProcessGuideUseCase) extract(ctx context.Context, key string) (*domain.Guide, error) {
	guide, err := uc.extractor.Extract(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("extract guide %s: %w", key, err)
	}
	if guide.RawText == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract guide", errors.New("empty guide body"))
	}
	return guide, nil
}

func (uc *ProcessGuideUseCase) chunk(guide *domain.Guide) ([]string, error) {
	texts := uc.chunker.Split(guide.RawText)
	if len(texts) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk guide", errors.New("chunking produced zero chunks"))
	}
	return texts, nil
}

func (uc *ProcessGuideUseCase) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(texts)),
		)
	}
	return vectors, nil
}

func buildGuideChunks(guide *domain.Guide, texts []string, vectors [][]float32) []domain.GuideChunk {
	metadata := guide.ChunkMetadata()
	chunks := make([]domain.GuideChunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.GuideChunk{
			ID:        uuid.NewString(),
			GuideID:   guide.ID,
			Index:     i,
			Text:      text,
			Metadata:  metadata,
			Embedding: vectors[i],
		})
	}
	return chunks
}
