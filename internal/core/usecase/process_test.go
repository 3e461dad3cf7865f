package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

type guideExtractorFake struct {
	guide *domain.Guide
	err   error
}

func (f *guideExtractorFake) Extract(context.Context, string) (*domain.Guide, error) {
	if f.err != nil {
		return nil, f.err
	}
	copyGuide := *f.guide
	return &copyGuide, nil
}

type guideRepoFake struct {
	upserted *domain.Guide
	err      error
}

func (f *guideRepoFake) UpsertGuide(_ context.Context, guide *domain.Guide) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.upserted = guide
	return "guide-1", nil
}

type chunkerFake struct{}

func (chunkerFake) Split(text string) []string {
	return strings.Split(text, "|")
}

type indexerFake struct {
	guide  *domain.Guide
	chunks []domain.GuideChunk
	err    error
}

func (f *indexerFake) IndexChunks(_ context.Context, guide *domain.Guide, chunks []domain.GuideChunk) error {
	f.guide = guide
	f.chunks = chunks
	return f.err
}

func testGuide() *domain.Guide {
	return &domain.Guide{
		StorageKey:   "tenancy/deposits.md",
		Title:        "Tenancy deposit protection",
		URL:          "https://www.gov.uk/tenancy-deposit-protection",
		LastUpdated:  "2024-01-10",
		Topic:        "tenancy",
		Jurisdiction: "UK",
		Source:       "gov.uk",
		RawText:      "first chunk|second chunk",
	}
}

func TestProcessGuideIndexesChunks(t *testing.T) {
	embedder := &embedderFake{}
	repo := &guideRepoFake{}
	index := &indexerFake{}
	uc := NewProcessGuideUseCase(&guideExtractorFake{guide: testGuide()}, repo, chunkerFake{}, embedder, index)

	if err := uc.ProcessGuide(context.Background(), "tenancy/deposits.md"); err != nil {
		t.Fatalf("ProcessGuide() error = %v", err)
	}
	if repo.upserted == nil || index.guide.ID != "guide-1" {
		t.Fatalf("expected guide upserted and id propagated")
	}
	if len(embedder.batches) != 1 || len(embedder.batches[0]) != 2 {
		t.Fatalf("expected a single batch embedding call, got %v", embedder.batches)
	}
	if len(index.chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(index.chunks))
	}
	for i, chunk := range index.chunks {
		if chunk.GuideID != "guide-1" || chunk.Index != i || chunk.ID == "" {
			t.Fatalf("unexpected chunk %+v", chunk)
		}
		if chunk.Metadata.URL != "https://www.gov.uk/tenancy-deposit-protection" || chunk.Metadata.Topic != "tenancy" {
			t.Fatalf("expected guide metadata on chunk, got %+v", chunk.Metadata)
		}
		if len(chunk.Embedding) != 2 {
			t.Fatalf("expected embedding on chunk")
		}
	}
}

func TestProcessGuideVectorMismatch(t *testing.T) {
	embedder := &embedderFake{vectors: [][]float32{{0.1}}}
	repo := &guideRepoFake{}
	uc := NewProcessGuideUseCase(&guideExtractorFake{guide: testGuide()}, repo, chunkerFake{}, embedder, &indexerFake{})

	err := uc.ProcessGuide(context.Background(), "tenancy/deposits.md")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if repo.upserted != nil {
		t.Fatalf("expected no upsert when embedding fails")
	}
}

func TestProcessGuideEmptyBody(t *testing.T) {
	guide := testGuide()
	guide.RawText = ""
	uc := NewProcessGuideUseCase(&guideExtractorFake{guide: guide}, &guideRepoFake{}, chunkerFake{}, &embedderFake{}, &indexerFake{})

	if err := uc.ProcessGuide(context.Background(), "x.md"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProcessGuidePropagatesEmbeddingError(t *testing.T) {
	embedErr := domain.WrapError(domain.ErrEmbeddingModelMissing, "ollama embed", errors.New("model not found"))
	uc := NewProcessGuideUseCase(&guideExtractorFake{guide: testGuide()}, &guideRepoFake{}, chunkerFake{}, &embedderFake{err: embedErr}, &indexerFake{})

	if err := uc.ProcessGuide(context.Background(), "x.md"); !errors.Is(err, domain.ErrEmbeddingModelMissing) {
		t.Fatalf("expected embedding kind to be kept, got %v", err)
	}
}
