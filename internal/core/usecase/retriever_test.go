package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

func TestEvidenceRetrieverUsesSimilarityFirst(t *testing.T) {
	store := &searcherFake{similar: depositChunks()}
	retriever := NewEvidenceRetriever(store, RetrievalLimits{}, nil)

	evidence := retriever.Retrieve(context.Background(), []float32{0.1}, domain.IntentTenancy)
	if evidence.Source != domain.RetrievalVector {
		t.Fatalf("expected vector source, got %s", evidence.Source)
	}
	if len(evidence.Chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(evidence.Chunks))
	}
	if store.keywordCalls != 0 {
		t.Fatalf("expected no keyword fallback, got %d calls", store.keywordCalls)
	}
	if store.threshold != DefaultMinSimilarity || store.limit != DefaultMaxResults {
		t.Fatalf("expected default limits, got threshold=%v limit=%d", store.threshold, store.limit)
	}
	if store.topic != domain.IntentTenancy {
		t.Fatalf("expected topic filter tenancy, got %s", store.topic)
	}
	if evidence.Pack != FormatEvidencePack(evidence.Chunks) {
		t.Fatalf("expected formatted pack")
	}
}

func TestEvidenceRetrieverFallsBackToKeyword(t *testing.T) {
	tests := []struct {
		name  string
		store *searcherFake
	}{
		{name: "similarity error", store: &searcherFake{similarErr: errors.New("rpc failed"), keyword: depositChunks()[:1]}},
		{name: "similarity empty", store: &searcherFake{keyword: depositChunks()[:1]}},
	}
	for _, tt := range tests {
		retriever := NewEvidenceRetriever(tt.store, RetrievalLimits{}, nil)
		evidence := retriever.Retrieve(context.Background(), []float32{0.1}, domain.IntentTenancy)
		if evidence.Source != domain.RetrievalKeyword {
			t.Fatalf("%s: expected keyword source, got %s", tt.name, evidence.Source)
		}
		if tt.store.jurisdiction != domain.Jurisdiction {
			t.Fatalf("%s: expected UK jurisdiction filter, got %q", tt.name, tt.store.jurisdiction)
		}
		if len(evidence.Chunks) != 1 {
			t.Fatalf("%s: expected 1 chunk, got %d", tt.name, len(evidence.Chunks))
		}
	}
}

func TestEvidenceRetrieverCannedPackWhenNothingFound(t *testing.T) {
	tests := []struct {
		name  string
		store *searcherFake
	}{
		{name: "both empty", store: &searcherFake{}},
		{name: "both fail", store: &searcherFake{similarErr: errors.New("down"), keywordErr: errors.New("down")}},
	}
	for _, tt := range tests {
		retriever := NewEvidenceRetriever(tt.store, RetrievalLimits{}, nil)
		evidence := retriever.Retrieve(context.Background(), []float32{0.1}, domain.IntentContracts)
		if evidence.Source != domain.RetrievalNone {
			t.Fatalf("%s: expected none source, got %s", tt.name, evidence.Source)
		}
		if evidence.Pack != NoGuidanceEvidencePack(domain.IntentContracts) {
			t.Fatalf("%s: unexpected pack %q", tt.name, evidence.Pack)
		}
		if evidence.Chunks == nil || len(evidence.Chunks) != 0 {
			t.Fatalf("%s: expected empty non-nil chunks, got %#v", tt.name, evidence.Chunks)
		}
	}
}

func TestEvidenceRetrieverCapsResults(t *testing.T) {
	many := make([]domain.RetrievedChunk, 0, 7)
	for i := 0; i < 7; i++ {
		many = append(many, domain.RetrievedChunk{ID: string(rune('a' + i)), Text: "t"})
	}
	retriever := NewEvidenceRetriever(&searcherFake{similar: many}, RetrievalLimits{MaxResults: 5}, nil)
	evidence := retriever.Retrieve(context.Background(), []float32{0.1}, domain.IntentTenancy)
	if len(evidence.Chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(evidence.Chunks))
	}
}

func TestEvidenceRetrieverSkipsSimilarityWithoutVector(t *testing.T) {
	store := &searcherFake{keyword: depositChunks()}
	retriever := NewEvidenceRetriever(store, RetrievalLimits{}, nil)
	retriever.Retrieve(context.Background(), nil, domain.IntentTenancy)
	if store.similarCalls != 0 {
		t.Fatalf("expected similarity search to be skipped")
	}
	if store.keywordCalls != 1 {
		t.Fatalf("expected keyword search, got %d calls", store.keywordCalls)
	}
}
