package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
	"github.com/kirillkom/beready-legal-assistant/internal/core/ports"
)

const (
	DefaultMinSimilarity = 0.5
	DefaultMaxResults    = 5
)

type RetrievalLimits struct {
	MinSimilarity float64
	MaxResults    int
}

// EvidenceRetriever walks similarity search, then keyword search, then the canned pack.
// It never returns an error.
type EvidenceRetriever struct {
	store  ports.ChunkSearcher
	limits RetrievalLimits
	logger *slog.Logger
}

func NewEvidenceRetriever(store ports.ChunkSearcher, limits RetrievalLimits, logger *slog.Logger) *EvidenceRetriever {
	if limits.MinSimilarity <= 0 || limits.MinSimilarity > 1 {
		limits.MinSimilarity = DefaultMinSimilarity
	}
	if limits.MaxResults <= 0 {
		limits.MaxResults = DefaultMaxResults
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EvidenceRetriever{store: store, limits: limits, logger: logger}
}

func (r *EvidenceRetriever) Retrieve(ctx context.Context, vector []float32, intent domain.Intent) domain.Evidence {
	ctx, span := tracer.Start(ctx, "EvidenceRetriever.Retrieve")
	defer span.End()
	span.SetAttributes(attribute.String("intent", intent.String()))

	if len(vector) > 0 {
		chunks, err := r.store.SimilaritySearch(ctx, vector, intent, r.limits.MinSimilarity, r.limits.MaxResults)
		switch {
		case err != nil:
			span.RecordError(err)
			r.logger.Warn("similarity_search_failed", "intent", intent, "error", err)
		case len(chunks) > 0:
			return r.evidence(span, chunks, domain.RetrievalVector)
		}
	}

	chunks, err := r.store.KeywordSearch(ctx, intent, domain.Jurisdiction, r.limits.MaxResults)
	switch {
	case err != nil:
		span.RecordError(err)
		r.logger.Warn("keyword_search_failed", "intent", intent, "error", err)
	case len(chunks) > 0:
		return r.evidence(span, chunks, domain.RetrievalKeyword)
	}

	span.SetAttributes(attribute.String("retrieval", string(domain.RetrievalNone)))
	return domain.Evidence{
		Pack:   NoGuidanceEvidencePack(intent),
		Chunks: []domain.RetrievedChunk{},
		Source: domain.RetrievalNone,
	}
}

func (r *EvidenceRetriever) evidence(span trace.Span, chunks []domain.RetrievedChunk, source domain.RetrievalSource) domain.Evidence {
	if len(chunks) > r.limits.MaxResults {
		chunks = chunks[:r.limits.MaxResults]
	}
	span.SetAttributes(
		attribute.String("retrieval", string(source)),
		attribute.Int("chunks", len(chunks)),
	)
	return domain.Evidence{
		Pack:   FormatEvidencePack(chunks),
		Chunks: chunks,
		Source: source,
	}
}
