package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
	"github.com/kirillkom/beready-legal-assistant/internal/core/ports"
)

// RAGPipeline classifies, embeds and retrieves evidence for a question.
type RAGPipeline struct {
	embedder  ports.Embedder
	retriever *EvidenceRetriever
	logger    *slog.Logger
}

func NewRAGPipeline(embedder ports.Embedder, retriever *EvidenceRetriever, logger *slog.Logger) *RAGPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &RAGPipeline{
		embedder:  embedder,
		retriever: retriever,
		logger:    logger,
	}
}

// Run always returns a usable result. When the question cannot be embedded the
// result is degraded: unknown intent, no chunks, no embedding and an apology pack.
func (p *RAGPipeline) Run(ctx context.Context, question string) domain.RAGResult {
	ctx, span := tracer.Start(ctx, "RAGPipeline.Run")
	defer span.End()

	intent := ClassifyIntent(question)
	span.SetAttributes(attribute.String("intent", intent.String()))

	vector, err := p.embedder.EmbedQuery(ctx, question)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		p.logger.Warn("rag_degraded", "intent", intent, "error", err)
		return domain.RAGResult{
			Intent:       domain.IntentUnknown,
			EvidencePack: DegradedEvidencePack,
			Chunks:       []domain.RetrievedChunk{},
			Source:       domain.RetrievalDegraded,
		}
	}

	evidence := p.retriever.Retrieve(ctx, vector, intent)
	return domain.RAGResult{
		Intent:         intent,
		EvidencePack:   evidence.Pack,
		Chunks:         evidence.Chunks,
		QueryEmbedding: vector,
		Source:         evidence.Source,
	}
}
