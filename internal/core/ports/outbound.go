package ports

import (
	"context"
	"io"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChatCompleter sends a message list to the chat model and returns the raw reply text.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []domain.ChatMessage, opts domain.ChatOptions) (string, error)
}

// ChunkSearcher finds guidance chunks for a topic.
type ChunkSearcher interface {
	SimilaritySearch(ctx context.Context, vector []float32, topic domain.Intent, minSimilarity float64, limit int) ([]domain.RetrievedChunk, error)
	KeywordSearch(ctx context.Context, topic domain.Intent, jurisdiction string, limit int) ([]domain.RetrievedChunk, error)
}

// ChunkIndexer replaces the chunks of a guide.
type ChunkIndexer interface {
	IndexChunks(ctx context.Context, guide *domain.Guide, chunks []domain.GuideChunk) error
}

type ChunkStore interface {
	ChunkSearcher
	ChunkIndexer
}

// QAEventStore persists answered questions.
type QAEventStore interface {
	InsertQAEvent(ctx context.Context, event *domain.QAEvent) (string, error)
	GetQAEvent(ctx context.Context, id string) (*domain.QAEvent, error)
}

type FeedbackStore interface {
	UpsertFeedback(ctx context.Context, feedback *domain.Feedback) (*domain.Feedback, error)
}

// GuideRepository upserts guide documents by URL and returns the stored id.
type GuideRepository interface {
	UpsertGuide(ctx context.Context, guide *domain.Guide) (string, error)
}

// ObjectStorage reads guide source files.
type ObjectStorage interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context) ([]string, error)
}

// MessageQueue publishes/consumes guide ingestion events.
type MessageQueue interface {
	PublishGuideIngest(ctx context.Context, key string) error
	SubscribeGuideIngest(ctx context.Context, handler func(context.Context, string) error) error
}

// GuideExtractor reads a guide file and its metadata.
type GuideExtractor interface {
	Extract(ctx context.Context, key string) (*domain.Guide, error)
}

// Chunker splits text into semantically usable chunks.
type Chunker interface {
	Split(text string) []string
}
