package ports

import (
	"context"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

// QuestionAnswerer is the inbound contract for structured legal answers.
type QuestionAnswerer interface {
	AnswerQuestion(ctx context.Context, question, userID string) (*domain.AnswerResult, error)
}

// FeedbackService records user feedback on a previous answer.
type FeedbackService interface {
	SubmitFeedback(ctx context.Context, userID string, input domain.FeedbackInput) (*domain.Feedback, error)
}

// GuidePublisher queues guides for indexing.
type GuidePublisher interface {
	PublishGuide(ctx context.Context, key string) error
	PublishAll(ctx context.Context) (int, error)
}

// GuideProcessor indexes a single guide.
type GuideProcessor interface {
	ProcessGuide(ctx context.Context, key string) error
}
