package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
	"github.com/kirillkom/beready-legal-assistant/internal/core/ports"
)

const (
	defaultAnswerTemperature = 0.3
	defaultAnswerMaxTokens   = 4096
	defaultPersistTimeout    = 5 * time.Second
)

type AnswerLimits struct {
	Temperature    float64
	MaxTokens      int
	PersistTimeout time.Duration
}

// AnswerUseCase turns a question into a validated StructuredAnswer.
// A request makes at most one parse repair and one validation repair, so three chat calls at most.
type AnswerUseCase struct {
	rag       *RAGPipeline
	chat      ports.ChatCompleter
	validator *ResponseValidator
	events    ports.QAEventStore
	limits    AnswerLimits
	logger    *slog.Logger
}

func NewAnswerUseCase(
	rag *RAGPipeline,
	chat ports.ChatCompleter,
	validator *ResponseValidator,
	events ports.QAEventStore,
	limits AnswerLimits,
	logger *slog.Logger,
) *AnswerUseCase {
	if limits.Temperature <= 0 || limits.Temperature > 2 {
		limits.Temperature = defaultAnswerTemperature
	}
	if limits.MaxTokens <= 0 {
		limits.MaxTokens = defaultAnswerMaxTokens
	}
	if limits.PersistTimeout <= 0 {
		limits.PersistTimeout = defaultPersistTimeout
	}
	if validator == nil {
		validator = NewResponseValidator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerUseCase{
		rag:       rag,
		chat:      chat,
		validator: validator,
		events:    events,
		limits:    limits,
		logger:    logger,
	}
}

func (uc *AnswerUseCase) AnswerQuestion(ctx context.Context, question, userID string) (*domain.AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &domain.AnswerError{
			Code:    domain.CodeInvalidRequest,
			Message: "Question is required and must be a non-empty string.",
		}
	}

	ctx, span := tracer.Start(ctx, "AnswerUseCase.AnswerQuestion")
	defer span.End()

	rag := uc.rag.Run(ctx, question)
	span.SetAttributes(
		attribute.String("intent", rag.Intent.String()),
		attribute.String("retrieval", string(rag.Source)),
		attribute.Int("chunks", len(rag.Chunks)),
	)
	if err := ctx.Err(); err != nil {
		return nil, failSpan(span, &domain.AnswerError{
			Code:    domain.CodeRAGError,
			Message: "The request ended before legal guidance could be retrieved.",
			Err:     err,
		})
	}

	attempt := &answerAttempt{uc: uc, question: question, evidencePack: rag.EvidencePack}
	answer, err := attempt.run(ctx)
	span.SetAttributes(attribute.Int("model_calls", attempt.calls))
	if err != nil {
		return nil, failSpan(span, err)
	}

	return &domain.AnswerResult{
		Answer: *answer,
		Metadata: domain.AnswerMetadata{
			Intent:          rag.Intent,
			ChunksRetrieved: len(rag.Chunks),
			QAEventID:       uc.persist(ctx, userID, question, *answer, rag),
			Retrieval:       rag.Source,
			ModelCalls:      attempt.calls,
		},
	}, nil
}

// persist stores the QA event. Failures are logged and reported as a nil id.
func (uc *AnswerUseCase) persist(
	ctx context.Context,
	userID, question string,
	answer domain.StructuredAnswer,
	rag domain.RAGResult,
) *string {
	if uc.events == nil || strings.TrimSpace(userID) == "" {
		return nil
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.limits.PersistTimeout)
	defer cancel()

	event := &domain.QAEvent{
		ID:                uuid.NewString(),
		UserID:            userID,
		Question:          question,
		Answer:            answer,
		RetrievedChunkIDs: rag.ChunkIDs(),
		Confidence:        answer.Confidence,
		CreatedAt:         time.Now().UTC(),
	}
	id, err := uc.events.InsertQAEvent(persistCtx, event)
	if err != nil {
		uc.logger.Error("qa_event_persist_failed", "user_id", userID, "error", err)
		return nil
	}
	return &id
}

type answerAttempt struct {
	uc           *AnswerUseCase
	question     string
	evidencePack string
	calls        int
}

func (a *answerAttempt) run(ctx context.Context) (*domain.StructuredAnswer, error) {
	raw, err := a.complete(ctx, BuildMessages(a.question, a.evidencePack))
	if err != nil {
		return nil, err
	}

	answer, validationErr := a.validate(raw)
	if validationErr == nil {
		return answer, nil
	}

	if validationErr.Kind == ParseErrorKind {
		a.uc.logger.Warn("answer_repair", "kind", ParseErrorKind, "error", validationErr.Err)
		raw, err = a.complete(ctx, BuildParseRepairMessages(a.question, a.evidencePack, raw))
		if err != nil {
			return nil, err
		}
		answer, validationErr = a.validate(raw)
		if validationErr == nil {
			return answer, nil
		}
		if validationErr.Kind == ParseErrorKind {
			return nil, &domain.AnswerError{
				Code:    domain.CodeJSONParseError,
				Message: "The AI service did not return a readable answer. Please try again.",
				Err:     validationErr,
			}
		}
	}

	a.uc.logger.Warn("answer_repair", "kind", SchemaErrorKind, "violations", validationErr.Details())
	raw, err = a.complete(ctx, BuildValidationRepairMessages(a.question, a.evidencePack, validationErr))
	if err != nil {
		return nil, err
	}
	answer, validationErr = a.validate(raw)
	if validationErr != nil {
		return nil, &domain.AnswerError{
			Code:    domain.CodeValidationFailed,
			Message: "The AI service returned an answer in an unexpected format. Please try again.",
			Details: validationErr.Details(),
			Err:     validationErr,
		}
	}
	return answer, nil
}

func (a *answerAttempt) validate(raw string) (*domain.StructuredAnswer, *ValidationError) {
	answer, err := a.uc.validator.Validate(raw)
	if err == nil {
		return answer, nil
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return nil, validationErr
	}
	return nil, &ValidationError{Kind: SchemaErrorKind, Raw: raw, Err: err}
}

func (a *answerAttempt) complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	a.calls++
	ctx, span := tracer.Start(ctx, "AnswerUseCase.chat", trace.WithAttributes(
		attribute.Int("attempt", a.calls),
		attribute.Int("messages", len(messages)),
	))
	defer span.End()

	temperature := a.uc.limits.Temperature
	raw, err := a.uc.chat.Complete(ctx, messages, domain.ChatOptions{
		Temperature: &temperature,
		MaxTokens:   a.uc.limits.MaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion failed")
		return "", chatFailure(err)
	}
	return raw, nil
}

func chatFailure(err error) *domain.AnswerError {
	switch {
	case errors.Is(err, domain.ErrChatUnavailable):
		return &domain.AnswerError{
			Code:    domain.CodeLLMError,
			Reason:  domain.ReasonServiceUnavailable,
			Message: "The AI service is currently unavailable. Please make sure the model server is running and try again.",
			Err:     err,
		}
	case errors.Is(err, domain.ErrChatModelMissing):
		return &domain.AnswerError{
			Code:    domain.CodeLLMError,
			Reason:  domain.ReasonModelUnavailable,
			Message: "The AI model is not installed. Please install the configured model and try again.",
			Err:     err,
		}
	case errors.Is(err, domain.ErrChatTimeout):
		return &domain.AnswerError{
			Code:    domain.CodeLLMError,
			Reason:  domain.ReasonTimeout,
			Message: "The AI service took too long to respond. Please try again.",
			Err:     err,
		}
	case errors.Is(err, context.Canceled):
		return &domain.AnswerError{
			Code:    domain.CodeInternalError,
			Message: "The request was cancelled before an answer was generated.",
			Err:     err,
		}
	default:
		return &domain.AnswerError{
			Code:    domain.CodeLLMError,
			Reason:  domain.ReasonUpstreamError,
			Message: "The AI service returned an error. Please try again later.",
			Err:     err,
		}
	}
}

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	if answerErr, ok := domain.AsAnswerError(err); ok {
		span.SetAttributes(attribute.String("error.code", string(answerErr.Code)))
	}
	span.SetStatus(codes.Error, err.Error())
	return err
}
