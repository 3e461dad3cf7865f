package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
	"github.com/kirillkom/beready-legal-assistant/internal/core/ports"
)

type FeedbackUseCase struct {
	events    ports.QAEventStore
	store     ports.FeedbackStore
	validator *ResponseValidator
}

func NewFeedbackUseCase(events ports.QAEventStore, store ports.FeedbackStore, validator *ResponseValidator) *FeedbackUseCase {
	if validator == nil {
		validator = NewResponseValidator()
	}
	return &FeedbackUseCase{
		events:    events,
		store:     store,
		validator: validator,
	}
}

func (uc *FeedbackUseCase) SubmitFeedback(ctx context.Context, userID string, input domain.FeedbackInput) (*domain.Feedback, error) {
	const op = "submit feedback"

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.WrapError(domain.ErrUnauthorized, op, errors.New("user id is required"))
	}
	eventID := strings.TrimSpace(input.EventID)
	if eventID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, errors.New("eventId is required"))
	}
	if !input.Rating.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("rating must be %q or %q", domain.RatingUp, domain.RatingDown))
	}

	edited, err := uc.editedAnswer(input)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidEditedAnswer, op, err)
	}

	event, err := uc.events.GetQAEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load qa event: %w", err)
	}
	if event.UserID != userID {
		return nil, domain.WrapError(domain.ErrForbidden, op, errors.New("qa event belongs to another user"))
	}

	now := time.Now().UTC()
	feedback := &domain.Feedback{
		ID:           uuid.NewString(),
		QAEventID:    event.ID,
		UserID:       userID,
		Rating:       input.Rating,
		Note:         normalizeNote(input.Note),
		EditedAnswer: edited,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	saved, err := uc.store.UpsertFeedback(ctx, feedback)
	if err != nil {
		return nil, fmt.Errorf("upsert feedback: %w", err)
	}
	return saved, nil
}

// editedAnswer holds user corrections to the same schema as model output.
func (uc *FeedbackUseCase) editedAnswer(input domain.FeedbackInput) (*domain.StructuredAnswer, error) {
	raw := bytes.TrimSpace(input.EditedAnswer)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	answer, err := uc.validator.Validate(string(raw))
	if err != nil {
		return nil, fmt.Errorf("edited answer: %w", err)
	}
	return answer, nil
}

func normalizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
