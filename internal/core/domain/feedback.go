package domain

import (
	"encoding/json"
	"time"
)

type FeedbackRating string

const (
	RatingUp   FeedbackRating = "up"
	RatingDown FeedbackRating = "down"
)

func (r FeedbackRating) Valid() bool {
	return r == RatingUp || r == RatingDown
}

// FeedbackInput is the user-supplied part of a feedback submission.
// EditedAnswer is kept raw so it goes through the same validator as model output.
type FeedbackInput struct {
	EventID      string          `json:"eventId"`
	Rating       FeedbackRating  `json:"rating"`
	Note         *string         `json:"note,omitempty"`
	EditedAnswer json.RawMessage `json:"editedAnswerJson,omitempty"`
}

type Feedback struct {
	ID           string            `json:"id"`
	QAEventID    string            `json:"qa_event_id"`
	UserID       string            `json:"user_id"`
	Rating       FeedbackRating    `json:"rating"`
	Note         *string           `json:"note,omitempty"`
	EditedAnswer *StructuredAnswer `json:"edited_answer,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
