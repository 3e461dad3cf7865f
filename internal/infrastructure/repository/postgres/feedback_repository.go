package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// UpsertFeedback keeps one feedback row per QA event; a second submission
// overwrites rating, note and edited answer but keeps the original id.
func (r *FeedbackRepository) UpsertFeedback(ctx context.Context, feedback *domain.Feedback) (*domain.Feedback, error) {
	var edited []byte
	if feedback.EditedAnswer != nil {
		raw, err := json.Marshal(feedback.EditedAnswer)
		if err != nil {
			return nil, fmt.Errorf("marshal edited answer: %w", err)
		}
		edited = raw
	}

	saved := *feedback
	var note sql.NullString
	err := r.db.QueryRowContext(ctx, `
INSERT INTO feedback (id, qa_event_id, user_id, rating, note, edited_answer_json, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (qa_event_id) DO UPDATE SET
	rating = EXCLUDED.rating,
	note = EXCLUDED.note,
	edited_answer_json = EXCLUDED.edited_answer_json,
	updated_at = EXCLUDED.updated_at
RETURNING id, note, created_at, updated_at
`,
		feedback.ID, feedback.QAEventID, feedback.UserID, string(feedback.Rating),
		nullableString(feedback.Note), nullableJSON(edited), feedback.CreatedAt, feedback.UpdatedAt,
	).Scan(&saved.ID, &note, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert feedback: %w", err)
	}
	saved.Note = nil
	if note.Valid {
		saved.Note = &note.String
	}
	return &saved, nil
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
