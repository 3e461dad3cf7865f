package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

type QAEventRepository struct {
	db *sql.DB
}

func NewQAEventRepository(db *sql.DB) *QAEventRepository {
	return &QAEventRepository{db: db}
}

func (r *QAEventRepository) InsertQAEvent(ctx context.Context, event *domain.QAEvent) (string, error) {
	answerJSON, err := json.Marshal(event.Answer)
	if err != nil {
		return "", fmt.Errorf("marshal answer: %w", err)
	}
	chunkIDs := event.RetrievedChunkIDs
	if chunkIDs == nil {
		chunkIDs = []string{}
	}
	chunkIDsJSON, err := json.Marshal(chunkIDs)
	if err != nil {
		return "", fmt.Errorf("marshal chunk ids: %w", err)
	}

	var id string
	err = r.db.QueryRowContext(ctx, `
INSERT INTO qa_events (id, user_id, question, answer_json, retrieved_chunk_ids, confidence, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id
`,
		event.ID, event.UserID, event.Question, answerJSON, chunkIDsJSON, event.Confidence, event.CreatedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert qa event: %w", err)
	}
	return id, nil
}

func (r *QAEventRepository) GetQAEvent(ctx context.Context, id string) (*domain.QAEvent, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, question, answer_json, retrieved_chunk_ids, confidence, created_at
FROM qa_events
WHERE id = $1
`, id)

	var (
		event       domain.QAEvent
		answerRaw   []byte
		chunkIDsRaw []byte
	)
	err := row.Scan(&event.ID, &event.UserID, &event.Question, &answerRaw, &chunkIDsRaw, &event.Confidence, &event.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get qa event", fmt.Errorf("qa event not found: %s", id))
		}
		return nil, fmt.Errorf("scan qa event: %w", err)
	}
	if err := json.Unmarshal(answerRaw, &event.Answer); err != nil {
		return nil, fmt.Errorf("unmarshal answer: %w", err)
	}
	if err := json.Unmarshal(chunkIDsRaw, &event.RetrievedChunkIDs); err != nil {
		return nil, fmt.Errorf("unmarshal chunk ids: %w", err)
	}
	return &event, nil
}
