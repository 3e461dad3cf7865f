package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

type GuideRepository struct {
	db *sql.DB
}

func NewGuideRepository(db *sql.DB) *GuideRepository {
	return &GuideRepository{db: db}
}

// UpsertGuide inserts a guide or refreshes the one already stored under its URL,
// returning the stored id.
func (r *GuideRepository) UpsertGuide(ctx context.Context, guide *domain.Guide) (string, error) {
	now := time.Now().UTC()
	id := guide.ID
	if id == "" {
		id = uuid.NewString()
	}

	var storedID string
	err := r.db.QueryRowContext(ctx, `
INSERT INTO documents (
	id, storage_key, title, url, last_updated, topic, jurisdiction, source, raw_text, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
ON CONFLICT (url) DO UPDATE SET
	storage_key = EXCLUDED.storage_key,
	title = EXCLUDED.title,
	last_updated = EXCLUDED.last_updated,
	topic = EXCLUDED.topic,
	jurisdiction = EXCLUDED.jurisdiction,
	source = EXCLUDED.source,
	raw_text = EXCLUDED.raw_text,
	updated_at = EXCLUDED.updated_at
RETURNING id
`,
		id, guide.StorageKey, guide.Title, guide.URL, guide.LastUpdated, guide.Topic,
		guide.Jurisdiction, guide.Source, guide.RawText, now,
	).Scan(&storedID)
	if err != nil {
		return "", fmt.Errorf("upsert document: %w", err)
	}
	return storedID, nil
}
