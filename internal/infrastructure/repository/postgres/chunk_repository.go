package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

// ChunkRepository stores guide chunks with their embeddings in pgvector.
type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// SimilaritySearch ranks chunks of one topic by cosine similarity,
// keeping only those at or above minSimilarity.
func (r *ChunkRepository) SimilaritySearch(
	ctx context.Context,
	vector []float32,
	topic domain.Intent,
	minSimilarity float64,
	limit int,
) ([]domain.RetrievedChunk, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, text, metadata, 1 - (embedding <=> $1) AS similarity
FROM doc_chunks
WHERE metadata->>'topic' = $2
  AND 1 - (embedding <=> $1) >= $3
ORDER BY embedding <=> $1
LIMIT $4
`, pgvector.NewVector(vector), string(topic), minSimilarity, limit)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return scanChunks(rows)
}

// KeywordSearch returns chunks of guides filed under topic and jurisdiction,
// most recently updated guides first.
func (r *ChunkRepository) KeywordSearch(
	ctx context.Context,
	topic domain.Intent,
	jurisdiction string,
	limit int,
) ([]domain.RetrievedChunk, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT c.id, c.text, c.metadata, 0::float8 AS similarity
FROM doc_chunks c
JOIN documents d ON d.id = c.document_id
WHERE d.topic = $1
  AND d.jurisdiction = $2
ORDER BY d.last_updated DESC, c.chunk_index ASC
LIMIT $3
`, string(topic), jurisdiction, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return scanChunks(rows)
}

// IndexChunks replaces every chunk of the guide in one transaction.
func (r *ChunkRepository) IndexChunks(ctx context.Context, guide *domain.Guide, chunks []domain.GuideChunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin index tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM doc_chunks WHERE document_id = $1`, guide.ID); err != nil {
		return fmt.Errorf("delete old chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO doc_chunks (id, document_id, chunk_index, text, metadata, embedding)
VALUES ($1,$2,$3,$4,$5,$6)
`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metadata, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshal chunk metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			chunk.ID, guide.ID, chunk.Index, chunk.Text, metadata, pgvector.NewVector(chunk.Embedding),
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", chunk.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit index tx: %w", err)
	}
	return nil
}

func scanChunks(rows *sql.Rows) ([]domain.RetrievedChunk, error) {
	defer rows.Close()

	out := make([]domain.RetrievedChunk, 0)
	for rows.Next() {
		var (
			chunk       domain.RetrievedChunk
			metadataRaw []byte
		)
		if err := rows.Scan(&chunk.ID, &chunk.Text, &metadataRaw, &chunk.Score); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if len(metadataRaw) > 0 {
			if err := json.Unmarshal(metadataRaw, &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal chunk metadata: %w", err)
			}
		}
		out = append(out, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}
