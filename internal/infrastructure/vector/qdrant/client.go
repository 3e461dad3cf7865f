package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

// ChunkStore keeps guide chunks in a Qdrant collection. Chunk metadata is
// stored flat in the point payload so searches can filter on topic.
type ChunkStore struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *ChunkStore {
	return &ChunkStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type scoredPoint struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

// HTTPStatusError is returned for any non-2xx Qdrant response.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("qdrant %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("qdrant %s status: %s: %s", e.Operation, e.Status, e.Body)
}

func (s *ChunkStore) IndexChunks(ctx context.Context, guide *domain.Guide, chunks []domain.GuideChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, len(chunks[0].Embedding)); err != nil {
		return err
	}

	deleteBody := map[string]any{"filter": mustMatch(map[string]string{"guide_id": guide.ID})}
	if err := s.doJSON(ctx, http.MethodPost, "/points/delete?wait=true", deleteBody, nil, "delete"); err != nil {
		return err
	}

	points := make([]point, 0, len(chunks))
	for _, chunk := range chunks {
		points = append(points, point{
			ID:     chunk.ID,
			Vector: chunk.Embedding,
			Payload: map[string]any{
				"guide_id":     guide.ID,
				"chunk_index":  chunk.Index,
				"text":         chunk.Text,
				"title":        chunk.Metadata.Title,
				"url":          chunk.Metadata.URL,
				"last_updated": chunk.Metadata.LastUpdated,
				"topic":        chunk.Metadata.Topic,
				"jurisdiction": chunk.Metadata.Jurisdiction,
				"source":       chunk.Metadata.Source,
			},
		})
	}
	return s.doJSON(ctx, http.MethodPut, "/points?wait=true", map[string]any{"points": points}, nil, "upsert")
}

func (s *ChunkStore) SimilaritySearch(
	ctx context.Context,
	vector []float32,
	topic domain.Intent,
	minSimilarity float64,
	limit int,
) ([]domain.RetrievedChunk, error) {
	reqBody := map[string]any{
		"vector":          vector,
		"limit":           limit,
		"score_threshold": minSimilarity,
		"with_payload":    true,
		"filter":          mustMatch(map[string]string{"topic": string(topic)}),
	}

	var resp struct {
		Result []scoredPoint `json:"result"`
	}
	if err := s.doJSON(ctx, http.MethodPost, "/points/search", reqBody, &resp, "search"); err != nil {
		return nil, err
	}
	return toChunks(resp.Result), nil
}

// KeywordSearch scrolls points by payload filter only.
func (s *ChunkStore) KeywordSearch(
	ctx context.Context,
	topic domain.Intent,
	jurisdiction string,
	limit int,
) ([]domain.RetrievedChunk, error) {
	reqBody := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
		"filter":       mustMatch(map[string]string{"topic": string(topic), "jurisdiction": jurisdiction}),
	}

	var resp struct {
		Result struct {
			Points []scoredPoint `json:"points"`
		} `json:"result"`
	}
	if err := s.doJSON(ctx, http.MethodPost, "/points/scroll", reqBody, &resp, "scroll"); err != nil {
		return nil, err
	}
	return toChunks(resp.Result.Points), nil
}

func (s *ChunkStore) ensureCollection(ctx context.Context, vectorSize int) error {
	s.ensureMu.Lock()
	if s.ensuredCollection && s.ensuredVectorSize == vectorSize {
		s.ensureMu.Unlock()
		return nil
	}
	s.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	err := s.doJSON(ctx, http.MethodPut, "", reqBody, nil, "ensure collection")
	var statusErr *HTTPStatusError
	if err != nil && !(errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict) {
		return err
	}

	s.ensureMu.Lock()
	defer s.ensureMu.Unlock()
	s.ensuredCollection = true
	s.ensuredVectorSize = vectorSize
	return nil
}

func (s *ChunkStore) doJSON(ctx context.Context, method, path string, payload, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	url := fmt.Sprintf("%s/collections/%s%s", s.baseURL, s.collection, path)
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(msg)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func mustMatch(fields map[string]string) map[string]any {
	must := make([]map[string]any, 0, len(fields))
	for _, key := range []string{"guide_id", "topic", "jurisdiction"} {
		value, ok := fields[key]
		if !ok {
			continue
		}
		must = append(must, map[string]any{
			"key":   key,
			"match": map[string]any{"value": value},
		})
	}
	return map[string]any{"must": must}
}

func toChunks(points []scoredPoint) []domain.RetrievedChunk {
	out := make([]domain.RetrievedChunk, 0, len(points))
	for _, p := range points {
		out = append(out, domain.RetrievedChunk{
			ID:   pointID(p.ID),
			Text: getStringPayload(p.Payload, "text"),
			Metadata: domain.ChunkMetadata{
				Title:        getStringPayload(p.Payload, "title"),
				URL:          getStringPayload(p.Payload, "url"),
				LastUpdated:  getStringPayload(p.Payload, "last_updated"),
				Topic:        getStringPayload(p.Payload, "topic"),
				Jurisdiction: getStringPayload(p.Payload, "jurisdiction"),
				Source:       getStringPayload(p.Payload, "source"),
			},
			Score: p.Score,
		})
	}
	return out
}

// pointID accepts both uuid and numeric point ids.
func pointID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
