package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

type embedderFake struct {
	vector  []float32
	err     error
	queries []string
	batches [][]string
	vectors [][]float32
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, texts)
	if f.err != nil {
		return nil, f.err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 0.5}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.queries = append(f.queries, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type searcherFake struct {
	similar    []domain.RetrievedChunk
	similarErr error
	keyword    []domain.RetrievedChunk
	keywordErr error

	similarCalls     int
	keywordCalls     int
	topic            domain.Intent
	threshold        float64
	limit            int
	jurisdiction     string
	similarityVector []float32
}

func (f *searcherFake) SimilaritySearch(_ context.Context, vector []float32, topic domain.Intent, minSimilarity float64, limit int) ([]domain.RetrievedChunk, error) {
	f.similarCalls++
	f.similarityVector = vector
	f.topic = topic
	f.threshold = minSimilarity
	f.limit = limit
	if f.similarErr != nil {
		return nil, f.similarErr
	}
	return f.similar, nil
}

func (f *searcherFake) KeywordSearch(_ context.Context, topic domain.Intent, jurisdiction string, limit int) ([]domain.RetrievedChunk, error) {
	f.keywordCalls++
	f.topic = topic
	f.jurisdiction = jurisdiction
	f.limit = limit
	if f.keywordErr != nil {
		return nil, f.keywordErr
	}
	return f.keyword, nil
}

// chatFake replays scripted responses, one per call.
type chatFake struct {
	responses []string
	errs      []error
	calls     int
	messages  [][]domain.ChatMessage
	opts      []domain.ChatOptions
}

func (f *chatFake) Complete(_ context.Context, messages []domain.ChatMessage, opts domain.ChatOptions) (string, error) {
	idx := f.calls
	f.calls++
	f.messages = append(f.messages, messages)
	f.opts = append(f.opts, opts)
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx >= len(f.responses) {
		return "", errors.New("unexpected chat call")
	}
	return f.responses[idx], nil
}

type qaEventStoreFake struct {
	mu        sync.Mutex
	inserted  []*domain.QAEvent
	insertErr error
	events    map[string]*domain.QAEvent
	getErr    error
}

func (f *qaEventStoreFake) InsertQAEvent(_ context.Context, event *domain.QAEvent) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, event)
	if f.insertErr != nil {
		return "", f.insertErr
	}
	return event.ID, nil
}

func (f *qaEventStoreFake) GetQAEvent(_ context.Context, id string) (*domain.QAEvent, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	event, ok := f.events[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get qa event", errors.New("no rows"))
	}
	return event, nil
}

const validAnswerJSON = `{
  "jurisdiction": "UK",
  "short_answer": "Your landlord must protect your deposit in a government-approved scheme.",
  "step_by_step_plan": ["Check which deposit scheme holds your deposit", "Write to your landlord asking for the deposit back"],
  "risks_or_deadlines": ["Claims about unprotected deposits should be raised promptly"],
  "when_to_seek_a_solicitor": "If your landlord refuses to return the deposit or never protected it.",
  "citations": [{"title": "Tenancy deposit protection", "url": "https://www.gov.uk/tenancy-deposit-protection", "last_updated": "2024-01-10"}],
  "confidence": 0.8
}`

const wrongSchemaJSON = `{
  "jurisdiction": "US",
  "short_answer": "",
  "step_by_step_plan": [],
  "risks_or_deadlines": [],
  "when_to_seek_a_solicitor": "If unsure.",
  "citations": [],
  "confidence": 1.5
}`

func depositChunks() []domain.RetrievedChunk {
	return []domain.RetrievedChunk{
		{ID: "chunk-1", Text: "Landlords must protect deposits within 30 days.", Metadata: domain.ChunkMetadata{Title: "Tenancy deposit protection", URL: "https://www.gov.uk/tenancy-deposit-protection", LastUpdated: "2024-01-10", Topic: "tenancy", Jurisdiction: "UK", Source: "gov.uk"}, Score: 0.91},
		{ID: "chunk-2", Text: "You can use the scheme's free dispute service.", Metadata: domain.ChunkMetadata{Title: "Deposit disputes", URL: "https://www.gov.uk/deposit-disputes", LastUpdated: "2023-11-02", Topic: "tenancy", Jurisdiction: "UK", Source: "gov.uk"}, Score: 0.84},
		{ID: "chunk-3", Text: "You can take your landlord to court if the deposit was not protected.", Metadata: domain.ChunkMetadata{Title: "Unprotected deposits", URL: "https://www.gov.uk/unprotected-deposits", LastUpdated: "2023-09-15", Topic: "tenancy", Jurisdiction: "UK", Source: "gov.uk"}, Score: 0.77},
	}
}
