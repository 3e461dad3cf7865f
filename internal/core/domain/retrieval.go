package domain

// Jurisdiction is the only jurisdiction guidance is filed and answered under.
const Jurisdiction = "UK"

type ChunkMetadata struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	LastUpdated  string `json:"last_updated"`
	Topic        string `json:"topic"`
	Jurisdiction string `json:"jurisdiction"`
	Source       string `json:"source"`
}

// WithDefaults fills absent fields with the placeholders shown in evidence packs.
func (m ChunkMetadata) WithDefaults() ChunkMetadata {
	if m.Title == "" {
		m.Title = "Unknown Title"
	}
	if m.URL == "" {
		m.URL = "No URL"
	}
	if m.LastUpdated == "" {
		m.LastUpdated = "Unknown date"
	}
	if m.Topic == "" {
		m.Topic = "Unknown topic"
	}
	if m.Jurisdiction == "" {
		m.Jurisdiction = Jurisdiction
	}
	return m
}

type RetrievedChunk struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
	Score    float64       `json:"score"`
}

// RetrievalSource records which retrieval step produced the evidence.
type RetrievalSource string

const (
	RetrievalVector   RetrievalSource = "vector"
	RetrievalKeyword  RetrievalSource = "keyword"
	RetrievalNone     RetrievalSource = "none"
	RetrievalDegraded RetrievalSource = "degraded"
)

// Evidence is what the retriever hands back: a prompt-ready pack and the chunks behind it.
type Evidence struct {
	Pack   string
	Chunks []RetrievedChunk
	Source RetrievalSource
}

type RAGResult struct {
	Intent         Intent
	EvidencePack   string
	Chunks         []RetrievedChunk
	QueryEmbedding []float32
	Source         RetrievalSource
}

// ChunkIDs returns the non-empty chunk ids in retrieval order.
func (r RAGResult) ChunkIDs() []string {
	ids := make([]string, 0, len(r.Chunks))
	for _, chunk := range r.Chunks {
		if chunk.ID != "" {
			ids = append(ids, chunk.ID)
		}
	}
	return ids
}
