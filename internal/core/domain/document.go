package domain

import "time"

// Guide is a source document of official guidance that chunks are cut from.
type Guide struct {
	ID           string    `json:"id"`
	StorageKey   string    `json:"storage_key"`
	Title        string    `json:"title" yaml:"title"`
	URL          string    `json:"url" yaml:"url"`
	LastUpdated  string    `json:"last_updated" yaml:"last_updated"`
	Topic        string    `json:"topic" yaml:"topic"`
	Jurisdiction string    `json:"jurisdiction" yaml:"jurisdiction"`
	Source       string    `json:"source" yaml:"source"`
	RawText      string    `json:"-" yaml:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ChunkMetadata is copied onto every chunk so retrieval never needs a join.
func (g *Guide) ChunkMetadata() ChunkMetadata {
	return ChunkMetadata{
		Title:        g.Title,
		URL:          g.URL,
		LastUpdated:  g.LastUpdated,
		Topic:        g.Topic,
		Jurisdiction: g.Jurisdiction,
		Source:       g.Source,
	}
}

type GuideChunk struct {
	ID        string
	GuideID   string
	Index     int
	Text      string
	Metadata  ChunkMetadata
	Embedding []float32
}
