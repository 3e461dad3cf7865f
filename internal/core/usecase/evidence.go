package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

const (
	evidenceHeader = "UK LEGAL GUIDANCE CONTEXT:\n\n"

	// EmptyEvidencePack is what FormatEvidencePack returns for no chunks.
	EmptyEvidencePack = "No relevant UK legal information found for this query."

	// DegradedEvidencePack replaces retrieved guidance when the question could not be embedded.
	DegradedEvidencePack = "Error retrieving legal information. Legal guidance sources are temporarily unavailable, " +
		"so answer cautiously, say that no sources could be checked and point the user to official UK government resources."
)

// NoGuidanceEvidencePack is used when every retrieval step came back empty.
func NoGuidanceEvidencePack(intent domain.Intent) string {
	return fmt.Sprintf(
		"No specific UK legal guidance found for %q topic. Please consult official UK government resources or seek professional legal advice.",
		intent.String(),
	)
}

// FormatEvidencePack renders chunks, in order, into the context block placed in the user prompt.
func FormatEvidencePack(chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return EmptyEvidencePack
	}

	var b strings.Builder
	b.WriteString(evidenceHeader)
	for i, chunk := range chunks {
		meta := chunk.Metadata.WithDefaults()
		fmt.Fprintf(&b, "Source %d: %s\n", i+1, meta.Title)
		fmt.Fprintf(&b, "URL: %s\n", meta.URL)
		fmt.Fprintf(&b, "Last Updated: %s\n", meta.LastUpdated)
		fmt.Fprintf(&b, "Topic: %s\n", meta.Topic)
		fmt.Fprintf(&b, "Jurisdiction: %s\n", meta.Jurisdiction)
		fmt.Fprintf(&b, "Content: %s\n\n", strings.TrimSpace(chunk.Text))
	}
	return b.String()
}
