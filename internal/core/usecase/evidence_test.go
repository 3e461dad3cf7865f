package usecase

import (
	"strings"
	"testing"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

func TestFormatEvidencePackEmpty(t *testing.T) {
	for _, chunks := range [][]domain.RetrievedChunk{nil, {}} {
		if got := FormatEvidencePack(chunks); got == "" {
			t.Fatalf("expected non-empty pack for %v", chunks)
		}
	}
}

func TestFormatEvidencePackAppliesDefaults(t *testing.T) {
	got := FormatEvidencePack([]domain.RetrievedChunk{{ID: "c1", Text: "  Some guidance.  "}})
	want := "UK LEGAL GUIDANCE CONTEXT:\n\n" +
		"Source 1: Unknown Title\n" +
		"URL: No URL\n" +
		"Last Updated: Unknown date\n" +
		"Topic: Unknown topic\n" +
		"Jurisdiction: UK\n" +
		"Content: Some guidance.\n\n"
	if got != want {
		t.Fatalf("unexpected pack:\n%q\nwant:\n%q", got, want)
	}
}

func TestFormatEvidencePackKeepsOrderAndIsDeterministic(t *testing.T) {
	chunks := depositChunks()
	first := FormatEvidencePack(chunks)
	second := FormatEvidencePack(chunks)
	if first != second {
		t.Fatalf("expected deterministic output")
	}

	idx1 := strings.Index(first, "Source 1: Tenancy deposit protection")
	idx2 := strings.Index(first, "Source 2: Deposit disputes")
	idx3 := strings.Index(first, "Source 3: Unprotected deposits")
	if idx1 < 0 || idx2 < idx1 || idx3 < idx2 {
		t.Fatalf("expected sources in input order, got:\n%s", first)
	}
	if !strings.Contains(first, "URL: https://www.gov.uk/deposit-disputes\nLast Updated: 2023-11-02\n") {
		t.Fatalf("expected metadata lines, got:\n%s", first)
	}
}

func TestNoGuidanceEvidencePackNamesTopic(t *testing.T) {
	got := NoGuidanceEvidencePack(domain.IntentConsumer)
	if !strings.Contains(got, `"consumer"`) {
		t.Fatalf("expected topic in pack, got %q", got)
	}
}
