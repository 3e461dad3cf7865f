package usecase

import (
	"testing"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		question string
		want     domain.Intent
	}{
		{question: "My landlord won't return my deposit, what can I do?", want: domain.IntentTenancy},
		{question: "Can my LANDLORD keep the Deposit?", want: domain.IntentTenancy},
		{question: "I was served a section 21 notice", want: domain.IntentTenancy},
		{question: "Can I get a refund for a faulty kettle?", want: domain.IntentConsumer},
		{question: "The product I bought online broke", want: domain.IntentConsumer},
		{question: "How do I cancel my gym contract?", want: domain.IntentContracts},
		{question: "Is the cooling off period binding?", want: domain.IntentContracts},
		{question: "Is a verbal promise legally enforceable?", want: domain.IntentTenancy},
	}

	for _, tt := range tests {
		if got := ClassifyIntent(tt.question); got != tt.want {
			t.Fatalf("ClassifyIntent(%q) = %s, want %s", tt.question, got, tt.want)
		}
	}
}

func TestClassifyIntentCheckOrder(t *testing.T) {
	// tenancy is checked before consumer, consumer before contracts
	if got := ClassifyIntent("My landlord sold me a faulty fridge"); got != domain.IntentTenancy {
		t.Fatalf("expected tenancy to win over consumer, got %s", got)
	}
	if got := ClassifyIntent("I want to cancel the order and get a refund"); got != domain.IntentConsumer {
		t.Fatalf("expected consumer to win over contracts, got %s", got)
	}
}
