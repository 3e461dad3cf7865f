package usecase

import (
	"strings"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

// intentKeywords is checked in order; the first topic with a matching keyword wins.
var intentKeywords = []struct {
	intent   domain.Intent
	keywords []string
}{
	{
		intent:   domain.IntentTenancy,
		keywords: []string{"rent", "landlord", "tenant", "deposit", "eviction", "section 21", "heating", "repair"},
	},
	{
		intent:   domain.IntentConsumer,
		keywords: []string{"refund", "faulty", "return", "consumer", "purchase", "product", "shop", "buy"},
	},
	{
		intent:   domain.IntentContracts,
		keywords: []string{"contract", "agreement", "cancel", "terms", "cooling off", "binding"},
	},
}

// ClassifyIntent maps a question to a topic by keyword presence.
// Matching is substring based and questions with no match default to tenancy.
func ClassifyIntent(question string) domain.Intent {
	lowered := strings.ToLower(question)
	for _, set := range intentKeywords {
		for _, keyword := range set.keywords {
			if strings.Contains(lowered, keyword) {
				return set.intent
			}
		}
	}
	return domain.IntentTenancy
}
