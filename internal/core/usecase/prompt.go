package usecase

import (
	"fmt"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

// SystemPrompt scopes every answer to UK law and to the supplied evidence.
const SystemPrompt = `You are BeReady, a UK consumer & housing rights assistant.

CRITICAL RULES:
1. ALWAYS scope responses to UK law and explicitly state "UK" in every answer
2. Use ONLY the provided Context from retrieval - never use your training data for legal advice
3. If critical information is missing from the context, clearly state what's missing and suggest next steps
4. Return ONLY valid JSON that matches the required schema
5. Always cite sources with title, url, and last_updated from the context
6. When UK nations (England, Wales, Scotland, Northern Ireland) have different laws, ask a brief clarifying question before giving steps
7. Write in plain English - this is information, not legal advice
8. Always include the disclaimer that this is information for UK law, not legal advice

RESPONSE FORMAT:
Your response must be valid JSON matching the exact schema provided. Include:
- jurisdiction: Always "UK"
- short_answer: Clear, direct answer to the user's question
- step_by_step_plan: Practical actions the user can take
- risks_or_deadlines: Important time limits or potential consequences
- when_to_seek_a_solicitor: Specific circumstances requiring professional help
- citations: Sources from the provided context
- confidence: Your confidence level in the response (0-1)`

const answerSchemaExample = `{
  "jurisdiction": "UK",
  "short_answer": "Direct answer to the user's question",
  "step_by_step_plan": ["Step 1", "Step 2", "Step 3"],
  "risks_or_deadlines": ["Important deadline or risk"],
  "when_to_seek_a_solicitor": "Specific circumstances requiring legal help",
  "citations": [{"title": "Source title", "url": "Source URL", "last_updated": "YYYY-MM-DD"}],
  "confidence": 0.85
}`

const (
	parseRepairSystemNote = "The previous response was not valid JSON. Please provide a valid JSON response that matches the schema exactly."
	parseRepairUserNote   = "The above response is not valid JSON. Please provide the same information but in valid JSON format matching the required schema."
)

func BuildUserPrompt(question, evidencePack string) string {
	return fmt.Sprintf(`QUESTION: %s

CONTEXT (Use ONLY this information for your response):
%s

Provide a helpful response about UK law using ONLY the context provided above. If the context doesn't contain enough information to fully answer the question, state what specific information is missing and suggest next steps.

Return your response as valid JSON matching this schema:
%s`, question, evidencePack, answerSchemaExample)
}

// BuildMessages is the first attempt: the system prompt and one user turn.
func BuildMessages(question, evidencePack string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: SystemPrompt},
		{Role: domain.RoleUser, Content: BuildUserPrompt(question, evidencePack)},
	}
}

// BuildParseRepairMessages replays the unparseable output so the model can see what it sent.
func BuildParseRepairMessages(question, evidencePack, rawOutput string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: SystemPrompt + "\n\n" + parseRepairSystemNote},
		{Role: domain.RoleUser, Content: BuildUserPrompt(question, evidencePack)},
		{Role: domain.RoleAssistant, Content: rawOutput},
		{Role: domain.RoleUser, Content: parseRepairUserNote},
	}
}

// BuildValidationRepairMessages starts over with the schema violations listed in the system prompt.
func BuildValidationRepairMessages(question, evidencePack string, validationErr *ValidationError) []domain.ChatMessage {
	system := fmt.Sprintf(
		"%s\n\nValidation Error: %s. Please correct these issues and provide a valid response.",
		SystemPrompt,
		validationErr.Summary(),
	)
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: system},
		{Role: domain.RoleUser, Content: BuildUserPrompt(question, evidencePack)},
	}
}
