package domain

type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ChatOptions tunes a single completion. Zero values fall back to client defaults.
type ChatOptions struct {
	Temperature *float64
	MaxTokens   int
	JSONMode    bool
}
