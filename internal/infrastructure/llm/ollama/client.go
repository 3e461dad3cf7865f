package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
	"github.com/kirillkom/beready-legal-assistant/internal/infrastructure/resilience"
)

const (
	defaultChatTimeout  = 120 * time.Second
	defaultEmbedTimeout = 30 * time.Second
	defaultTemperature  = 0.2
	defaultMaxTokens    = 4096
)

type Options struct {
	ChatModel    string
	EmbedModel   string
	ChatTimeout  time.Duration
	EmbedTimeout time.Duration
	Temperature  float64
	MaxTokens    int
	HTTPClient   *http.Client
	Executor     *resilience.Executor
}

type Client struct {
	baseURL      string
	chatModel    string
	embedModel   string
	chatTimeout  time.Duration
	embedTimeout time.Duration
	temperature  float64
	maxTokens    int
	httpClient   *http.Client
	executor     *resilience.Executor
}

func New(baseURL string, opts Options) *Client {
	if opts.ChatTimeout <= 0 {
		opts.ChatTimeout = defaultChatTimeout
	}
	if opts.EmbedTimeout <= 0 {
		opts.EmbedTimeout = defaultEmbedTimeout
	}
	if opts.Temperature <= 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.HTTPClient == nil {
		// deadlines come from the per-call context
		opts.HTTPClient = &http.Client{}
	}
	if opts.Executor == nil {
		opts.Executor = resilience.NewExecutor(resilience.DefaultConfig(), nil)
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		chatModel:    opts.ChatModel,
		embedModel:   opts.EmbedModel,
		chatTimeout:  opts.ChatTimeout,
		embedTimeout: opts.EmbedTimeout,
		temperature:  opts.Temperature,
		maxTokens:    opts.MaxTokens,
		httpClient:   opts.HTTPClient,
		executor:     opts.Executor,
	}
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.client.embedTimeout)
	defer cancel()

	request := embedRequest{
		Model: e.client.embedModel,
		Input: texts,
	}
	vectors, err := resilience.Do(callCtx, e.client.executor, "ollama.embed", func(ctx context.Context) ([][]float32, error) {
		var response embedResponse
		if err := e.client.postJSON(ctx, "/api/embed", request, &response, "embed"); err != nil {
			return nil, err
		}
		return response.Embeddings, nil
	}, classifyOllamaError)
	if err != nil {
		return nil, e.client.backendError(ctx, embeddingKinds, "embed", e.client.embedModel, e.client.embedTimeout, err)
	}
	if len(vectors) != len(texts) {
		return nil, domain.WrapError(
			domain.ErrEmbeddingUnavailable,
			"ollama embed",
			fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors)),
		)
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "ollama embed", fmt.Errorf("empty embedding result"))
	}
	return vectors[0], nil
}

// ChatClient talks to /api/chat. Transport failures are never retried.
type ChatClient struct {
	client *Client
}

func NewChatClient(client *Client) *ChatClient {
	return &ChatClient{client: client}
}

func (c *ChatClient) Complete(ctx context.Context, messages []domain.ChatMessage, opts domain.ChatOptions) (string, error) {
	request := chatRequest{
		Model:    c.client.chatModel,
		Messages: make([]chatMessage, 0, len(messages)),
		Stream:   false,
		Options: chatRequestOptions{
			Temperature: c.client.temperature,
			NumPredict:  c.client.maxTokens,
		},
	}
	for _, message := range messages {
		request.Messages = append(request.Messages, chatMessage{Role: string(message.Role), Content: message.Content})
	}
	if opts.Temperature != nil {
		request.Options.Temperature = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		request.Options.NumPredict = opts.MaxTokens
	}
	if opts.JSONMode {
		request.Format = "json"
	}

	callCtx, cancel := context.WithTimeout(ctx, c.client.chatTimeout)
	defer cancel()

	response, err := resilience.Do(callCtx, c.client.executor, "ollama.chat", func(ctx context.Context) (chatResponse, error) {
		var response chatResponse
		err := c.client.postJSON(ctx, "/api/chat", request, &response, "chat")
		return response, err
	}, classifyOllamaError, resilience.WithoutRetry())
	if err != nil {
		return "", c.client.backendError(ctx, chatKinds, "chat", c.client.chatModel, c.client.chatTimeout, err)
	}
	return strings.TrimSpace(response.Message.Content), nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequestOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type chatRequest struct {
	Model    string             `json:"model"`
	Messages []chatMessage      `json:"messages"`
	Stream   bool               `json:"stream"`
	Format   string             `json:"format,omitempty"`
	Options  chatRequestOptions `json:"options"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}
