package openai

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

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
	APIKey       string
	BaseURL      string
	ChatModel    string
	EmbedModel   string
	Dimensions   int
	ChatTimeout  time.Duration
	EmbedTimeout time.Duration
	Temperature  float64
	MaxTokens    int
	HTTPClient   *http.Client
	Executor     *resilience.Executor
}

// Client is an OpenAI-compatible backend for chat completions and embeddings.
type Client struct {
	api          *goopenai.Client
	baseURL      string
	chatModel    string
	embedModel   string
	dimensions   int
	chatTimeout  time.Duration
	embedTimeout time.Duration
	temperature  float64
	maxTokens    int
	executor     *resilience.Executor
}

func New(opts Options) *Client {
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
	if opts.Executor == nil {
		opts.Executor = resilience.NewExecutor(resilience.DefaultConfig(), nil)
	}

	cfg := goopenai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}

	return &Client{
		api:          goopenai.NewClientWithConfig(cfg),
		baseURL:      cfg.BaseURL,
		chatModel:    opts.ChatModel,
		embedModel:   opts.EmbedModel,
		dimensions:   opts.Dimensions,
		chatTimeout:  opts.ChatTimeout,
		embedTimeout: opts.EmbedTimeout,
		temperature:  opts.Temperature,
		maxTokens:    opts.MaxTokens,
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

	request := goopenai.EmbeddingRequest{
		Model: goopenai.EmbeddingModel(e.client.embedModel),
		Input: texts,
	}
	if e.client.dimensions > 0 {
		request.Dimensions = e.client.dimensions
	}

	resp, err := resilience.Do(callCtx, e.client.executor, "openai.embed", func(ctx context.Context) (goopenai.EmbeddingResponse, error) {
		return e.client.api.CreateEmbeddings(ctx, request)
	}, classifyOpenAIError)
	if err != nil {
		return nil, e.client.backendError(ctx, embeddingKinds, "embed", e.client.embedModel, e.client.embedTimeout, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, domain.WrapError(
			domain.ErrEmbeddingUnavailable,
			"openai embed",
			fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
		)
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	vectors := make([][]float32, len(data))
	for i, datum := range data {
		if e.client.dimensions > 0 && len(datum.Embedding) != e.client.dimensions {
			return nil, domain.WrapError(
				domain.ErrEmbeddingUnavailable,
				"openai embed",
				fmt.Errorf("embedding dimension mismatch: expected %d, got %d", e.client.dimensions, len(datum.Embedding)),
			)
		}
		vectors[i] = datum.Embedding
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "openai embed", fmt.Errorf("empty embedding result"))
	}
	return vectors[0], nil
}

type ChatClient struct {
	client *Client
}

func NewChatClient(client *Client) *ChatClient {
	return &ChatClient{client: client}
}

func (c *ChatClient) Complete(ctx context.Context, messages []domain.ChatMessage, opts domain.ChatOptions) (string, error) {
	temperature := c.client.temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	maxTokens := c.client.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	request := goopenai.ChatCompletionRequest{
		Model:       c.client.chatModel,
		Messages:    make([]goopenai.ChatCompletionMessage, len(messages)),
		Temperature: float32(temperature),
		MaxTokens:   maxTokens,
	}
	for i, message := range messages {
		request.Messages[i] = goopenai.ChatCompletionMessage{
			Role:    string(message.Role),
			Content: message.Content,
		}
	}
	if opts.JSONMode {
		request.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.client.chatTimeout)
	defer cancel()

	resp, err := resilience.Do(callCtx, c.client.executor, "openai.chat", func(ctx context.Context) (goopenai.ChatCompletionResponse, error) {
		return c.client.api.CreateChatCompletion(ctx, request)
	}, classifyOpenAIError, resilience.WithoutRetry())
	if err != nil {
		return "", c.client.backendError(ctx, chatKinds, "chat", c.client.chatModel, c.client.chatTimeout, err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.WrapError(domain.ErrChatFailed, "openai chat", fmt.Errorf("completion returned no choices"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
