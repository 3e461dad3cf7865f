package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
	"github.com/kirillkom/beready-legal-assistant/internal/infrastructure/resilience"
)

func testOptions() Options {
	return Options{
		ChatModel:  "llama3.1:8b",
		EmbedModel: "nomic-embed-text",
		Executor: resilience.NewExecutor(resilience.Config{
			RetryMaxAttempts:    3,
			RetryInitialBackoff: time.Millisecond,
			RetryMaxBackoff:     2 * time.Millisecond,
			BreakerEnabled:      false,
		}, nil),
	}
}

func TestChatClientSendsJSONModeRequest(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"  {\"ok\":true}\n"},"done":true}`))
	}))
	defer server.Close()

	chat := NewChatClient(New(server.URL, testOptions()))
	temperature := 0.3
	got, err := chat.Complete(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "system"},
		{Role: domain.RoleUser, Content: "question"},
	}, domain.ChatOptions{Temperature: &temperature, MaxTokens: 1024, JSONMode: true})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != `{"ok":true}` {
		t.Fatalf("unexpected content %q", got)
	}

	if captured["model"] != "llama3.1:8b" || captured["format"] != "json" || captured["stream"] != false {
		t.Fatalf("unexpected request %v", captured)
	}
	options, _ := captured["options"].(map[string]any)
	if options["temperature"] != 0.3 || options["num_predict"] != float64(1024) {
		t.Fatalf("unexpected options %v", options)
	}
	messages, _ := captured["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %v", messages)
	}
}

func TestChatClientUsesClientDefaults(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"plain"}}`))
	}))
	defer server.Close()

	chat := NewChatClient(New(server.URL, testOptions()))
	if _, err := chat.Complete(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}}, domain.ChatOptions{}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if _, ok := captured["format"]; ok {
		t.Fatalf("expected no format without JSON mode")
	}
	options, _ := captured["options"].(map[string]any)
	if options["temperature"] != defaultTemperature || options["num_predict"] != float64(defaultMaxTokens) {
		t.Fatalf("unexpected default options %v", options)
	}
}

func TestChatClientErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    error
		message string
	}{
		{name: "model missing", status: http.StatusNotFound, body: `{"error":"model \"llama3.1:8b\" not found, try pulling it first"}`, kind: domain.ErrChatModelMissing, message: "ollama pull llama3.1:8b"},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"runner crashed"}`, kind: domain.ErrChatUnavailable, message: "runner crashed"},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"invalid format"}`, kind: domain.ErrChatFailed, message: "invalid format"},
	}

	for _, tt := range tests {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(tt.body))
		}))

		chat := NewChatClient(New(server.URL, testOptions()))
		_, err := chat.Complete(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "q"}}, domain.ChatOptions{JSONMode: true})
		server.Close()

		if !errors.Is(err, tt.kind) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.kind, err)
		}
		if !strings.Contains(err.Error(), tt.message) {
			t.Fatalf("%s: expected %q in error, got %v", tt.name, tt.message, err)
		}
		if calls.Load() != 1 {
			t.Fatalf("%s: expected chat not to be retried, got %d calls", tt.name, calls.Load())
		}
	}
}

func TestChatClientUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	chat := NewChatClient(New(baseURL, testOptions()))
	_, err := chat.Complete(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "q"}}, domain.ChatOptions{})
	if !errors.Is(err, domain.ErrChatUnavailable) {
		t.Fatalf("expected ErrChatUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "make sure it is running") {
		t.Fatalf("expected connection hint, got %v", err)
	}
}

func TestChatClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	opts := testOptions()
	opts.ChatTimeout = 20 * time.Millisecond
	chat := NewChatClient(New(server.URL, opts))

	_, err := chat.Complete(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "q"}}, domain.ChatOptions{})
	if !errors.Is(err, domain.ErrChatTimeout) {
		t.Fatalf("expected ErrChatTimeout, got %v", err)
	}
}

func TestChatClientCallerCancellationIsNotTimeout(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	chat := NewChatClient(New(server.URL, testOptions()))

	_, err := chat.Complete(ctx, []domain.ChatMessage{{Role: domain.RoleUser, Content: "q"}}, domain.ChatOptions{})
	if !errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrChatTimeout) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}

func TestEmbedderBatch(t *testing.T) {
	var captured embedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2],[0.3,0.4]]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, testOptions()))
	vectors, err := embedder.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 || vectors[1][1] != 0.4 {
		t.Fatalf("unexpected vectors %v", vectors)
	}
	if captured.Model != "nomic-embed-text" || len(captured.Input) != 2 {
		t.Fatalf("unexpected request %+v", captured)
	}
}

func TestEmbedderRetriesAndKeepsBody(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "model loading", http.StatusBadGateway)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, testOptions()))
	_, err := embedder.EmbedQuery(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "model loading") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestEmbedderModelMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, testOptions()))
	_, err := embedder.EmbedQuery(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingModelMissing) {
		t.Fatalf("expected ErrEmbeddingModelMissing, got %v", err)
	}
}

func TestEmbedderCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[0.1]]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, testOptions()))
	if _, err := embedder.Embed(context.Background(), []string{"a", "b"}); !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}
