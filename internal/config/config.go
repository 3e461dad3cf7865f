package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	BackendPgvector = "pgvector"
	BackendQdrant   = "qdrant"
)

type Config struct {
	APIPort  string
	LogLevel string

	PostgresDSN string

	NATSURL     string
	NATSSubject string

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	EmbeddingCacheTTL time.Duration

	LLMProvider string

	OllamaURL        string
	OllamaChatModel  string
	OllamaEmbedModel string

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIChatModel  string
	OpenAIEmbedModel string

	LLMTimeout        time.Duration
	EmbedTimeout      time.Duration
	LLMTemperature    float64
	AnswerTemperature float64
	LLMMaxTokens      int

	VectorBackend       string
	QdrantURL           string
	QdrantCollection    string
	EmbeddingDimensions int

	RAGMinSimilarity float64
	RAGMaxResults    int

	GuidesPath          string
	IngestConcurrency   int
	ChunkMinTokens      int
	ChunkMaxTokens      int
	ChunkOverlapPercent int

	APIRateLimitRPS   float64
	APIRateLimitBurst int
	APIMaxInFlight    int
	APIKey            string

	MCPUserID string

	WorkerMetricsPort string

	ResilienceBreakerEnabled          bool
	ResilienceBreakerMinRequests      int
	ResilienceBreakerFailureRatio     float64
	ResilienceBreakerOpenTimeout      time.Duration
	ResilienceBreakerHalfOpenMaxCalls int
	ResilienceRetryMaxAttempts        int
	ResilienceRetryInitialBackoff     time.Duration
	ResilienceRetryMaxBackoff         time.Duration
	ResilienceRetryMultiplier         float64
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("APP_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: mustEnv("NATS_SUBJECT", "guides.ingest"),

		RedisAddr:         mustEnv("REDIS_ADDR", ""),
		RedisPassword:     mustEnv("REDIS_PASSWORD", ""),
		RedisDB:           mustEnvInt("REDIS_DB", 0),
		EmbeddingCacheTTL: mustEnvDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),

		LLMProvider: strings.ToLower(mustEnv("LLM_PROVIDER", ProviderOllama)),

		OllamaURL:        mustEnv("OLLAMA_URL", "http://127.0.0.1:11434"),
		OllamaChatModel:  mustEnv("OLLAMA_CHAT_MODEL", "llama3.1:8b"),
		OllamaEmbedModel: mustEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),

		OpenAIAPIKey:     mustEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    mustEnv("OPENAI_BASE_URL", ""),
		OpenAIChatModel:  mustEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		OpenAIEmbedModel: mustEnv("OPENAI_EMBED_MODEL", "text-embedding-3-small"),

		LLMTimeout:        mustEnvDuration("LLM_TIMEOUT", 120*time.Second),
		EmbedTimeout:      mustEnvDuration("EMBED_TIMEOUT", 30*time.Second),
		LLMTemperature:    mustEnvFloat("LLM_TEMPERATURE", 0.2),
		AnswerTemperature: mustEnvFloat("ANSWER_TEMPERATURE", 0.3),
		LLMMaxTokens:      mustEnvInt("LLM_MAX_TOKENS", 4096),

		VectorBackend:       strings.ToLower(mustEnv("VECTOR_BACKEND", BackendPgvector)),
		QdrantURL:           mustEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:    mustEnv("QDRANT_COLLECTION", "uk_guidance"),
		EmbeddingDimensions: mustEnvInt("EMBEDDING_DIMENSIONS", 768),

		RAGMinSimilarity: mustEnvFloat("RAG_MIN_SIMILARITY", 0.5),
		RAGMaxResults:    mustEnvInt("RAG_MAX_RESULTS", 5),

		GuidesPath:          mustEnv("GUIDES_PATH", "./guides"),
		IngestConcurrency:   mustEnvInt("INGEST_CONCURRENCY", 4),
		ChunkMinTokens:      mustEnvInt("CHUNK_MIN_TOKENS", 400),
		ChunkMaxTokens:      mustEnvInt("CHUNK_MAX_TOKENS", 800),
		ChunkOverlapPercent: mustEnvInt("CHUNK_OVERLAP_PERCENT", 15),

		APIRateLimitRPS:   mustEnvFloat("API_RATE_LIMIT_RPS", 5),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInFlight:    mustEnvInt("API_MAX_INFLIGHT", 32),
		APIKey:            mustEnv("API_KEY", ""),

		MCPUserID: mustEnv("MCP_USER_ID", "mcp"),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),

		ResilienceBreakerEnabled:          mustEnvBool("RESILIENCE_BREAKER_ENABLED", true),
		ResilienceBreakerMinRequests:      mustEnvInt("RESILIENCE_BREAKER_MIN_REQUESTS", 10),
		ResilienceBreakerFailureRatio:     mustEnvFloat("RESILIENCE_BREAKER_FAILURE_RATIO", 0.5),
		ResilienceBreakerOpenTimeout:      mustEnvDuration("RESILIENCE_BREAKER_OPEN_TIMEOUT", 30*time.Second),
		ResilienceBreakerHalfOpenMaxCalls: mustEnvInt("RESILIENCE_BREAKER_HALF_OPEN_MAX_CALLS", 2),
		ResilienceRetryMaxAttempts:        mustEnvInt("RESILIENCE_RETRY_MAX_ATTEMPTS", 3),
		ResilienceRetryInitialBackoff:     mustEnvDuration("RESILIENCE_RETRY_INITIAL_BACKOFF", 100*time.Millisecond),
		ResilienceRetryMaxBackoff:         mustEnvDuration("RESILIENCE_RETRY_MAX_BACKOFF", 400*time.Millisecond),
		ResilienceRetryMultiplier:         mustEnvFloat("RESILIENCE_RETRY_MULTIPLIER", 2.0),
	}
}

// Validate reports every setting that would stop a process from starting.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.PostgresDSN) == "" {
		errs = append(errs, errors.New("POSTGRES_DSN is required"))
	}
	switch c.LLMProvider {
	case ProviderOllama:
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" && c.OpenAIBaseURL == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY or OPENAI_BASE_URL is required when LLM_PROVIDER=openai"))
		}
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderOllama, ProviderOpenAI, c.LLMProvider))
	}
	switch c.VectorBackend {
	case BackendPgvector, BackendQdrant:
	default:
		errs = append(errs, fmt.Errorf("VECTOR_BACKEND must be %q or %q, got %q", BackendPgvector, BackendQdrant, c.VectorBackend))
	}
	if c.EmbeddingDimensions <= 0 {
		errs = append(errs, errors.New("EMBEDDING_DIMENSIONS must be positive"))
	}
	if c.RAGMinSimilarity <= 0 || c.RAGMinSimilarity > 1 {
		errs = append(errs, errors.New("RAG_MIN_SIMILARITY must be within (0, 1]"))
	}
	return errors.Join(errs...)
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
