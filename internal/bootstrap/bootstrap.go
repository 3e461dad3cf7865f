package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kirillkom/beready-legal-assistant/internal/config"
	"github.com/kirillkom/beready-legal-assistant/internal/core/ports"
	"github.com/kirillkom/beready-legal-assistant/internal/core/usecase"
	"github.com/kirillkom/beready-legal-assistant/internal/infrastructure/cache/redis"
	"github.com/kirillkom/beready-legal-assistant/internal/infrastructure/chunking"
	"github.com/kirillkom/beready-legal-assistant/internal/infrastructure/extractor/guide"
	"github.com/kirillkom/beready-legal-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/beready-legal-assistant/internal/infrastructure/llm/openai"
	"github.com/kirillkom/beready-legal-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/beready-legal-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/beready-legal-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/beready-legal-assistant/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/beready-legal-assistant/internal/infrastructure/vector/qdrant"
)

// Options selects the optional parts of the graph a process needs.
type Options struct {
	Logger *slog.Logger

	// OnBreakerStateChange receives circuit breaker transitions, usually a metrics hook.
	OnBreakerStateChange func(operation, from, to string)

	// Guides opens the guide storage and builds the processing pipeline.
	Guides bool
	// Queue connects to NATS for publishing and consuming ingestion events.
	Queue bool
}

type App struct {
	Config config.Config
	Logger *slog.Logger
	DB     *sql.DB

	AnswerUC   *usecase.AnswerUseCase
	FeedbackUC *usecase.FeedbackUseCase

	Storage   *localfs.Storage
	Queue     *nats.Queue
	IngestUC  ports.GuidePublisher
	ProcessUC ports.GuideProcessor
	IndexUC   *usecase.IndexGuidesUseCase

	closeFn func()
}

type llmBackend struct {
	embedder   ports.Embedder
	chat       ports.ChatCompleter
	embedModel string
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*App, error) {
		closeAll()
		return nil, err
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	closers = append(closers, func() { _ = db.Close() })
	if err := postgres.EnsureSchema(ctx, db, cfg.EmbeddingDimensions); err != nil {
		return fail(fmt.Errorf("ensure schema: %w", err))
	}

	executor := resilience.NewExecutor(resilienceConfig(cfg, opts.OnBreakerStateChange), logger)
	backend := newLLMBackend(cfg, executor)

	queryEmbedder := backend.embedder
	if cfg.RedisAddr != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			// the cache is optional, answers still work without it
			logger.Warn("embedding_cache_disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			closers = append(closers, func() { _ = redisClient.Close() })
			queryEmbedder = redis.NewEmbeddingCache(backend.embedder, redisClient, backend.embedModel, cfg.EmbeddingCacheTTL, logger)
		}
	}

	chunkStore := newChunkStore(cfg, db)
	qaEvents := postgres.NewQAEventRepository(db)

	retriever := usecase.NewEvidenceRetriever(chunkStore, usecase.RetrievalLimits{
		MinSimilarity: cfg.RAGMinSimilarity,
		MaxResults:    cfg.RAGMaxResults,
	}, logger)
	rag := usecase.NewRAGPipeline(queryEmbedder, retriever, logger)
	validator := usecase.NewResponseValidator()
	answerUC := usecase.NewAnswerUseCase(rag, backend.chat, validator, qaEvents, usecase.AnswerLimits{
		Temperature: cfg.AnswerTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
	}, logger)
	feedbackUC := usecase.NewFeedbackUseCase(qaEvents, postgres.NewFeedbackRepository(db), validator)

	app := &App{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		AnswerUC:   answerUC,
		FeedbackUC: feedbackUC,
	}

	if opts.Guides || opts.Queue {
		storage, err := localfs.New(cfg.GuidesPath)
		if err != nil {
			return fail(fmt.Errorf("init guide storage: %w", err))
		}
		app.Storage = storage
	}

	if opts.Guides {
		chunker := chunking.NewSentenceChunker(cfg.ChunkMinTokens, cfg.ChunkMaxTokens, cfg.ChunkOverlapPercent)
		processUC := usecase.NewProcessGuideUseCase(
			guide.NewExtractor(app.Storage),
			postgres.NewGuideRepository(db),
			chunker,
			backend.embedder,
			chunkStore,
		)
		app.ProcessUC = processUC
		app.IndexUC = usecase.NewIndexGuidesUseCase(app.Storage, processUC, cfg.IngestConcurrency, logger)
	}

	if opts.Queue {
		queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			return fail(fmt.Errorf("init message queue: %w", err))
		}
		closers = append(closers, queue.Close)
		app.Queue = queue
		app.IngestUC = usecase.NewIngestGuideUseCase(app.Storage, queue)
	}

	app.closeFn = closeAll
	return app, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newLLMBackend(cfg config.Config, executor *resilience.Executor) llmBackend {
	if cfg.LLMProvider == config.ProviderOpenAI {
		client := openai.New(openai.Options{
			APIKey:       cfg.OpenAIAPIKey,
			BaseURL:      cfg.OpenAIBaseURL,
			ChatModel:    cfg.OpenAIChatModel,
			EmbedModel:   cfg.OpenAIEmbedModel,
			Dimensions:   cfg.EmbeddingDimensions,
			ChatTimeout:  cfg.LLMTimeout,
			EmbedTimeout: cfg.EmbedTimeout,
			Temperature:  cfg.LLMTemperature,
			MaxTokens:    cfg.LLMMaxTokens,
			Executor:     executor,
		})
		return llmBackend{
			embedder:   openai.NewEmbedder(client),
			chat:       openai.NewChatClient(client),
			embedModel: "openai:" + cfg.OpenAIEmbedModel,
		}
	}

	client := ollama.New(cfg.OllamaURL, ollama.Options{
		ChatModel:    cfg.OllamaChatModel,
		EmbedModel:   cfg.OllamaEmbedModel,
		ChatTimeout:  cfg.LLMTimeout,
		EmbedTimeout: cfg.EmbedTimeout,
		Temperature:  cfg.LLMTemperature,
		MaxTokens:    cfg.LLMMaxTokens,
		Executor:     executor,
	})
	return llmBackend{
		embedder:   ollama.NewEmbedder(client),
		chat:       ollama.NewChatClient(client),
		embedModel: "ollama:" + cfg.OllamaEmbedModel,
	}
}

func newChunkStore(cfg config.Config, db *sql.DB) ports.ChunkStore {
	if cfg.VectorBackend == config.BackendQdrant {
		return qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	}
	return postgres.NewChunkRepository(db)
}

func resilienceConfig(cfg config.Config, onStateChange func(operation, from, to string)) resilience.Config {
	return resilience.Config{
		RetryMaxAttempts:        cfg.ResilienceRetryMaxAttempts,
		RetryInitialBackoff:     cfg.ResilienceRetryInitialBackoff,
		RetryMaxBackoff:         cfg.ResilienceRetryMaxBackoff,
		RetryMultiplier:         cfg.ResilienceRetryMultiplier,
		BreakerEnabled:          cfg.ResilienceBreakerEnabled,
		BreakerMinRequests:      uint32(max(cfg.ResilienceBreakerMinRequests, 0)),
		BreakerFailureRatio:     cfg.ResilienceBreakerFailureRatio,
		BreakerOpenTimeout:      cfg.ResilienceBreakerOpenTimeout,
		BreakerHalfOpenMaxCalls: uint32(max(cfg.ResilienceBreakerHalfOpenMaxCalls, 0)),
		OnStateChange:           onStateChange,
	}
}
