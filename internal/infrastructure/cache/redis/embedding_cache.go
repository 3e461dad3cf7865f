package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kirillkom/beready-legal-assistant/internal/core/ports"
)

const keyPrefix = "beready:embedding:"

type backend interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
}

// NewClient connects to Redis and pings it once.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return client, nil
}

// EmbeddingCache wraps an embedder and memoises vectors by model and text.
// Cache failures are logged and the inner embedder is used.
type EmbeddingCache struct {
	inner  ports.Embedder
	cache  backend
	model  string
	ttl    time.Duration
	logger *slog.Logger
}

func NewEmbeddingCache(inner ports.Embedder, cache backend, model string, ttl time.Duration, logger *slog.Logger) *EmbeddingCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddingCache{
		inner:  inner,
		cache:  cache,
		model:  model,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *EmbeddingCache) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if vector, ok := c.lookup(ctx, text); ok {
		return vector, nil
	}
	vector, err := c.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(ctx, text, vector)
	return vector, nil
}

func (c *EmbeddingCache) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	missing := make([]string, 0, len(texts))
	missingIdx := make([]int, 0, len(texts))
	for i, text := range texts {
		if vector, ok := c.lookup(ctx, text); ok {
			out[i] = vector
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vectors, err := c.inner.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("embedding cache: expected %d vectors, got %d", len(missing), len(vectors))
	}
	for j, vector := range vectors {
		out[missingIdx[j]] = vector
		c.store(ctx, missing[j], vector)
	}
	return out, nil
}

func (c *EmbeddingCache) key(text string) string {
	sum := sha256.Sum256([]byte(c.model + "\x00" + text))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func (c *EmbeddingCache) lookup(ctx context.Context, text string) ([]float32, bool) {
	raw, err := c.cache.Get(ctx, c.key(text)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.logger.Warn("embedding_cache_get_failed", "error", err)
		}
		return nil, false
	}
	var vector []float32
	if err := json.Unmarshal(raw, &vector); err != nil || len(vector) == 0 {
		return nil, false
	}
	return vector, true
}

func (c *EmbeddingCache) store(ctx context.Context, text string, vector []float32) {
	payload, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, c.key(text), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("embedding_cache_set_failed", "error", err)
	}
}
