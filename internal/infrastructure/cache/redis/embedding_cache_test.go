package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type backendFake struct {
	values map[string]string
	getErr error
	setErr error
	sets   int
	ttl    time.Duration
}

func newBackendFake() *backendFake {
	return &backendFake{values: map[string]string{}}
}

func (b *backendFake) Get(_ context.Context, key string) *goredis.StringCmd {
	if b.getErr != nil {
		return goredis.NewStringResult("", b.getErr)
	}
	value, ok := b.values[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(value, nil)
}

func (b *backendFake) Set(_ context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd {
	b.sets++
	b.ttl = expiration
	if b.setErr != nil {
		return goredis.NewStatusResult("", b.setErr)
	}
	b.values[key] = string(value.([]byte))
	return goredis.NewStatusResult("OK", nil)
}

type innerFake struct {
	calls   int
	batches [][]string
	err     error
}

func (f *innerFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batches = append(f.batches, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func (f *innerFake) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func TestEmbedQueryHitsCacheOnSecondCall(t *testing.T) {
	inner := &innerFake{}
	backend := newBackendFake()
	cache := NewEmbeddingCache(inner, backend, "nomic-embed-text", time.Hour, nil)

	first, err := cache.EmbedQuery(context.Background(), "deposit")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	second, err := cache.EmbedQuery(context.Background(), "deposit")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected inner embedder to be called once, got %d", inner.calls)
	}
	if len(second) != len(first) || second[0] != first[0] {
		t.Fatalf("cached vector differs: %v vs %v", first, second)
	}
	if backend.ttl != time.Hour {
		t.Fatalf("expected ttl to be applied, got %s", backend.ttl)
	}
}

func TestCacheKeyDependsOnModel(t *testing.T) {
	a := NewEmbeddingCache(&innerFake{}, newBackendFake(), "model-a", 0, nil)
	b := NewEmbeddingCache(&innerFake{}, newBackendFake(), "model-b", 0, nil)
	if a.key("same text") == b.key("same text") {
		t.Fatalf("expected different keys per model")
	}
}

func TestEmbedBatchesOnlyMisses(t *testing.T) {
	inner := &innerFake{}
	backend := newBackendFake()
	cache := NewEmbeddingCache(inner, backend, "m", time.Minute, nil)

	if _, err := cache.EmbedQuery(context.Background(), "b"); err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	vectors, err := cache.Embed(context.Background(), []string{"aaa", "b", "cc"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(inner.batches) != 2 || len(inner.batches[1]) != 2 {
		t.Fatalf("expected only misses to be embedded, got %v", inner.batches)
	}
	if vectors[0][0] != 3 || vectors[1][0] != 1 || vectors[2][0] != 2 {
		t.Fatalf("unexpected vector order %v", vectors)
	}
}

func TestCacheFailuresFallBackToInner(t *testing.T) {
	inner := &innerFake{}
	backend := newBackendFake()
	backend.getErr = errors.New("connection refused")
	backend.setErr = errors.New("connection refused")
	cache := NewEmbeddingCache(inner, backend, "m", time.Minute, nil)

	if _, err := cache.EmbedQuery(context.Background(), "q"); err != nil {
		t.Fatalf("expected cache failure to be ignored, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected inner embedder call, got %d", inner.calls)
	}
}

func TestInnerErrorIsReturned(t *testing.T) {
	innerErr := errors.New("embedding down")
	cache := NewEmbeddingCache(&innerFake{err: innerErr}, newBackendFake(), "m", time.Minute, nil)

	if _, err := cache.EmbedQuery(context.Background(), "q"); !errors.Is(err, innerErr) {
		t.Fatalf("expected inner error, got %v", err)
	}
}
