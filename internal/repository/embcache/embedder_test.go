package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/allerpredict/allerpredict/internal/domain"
)

func TestEmbed_CacheMissStoresWithTTL(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)

	result, err := ce.Embed(context.Background(), "Nut Bar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}

	key := ce.cacheKey("Nut Bar")
	if _, ok := ms.data[key]; !ok {
		t.Fatal("expected vector to be cached")
	}
	if ms.ttls[key] != 24*time.Hour {
		t.Errorf("expected 24h TTL, got %s", ms.ttls[key])
	}
	if !strings.HasPrefix(key, DefaultKeyPrefix) {
		t.Errorf("unexpected key %q", key)
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.data[ce.cacheKey("Nut Bar")] = vectorToCacheBytes([]float32{0.4, 0.5, 0.6})

	result, err := ce.Embed(context.Background(), "Nut Bar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
}

func TestEmbed_KeyDependsOnModel(t *testing.T) {
	inner := &mockEmbedder{}
	a := New(inner, newMemStore(), Options{Model: "all-minilm"}, nil, zap.NewNop())
	b := New(inner, newMemStore(), Options{Model: "nomic-embed-text"}, nil, zap.NewNop())

	if a.cacheKey("Nut Bar") == b.cacheKey("Nut Bar") {
		t.Fatal("cache keys must differ across models")
	}
	if a.cacheKey("Nut Bar") != a.cacheKey("Nut Bar") {
		t.Fatal("cache keys must be deterministic")
	}
}

func TestEmbed_StoreErrorsDegradeToInner(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.7}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getErr = errors.New("connection reset")
	ms.setErr = errors.New("connection reset")

	result, err := ce.Embed(context.Background(), "Nut Bar")
	if err != nil {
		t.Fatalf("store failures must not fail embedding: %v", err)
	}
	if result.Embedding[0] != 0.7 {
		t.Errorf("unexpected vector %v", result.Embedding)
	}
}

func TestEmbed_CorruptEntryIsMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.7}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.data[ce.cacheKey("Nut Bar")] = []byte{1, 2, 3}

	result, err := ce.Embed(context.Background(), "Nut Bar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embedding[0] != 0.7 {
		t.Errorf("expected inner vector, got %v", result.Embedding)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	ce, _ := newTestCachedEmbedder(t, inner)

	if _, err := ce.Embed(context.Background(), "Nut Bar"); err == nil {
		t.Fatal("expected error from inner embedder")
	}
}

func TestEmbed_CountsHitsAndMisses(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_emb_cache_total"}, []string{"result"})
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	ce := New(inner, newMemStore(), Options{Model: "m"}, counter, zap.NewNop())

	_, _ = ce.Embed(context.Background(), "x")
	_, _ = ce.Embed(context.Background(), "x")

	if v := testutil.ToFloat64(counter.WithLabelValues("miss")); v != 1 {
		t.Errorf("misses = %f, want 1", v)
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("hit")); v != 1 {
		t.Errorf("hits = %f, want 1", v)
	}
}

func TestBatchEmbed_MixedHitsMisses(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.9},
		PromptTokens: 3,
		TotalTokens:  3,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.data[ce.cacheKey("b")] = vectorToCacheBytes([]float32{0.2})

	res, err := ce.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
	if res.Embeddings[0][0] != 0.9 || res.Embeddings[1][0] != 0.2 || res.Embeddings[2][0] != 0.9 {
		t.Errorf("unexpected embeddings %v", res.Embeddings)
	}
	if inner.batchCalls != 1 || strings.Join(inner.batchInputs[0], ",") != "a,c" {
		t.Errorf("expected one batch with misses only, got %v", inner.batchInputs)
	}
	if res.TotalTokens != 6 {
		t.Errorf("expected tokens for misses only, got %d", res.TotalTokens)
	}
	if len(ms.data) != 3 {
		t.Errorf("expected misses to be cached, store has %d entries", len(ms.data))
	}
}

func TestBatchEmbed_AllHits(t *testing.T) {
	inner := &mockEmbedder{}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.data[ce.cacheKey("a")] = vectorToCacheBytes([]float32{0.1})
	ms.data[ce.cacheKey("b")] = vectorToCacheBytes([]float32{0.2})

	res, err := ce.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.batchCalls != 0 {
		t.Errorf("expected no inner calls, got %d", inner.batchCalls)
	}
	if res.Embeddings[1][0] != 0.2 {
		t.Errorf("unexpected embeddings %v", res.Embeddings)
	}
}

func TestBatchEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{batchErr: errors.New("provider down")}
	ce, _ := newTestCachedEmbedder(t, inner)

	if _, err := ce.BatchEmbed(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestBatchEmbed_CountMismatch(t *testing.T) {
	inner := &mockEmbedder{batchResult: domain.BatchEmbeddingResult{Embeddings: [][]float32{{0.1}}}}
	ce, _ := newTestCachedEmbedder(t, inner)

	_, err := ce.BatchEmbed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestBatchEmbed_Empty(t *testing.T) {
	ce, _ := newTestCachedEmbedder(t, &mockEmbedder{})

	res, err := ce.BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embeddings != nil {
		t.Errorf("expected nil embeddings, got %v", res.Embeddings)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0, -1.5, 3.25}
	out, err := bytesToVector(vectorToCacheBytes(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %f, want %f", i, out[i], in[i])
		}
	}
}
