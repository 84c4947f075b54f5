package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/allerpredict/allerpredict/internal/domain"
	"github.com/allerpredict/allerpredict/internal/domain/catalog"
)

type mockEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Entry{entry("x", 1, 0), entry("y", 0, 1)}, "m")
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

func TestRetrieve(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{0, 1}}
	hits, err := New(emb).Retrieve(context.Background(), testCatalog(t), "query", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].Record.Name != "y" {
		t.Errorf("unexpected hits: %+v", hits)
	}
}

func TestRetrieve_ZeroTopKSkipsEmbedding(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{0, 1}}
	hits, err := New(emb).Retrieve(context.Background(), testCatalog(t), "query", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 || emb.called {
		t.Errorf("expected no hits and no embedding call, got %d hits, called=%v", len(hits), emb.called)
	}
}

func TestRetrieve_EmbedError(t *testing.T) {
	embErr := errors.New("provider down")
	_, err := New(&mockEmbedder{err: embErr}).Retrieve(context.Background(), testCatalog(t), "q", 2)
	if !errors.Is(err, embErr) {
		t.Fatalf("expected wrapped embed error, got %v", err)
	}
}
