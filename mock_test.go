package allerpredict

import (
	"context"
	"strings"

	"github.com/allerpredict/allerpredict/internal/domain"
	domcat "github.com/allerpredict/allerpredict/internal/domain/catalog"
	"github.com/allerpredict/allerpredict/internal/usecase/analysis"
	healthuc "github.com/allerpredict/allerpredict/internal/usecase/health"
)

// --- public Embedder / Generator fakes ---

// keywordEmbedder maps a few keywords to fixed axes.
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	t := strings.ToLower(text)
	v := []float32{0.1, 0.1, 0.1}
	if strings.Contains(t, "peanut") {
		v[0] = 1
	}
	if strings.Contains(t, "oat") {
		v[1] = 1
	}
	if strings.Contains(t, "rice") {
		v[2] = 1
	}
	return EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
}

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockGenerator struct {
	fn func(ctx context.Context, prompt string) (string, error)
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return m.fn(ctx, prompt)
}

// --- analysisUseCase mock ---

type mockAnalysisUC struct {
	analyzeFn  func(ctx context.Context, identifier string) analysis.Analysis
	askFn      func(ctx context.Context, question string) (analysis.Answer, error)
	productsFn func() []domain.ProductRecord
	productFn  func(identifier string) (domain.ProductRecord, error)
}

func (m *mockAnalysisUC) Analyze(ctx context.Context, identifier string) analysis.Analysis {
	return m.analyzeFn(ctx, identifier)
}

func (m *mockAnalysisUC) Ask(ctx context.Context, question string) (analysis.Answer, error) {
	return m.askFn(ctx, question)
}

func (m *mockAnalysisUC) ListProducts() []domain.ProductRecord {
	return m.productsFn()
}

func (m *mockAnalysisUC) Product(identifier string) (domain.ProductRecord, error) {
	return m.productFn(identifier)
}

// --- catalogUseCase mock ---

type mockCatalogUC struct {
	loadFn func(ctx context.Context) (*domcat.Catalog, error)
}

func (m *mockCatalogUC) Load(ctx context.Context) (*domcat.Catalog, error) {
	return m.loadFn(ctx)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report {
	return m.report
}
