package allerpredict

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/allerpredict/allerpredict/internal/domain"
	domcat "github.com/allerpredict/allerpredict/internal/domain/catalog"
	"github.com/allerpredict/allerpredict/internal/usecase/analysis"
	healthuc "github.com/allerpredict/allerpredict/internal/usecase/health"
)

const catalogJSON = `[
  {"id": 1, "name": "Peanut Butter Cookies", "category": "snacks", "brand": "Acme",
   "description": "Crunchy cookies", "ingredients": "flour, peanuts, sugar",
   "allergen_warnings": "peanuts, gluten", "ethical_notes": "Palm-oil free",
   "recommendations": "Rice Crackers"},
  {"id": 2, "name": "Rice Crackers", "category": "snacks", "brand": "Acme",
   "description": "Plain rice crackers", "ingredients": ["rice", "salt"],
   "allergen_warnings": [], "ethical_notes": "", "recommendations": []},
  {"id": 3, "name": "Oat Milk", "category": "drinks", "brand": "Oaty",
   "description": "Oat drink", "ingredients": ["oats", "water"],
   "allergen_warnings": ["gluten"], "ethical_notes": "", "recommendations": []}
]`

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func cannedGenerator(out string) *mockGenerator {
	return &mockGenerator{fn: func(context.Context, string) (string, error) { return out, nil }}
}

func newTestClient(t *testing.T, gen Generator, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithCatalogPath(writeCatalog(t, catalogJSON)),
		WithEmbedder(keywordEmbedder{}),
		WithGenerator(gen),
	}
	c, err := New(context.Background(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNew_InvalidOption(t *testing.T) {
	_, err := New(context.Background(), WithTopK(-1))
	if err == nil || !strings.Contains(err.Error(), "top_k") {
		t.Fatalf("expected top_k validation error, got %v", err)
	}
}

func TestNew_MissingCatalog(t *testing.T) {
	_, err := New(context.Background(),
		WithCatalogPath(filepath.Join(t.TempDir(), "missing.json")),
		WithEmbedder(keywordEmbedder{}),
		WithGenerator(cannedGenerator("{}")),
	)
	if !errors.Is(err, ErrCatalogLoad) {
		t.Fatalf("expected ErrCatalogLoad, got %v", err)
	}
}

func TestNew_EmptyCatalogIsUsable(t *testing.T) {
	c, err := New(context.Background(),
		WithCatalogPath(writeCatalog(t, "[]")),
		WithEmbedder(keywordEmbedder{}),
		WithGenerator(cannedGenerator("{}")),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	a := c.Analyze(context.Background(), "anything")
	if a.Found() || a.Result.RiskLevel != RiskUnknown {
		t.Errorf("expected unknown result, got %+v", a.Result)
	}
}

func TestClient_Analyze(t *testing.T) {
	c := newTestClient(t, cannedGenerator(
		`{"detected_allergens": ["peanuts"], "risk_level": "high", "ethical_score": 80, "recommendations": ["Something"]}`,
	))

	a := c.Analyze(context.Background(), "peanut butter")
	if !a.Found() || a.Product.Name != "Peanut Butter Cookies" {
		t.Fatalf("expected product match, got %+v", a.Product)
	}
	if a.Result.RiskLevel != RiskHigh {
		t.Errorf("risk = %q, want high", a.Result.RiskLevel)
	}
	if a.Result.EthicalScore != 80 {
		t.Errorf("score = %d, want 80", a.Result.EthicalScore)
	}
	if len(a.Result.Recommendations) != 1 || a.Result.Recommendations[0] != "Rice Crackers" {
		t.Errorf("recommendations = %v, want catalog value", a.Result.Recommendations)
	}
	if len(a.Alternatives) != 1 || a.Alternatives[0].Name != "Rice Crackers" {
		t.Errorf("alternatives = %+v", a.Alternatives)
	}
	if !strings.Contains(a.Report, "Peanut Butter Cookies") {
		t.Errorf("report missing product name:\n%s", a.Report)
	}
}

func TestClient_Analyze_GeneratorFailure(t *testing.T) {
	c := newTestClient(t, &mockGenerator{fn: func(context.Context, string) (string, error) {
		return "", errors.New("model crashed")
	}})

	a := c.Analyze(context.Background(), "1")
	if a.Result.RiskLevel != RiskError {
		t.Fatalf("risk = %q, want error", a.Result.RiskLevel)
	}
	if len(a.Result.Recommendations) == 0 || !strings.HasPrefix(a.Result.Recommendations[0], "ERROR: ") {
		t.Errorf("expected diagnostic recommendation, got %v", a.Result.Recommendations)
	}
}

func TestClient_ProductsAndReload(t *testing.T) {
	c := newTestClient(t, cannedGenerator("{}"))

	if got := len(c.Products()); got != 3 {
		t.Fatalf("products = %d, want 3", got)
	}
	p, err := c.Product("3")
	if err != nil || p.Name != "Oat Milk" {
		t.Fatalf("Product(3) = %+v, %v", p, err)
	}
	if _, err := c.Product("caviar"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	info, err := c.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if info.Products != 3 || info.Dimensions != 3 {
		t.Errorf("info = %+v", info)
	}
}

func TestClient_AskAndHealth(t *testing.T) {
	c := newTestClient(t, cannedGenerator("  Rice Crackers are peanut free.  "))

	ans, err := c.Ask(context.Background(), "Which rice snack is safe?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.Text != "Rice Crackers are peanut free." {
		t.Errorf("answer = %q", ans.Text)
	}
	if len(ans.Context) == 0 || ans.Context[0] != "Rice Crackers" {
		t.Errorf("context = %v", ans.Context)
	}

	h := c.Health(context.Background())
	if h.Status != "ok" || h.Products != 3 {
		t.Errorf("health = %+v", h)
	}
}

func TestClient_Ask_WrapsError(t *testing.T) {
	c := &Client{analysis: &mockAnalysisUC{
		askFn: func(context.Context, string) (analysis.Answer, error) {
			return analysis.Answer{}, domain.ErrCatalogEmpty
		},
	}}
	_, err := c.Ask(context.Background(), "q")
	if !errors.Is(err, ErrCatalogEmpty) {
		t.Fatalf("expected ErrCatalogEmpty, got %v", err)
	}
}

func TestClient_Reload_Error(t *testing.T) {
	c := &Client{catalog: &mockCatalogUC{
		loadFn: func(context.Context) (*domcat.Catalog, error) {
			return nil, domain.ErrCatalogLoad
		},
	}}
	if _, err := c.Reload(context.Background()); !errors.Is(err, ErrCatalogLoad) {
		t.Fatalf("expected ErrCatalogLoad, got %v", err)
	}
}

func TestClient_Health_MapsReport(t *testing.T) {
	c := &Client{healthSvc: &mockHealthUC{report: healthuc.Report{
		Status:   healthuc.Degraded,
		Checks:   map[string]healthuc.CheckResult{healthuc.ComponentGeneration: healthuc.CheckError},
		Products: 5,
	}}}
	h := c.Health(context.Background())
	if h.Status != "degraded" || h.Checks["generation"] != "error" || h.Products != 5 {
		t.Errorf("unexpected health: %+v", h)
	}
}

func TestClient_ObservesOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(slog.New(slog.NewTextHandler(os.Stderr, nil)), reg)
	if err != nil {
		t.Fatal(err)
	}
	c := &Client{obs: obs, analysis: &mockAnalysisUC{
		analyzeFn: func(context.Context, string) analysis.Analysis {
			return analysis.Analysis{Result: domain.ErrorResult(domain.NewGenerationError(domain.FailureTimeout, nil))}
		},
		askFn: func(context.Context, string) (analysis.Answer, error) {
			return analysis.Answer{Text: "ok"}, nil
		},
	}}

	c.Analyze(context.Background(), "x")
	if _, err := c.Ask(context.Background(), "q"); err != nil {
		t.Fatal(err)
	}

	if v := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("analyze", "error")); v != 1 {
		t.Errorf("analyze errors = %v, want 1", v)
	}
	if v := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("ask", "ok")); v != 1 {
		t.Errorf("ask ok = %v, want 1", v)
	}
}

func TestNewSDKMetrics_ReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newSDKMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := newSDKMetrics(reg)
	if err != nil {
		t.Fatalf("second registration: %v", err)
	}
	if first.operations != second.operations {
		t.Error("expected the existing collector to be reused")
	}
}

func TestEmbedderAdapter_Error(t *testing.T) {
	adapter := &embedderAdapter{inner: &mockEmbedder{
		fn: func(context.Context, string) (EmbeddingResult, error) {
			return EmbeddingResult{}, errors.New("provider down")
		},
	}}
	_, err := adapter.Embed(context.Background(), "hello")
	if !errors.Is(err, ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestGeneratorAdapter_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
		want domain.GenerationFailureKind
	}{
		{"deadline", "", context.DeadlineExceeded, domain.FailureTimeout},
		{"canceled", "", context.Canceled, domain.FailureCanceled},
		{"other", "", errors.New("boom"), domain.FailureProvider},
		{"passthrough", "", domain.NewGenerationError(domain.FailureNotFound, nil), domain.FailureNotFound},
		{"blank output", "  \n", nil, domain.FailureEmptyOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &generatorAdapter{inner: &mockGenerator{fn: func(context.Context, string) (string, error) {
				return tt.out, tt.err
			}}}
			_, err := a.Generate(context.Background(), "p")
			kind, ok := domain.GenerationFailure(err)
			if !ok || kind != tt.want {
				t.Errorf("kind = %q (%v), want %q", kind, ok, tt.want)
			}
			if !errors.Is(err, ErrGenerationUnavailable) {
				t.Errorf("expected ErrGenerationUnavailable, got %v", err)
			}
		})
	}
}

func TestGeneratorAdapter_AppliesTimeout(t *testing.T) {
	a := &generatorAdapter{
		timeout: 10 * time.Millisecond,
		inner: &mockGenerator{fn: func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}},
	}
	_, err := a.Generate(context.Background(), "p")
	if kind, _ := domain.GenerationFailure(err); kind != domain.FailureTimeout {
		t.Fatalf("kind = %q, want timeout", kind)
	}
}

func TestOptions(t *testing.T) {
	cc := &clientConfig{}
	for _, o := range []Option{
		WithExactMatch(),
		WithOpenAIGenerator("http://llm", "gpt", "key"),
		WithReportTemplate(),
		WithGenerationTimeout(1500 * time.Millisecond),
		WithRetries(2, 250*time.Millisecond),
		WithRedis("localhost:6379", "pw"),
		WithCacheTTL(48 * time.Hour),
	} {
		o.apply(cc)
	}
	g := cc.cfg.Generation
	if cc.cfg.Catalog.MatchMode != "exact" || g.Backend != "openai" || g.Template != "report" {
		t.Errorf("unexpected config: %+v", cc.cfg)
	}
	if g.TimeoutSec != 2 || g.MaxRetries != 2 || g.RetryBackoffMS != 250 {
		t.Errorf("unexpected generation config: %+v", g)
	}
	if !cc.cfg.Cache.Enabled || cc.cfg.Cache.TTLHours != 48 || cc.cfg.Cache.Addrs[0] != "localhost:6379" {
		t.Errorf("unexpected cache config: %+v", cc.cfg.Cache)
	}
}
