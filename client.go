package allerpredict

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/allerpredict/allerpredict/internal/app"
	"github.com/allerpredict/allerpredict/internal/domain"
	domcat "github.com/allerpredict/allerpredict/internal/domain/catalog"
	"github.com/allerpredict/allerpredict/internal/usecase/analysis"
	healthuc "github.com/allerpredict/allerpredict/internal/usecase/health"
)

// Internal interfaces, swapped for mocks in tests.
type analysisUseCase interface {
	Analyze(ctx context.Context, identifier string) analysis.Analysis
	Ask(ctx context.Context, question string) (analysis.Answer, error)
	ListProducts() []domain.ProductRecord
	Product(identifier string) (domain.ProductRecord, error)
}

type catalogUseCase interface {
	Load(ctx context.Context) (*domcat.Catalog, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the allerpredict SDK entry point. It is safe for concurrent use.
type Client struct {
	app       *app.App
	analysis  analysisUseCase
	catalog   catalogUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New builds the pipeline and loads the catalog.
// An empty catalog is not an error; Analyze then reports every product as unknown.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}

	cc.cfg.ApplyDefaults()
	if err := cc.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("allerpredict: %w", err)
	}

	logger := cc.zapLogger
	if logger == nil {
		logger = zap.NewNop()
	}

	var appOpts []app.Option
	if cc.embedder != nil {
		appOpts = append(appOpts, app.WithEmbedder(&embedderAdapter{inner: cc.embedder}))
	}
	if cc.generator != nil {
		appOpts = append(appOpts, app.WithGenerator(&generatorAdapter{
			inner:   cc.generator,
			model:   cc.cfg.Generation.Model,
			timeout: time.Duration(cc.cfg.Generation.TimeoutSec) * time.Second,
		}))
	}

	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, &cc.cfg, logger, appOpts...)
	if err != nil {
		return nil, fmt.Errorf("allerpredict: %w", err)
	}
	if _, err := a.LoadCatalog(ctx); err != nil && !errors.Is(err, app.ErrNoProducts) {
		a.Close()
		return nil, fmt.Errorf("allerpredict: %w", err)
	}

	return &Client{
		app:       a,
		analysis:  a.Analysis,
		catalog:   a.Catalog,
		healthSvc: a.Health,
		obs:       obs,
	}, nil
}

// Close releases the cache connection, if any.
func (c *Client) Close() {
	if c.app != nil {
		c.app.Close()
	}
}

// Analyze looks up a product by name or id and analyzes it.
// Failures are reported inside the result, never as an error.
func (c *Client) Analyze(ctx context.Context, identifier string) Analysis {
	start := time.Now()
	a := c.analysis.Analyze(ctx, identifier)
	c.obs.observe("analyze", start, resultError(a.Result))
	return toAnalysis(a)
}

// Ask answers a free-form question grounded on the closest catalog products.
func (c *Client) Ask(ctx context.Context, question string) (_ Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ask", start, err) }()

	ans, err := c.analysis.Ask(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}
	return Answer{Text: ans.Text, Context: ans.Context}, nil
}

// Products returns the catalog products in catalog order.
func (c *Client) Products() []Product {
	return toProducts(c.analysis.ListProducts())
}

// Product looks up a single product by name or id.
func (c *Client) Product(identifier string) (Product, error) {
	p, err := c.analysis.Product(identifier)
	if err != nil {
		return Product{}, fmt.Errorf("product %q: %w", identifier, err)
	}
	return toProduct(&p), nil
}

// Reload re-reads and re-embeds the catalog file.
// On failure the previous catalog stays installed.
func (c *Client) Reload(ctx context.Context) (_ CatalogInfo, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reload", start, err) }()

	cat, err := c.catalog.Load(ctx)
	if err != nil {
		return CatalogInfo{}, fmt.Errorf("reload: %w", err)
	}
	return CatalogInfo{
		Products:   cat.Len(),
		Dimensions: cat.Dimension(),
		Model:      cat.Model(),
	}, nil
}

// Health checks the catalog, embedding provider, generation backend and cache.
func (c *Client) Health(ctx context.Context) HealthStatus {
	return toHealthStatus(c.healthSvc.Check(ctx))
}

// resultError turns an error result into an error for observation.
func resultError(r domain.AnalysisResult) error {
	if r.RiskLevel != domain.RiskError {
		return nil
	}
	for _, rec := range r.Recommendations {
		if msg, ok := strings.CutPrefix(rec, domain.ErrorRecommendationPrefix); ok {
			return errors.New(msg)
		}
	}
	return domain.ErrGenerationUnavailable
}
