// Package analysis orchestrates lookup, retrieval, prompting, generation and normalization.
package analysis

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/allerpredict/allerpredict/internal/domain"
	"github.com/allerpredict/allerpredict/internal/domain/catalog"
	"github.com/allerpredict/allerpredict/internal/logger"
	"github.com/allerpredict/allerpredict/internal/metrics"
	"github.com/allerpredict/allerpredict/internal/usecase/prompt"
	"github.com/allerpredict/allerpredict/internal/usecase/recommend"
)

// Config holds orchestrator settings.
type Config struct {
	TopK            int
	MaxAlternatives int
	MatchMode       catalog.MatchMode
	Granularity     domain.Granularity
}

// Analysis is the outcome of one analyze request.
// Result is the machine-readable contract; the other fields support display.
type Analysis struct {
	Result       domain.AnalysisResult
	Product      *domain.ProductRecord
	Alternatives []domain.ProductRecord
	Context      []string
	Narrative    string
}

// Found reports whether the identifier matched a catalog product.
func (a Analysis) Found() bool { return a.Product != nil }

// Service runs the analysis pipeline. It is safe for concurrent use.
type Service struct {
	catalog    CatalogProvider
	retriever  Retriever
	prompts    *prompt.Builder
	generator  Generator
	normalizer Normalizer
	cfg        Config
}

// New creates the orchestrator.
func New(
	cat CatalogProvider,
	retriever Retriever,
	prompts *prompt.Builder,
	generator Generator,
	normalizer Normalizer,
	cfg Config,
) *Service {
	if !cfg.MatchMode.Valid() {
		cfg.MatchMode = catalog.MatchSubstring
	}
	if !cfg.Granularity.Valid() {
		cfg.Granularity = domain.GranularityDocument
	}
	return &Service{
		catalog:    cat,
		retriever:  retriever,
		prompts:    prompts,
		generator:  generator,
		normalizer: normalizer,
		cfg:        cfg,
	}
}

// Analyze runs the pipeline for a product name or numeric id.
// Every path ends in a schema-valid result; per-request failures never surface as errors.
func (s *Service) Analyze(ctx context.Context, identifier string) Analysis {
	log := logger.FromContext(ctx).With(zap.String("product", identifier))
	cat := s.catalog.Current()

	product, ok := cat.Lookup(identifier, s.cfg.MatchMode)
	if !ok {
		log.Debug("Product not in catalog")
		return s.finish(Analysis{
			Result:       domain.UnknownResult(),
			Alternatives: []domain.ProductRecord{},
			Context:      []string{},
		})
	}

	out := Analysis{
		Product:      &product,
		Alternatives: recommend.Alternatives(&product, cat, s.cfg.MaxAlternatives),
	}

	records := s.retrieve(ctx, log, cat, &product)
	out.Context = recommend.Names(records)

	p := s.prompts.Analysis(prompt.Context(records, s.cfg.Granularity), product.Name)

	start := time.Now()
	raw, err := s.generator.Generate(ctx, p)
	if err != nil {
		kind, _ := domain.GenerationFailure(err)
		log.Warn("Generation failed",
			zap.String("kind", string(kind)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		out.Result = s.normalizer.Failure(err).Result
		return s.finish(out)
	}

	norm := s.normalizer.Normalize(raw, &product)
	if norm.Malformed {
		log.Warn("Model output was not a JSON object, using defaults",
			zap.Error(domain.ErrMalformedResponse),
		)
	}
	out.Result = norm.Result
	out.Narrative = norm.Narrative

	log.Debug("Analysis completed",
		zap.String("risk_level", string(out.Result.RiskLevel)),
		zap.Int("ethical_score", out.Result.EthicalScore),
		zap.Int("repairs", len(norm.Repairs)),
		zap.Duration("generation", time.Since(start)),
	)
	return s.finish(out)
}

// ListProducts returns the catalog products in catalog order.
func (s *Service) ListProducts() []domain.ProductRecord {
	return s.catalog.Current().Products()
}

// Product looks up a single product by name or id.
func (s *Service) Product(identifier string) (domain.ProductRecord, error) {
	p, ok := s.catalog.Current().Lookup(identifier, s.cfg.MatchMode)
	if !ok {
		return domain.ProductRecord{}, domain.ErrNotFound
	}
	return p, nil
}

// retrieve returns the context records for product, queried by the product's own text.
// The product is always part of the context; retrieval failures leave it alone.
func (s *Service) retrieve(
	ctx context.Context, log *zap.Logger, cat *catalog.Catalog, product *domain.ProductRecord,
) []domain.ProductRecord {
	query := product.Text(s.cfg.Granularity)
	if strings.TrimSpace(query) == "" {
		query = product.Name
	}

	hits, err := s.retriever.Retrieve(ctx, cat, query, s.cfg.TopK)
	if err != nil {
		log.Warn("Retrieval failed, using the product record as context", zap.Error(err))
		return []domain.ProductRecord{*product}
	}
	if len(hits) == 0 {
		return []domain.ProductRecord{*product}
	}

	records := make([]domain.ProductRecord, len(hits))
	for i, h := range hits {
		records[i] = h.Record
	}
	records = pinProduct(records, product, s.cfg.TopK)
	log.Debug("Context retrieved", zap.Strings("context", recommend.Names(records)))
	return records
}

// pinProduct puts product at the front of records unless it is already there,
// keeping at most topK records.
func pinProduct(records []domain.ProductRecord, product *domain.ProductRecord, topK int) []domain.ProductRecord {
	for i := range records {
		if records[i].SameName(product.Name) {
			return records
		}
	}
	out := make([]domain.ProductRecord, 0, len(records)+1)
	out = append(out, *product)
	out = append(out, records...)
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

func (s *Service) finish(a Analysis) Analysis {
	a.Result = a.Result.Sanitized()
	metrics.AnalysisResultsTotal.WithLabelValues(string(a.Result.RiskLevel)).Inc()
	return a
}
