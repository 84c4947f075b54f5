package chi

import (
	"context"

	"github.com/allerpredict/allerpredict/internal/domain"
	"github.com/allerpredict/allerpredict/internal/domain/catalog"
	"github.com/allerpredict/allerpredict/internal/usecase/analysis"
	"github.com/allerpredict/allerpredict/internal/usecase/health"
)

// Analyzer runs product analyses and free-form questions.
type Analyzer interface {
	Analyze(ctx context.Context, identifier string) analysis.Analysis
	Ask(ctx context.Context, question string) (analysis.Answer, error)
	ListProducts() []domain.ProductRecord
	Product(identifier string) (domain.ProductRecord, error)
}

// CatalogLoader rebuilds the active catalog.
type CatalogLoader interface {
	Load(ctx context.Context) (*catalog.Catalog, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}
