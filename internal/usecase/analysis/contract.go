package analysis

import (
	"context"

	"github.com/allerpredict/allerpredict/internal/domain"
	"github.com/allerpredict/allerpredict/internal/domain/catalog"
	"github.com/allerpredict/allerpredict/internal/usecase/normalize"
	"github.com/allerpredict/allerpredict/internal/usecase/retrieval"
)

// CatalogProvider returns the catalog snapshot for one request.
type CatalogProvider interface {
	Current() *catalog.Catalog
}

// Retriever ranks catalog entries against a query.
type Retriever interface {
	Retrieve(ctx context.Context, cat *catalog.Catalog, query string, topK int) ([]retrieval.Hit, error)
}

// Generator produces raw model text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Normalizer turns raw model text into a schema-valid result.
type Normalizer interface {
	Normalize(raw string, product *domain.ProductRecord) normalize.Outcome
	Failure(err error) normalize.Outcome
}
