package catalog

import (
	"context"

	"github.com/allerpredict/allerpredict/internal/domain"
	domcat "github.com/allerpredict/allerpredict/internal/domain/catalog"
)

// Source provides raw catalog entries, vectors optional.
type Source interface {
	Read() ([]domcat.Entry, error)
}

// Embedder vectorizes catalog documents.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
