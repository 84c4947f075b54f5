package retrieval

import (
	"context"

	"github.com/allerpredict/allerpredict/internal/domain"
)

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
