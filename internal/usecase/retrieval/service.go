package retrieval

import (
	"context"
	"fmt"

	"github.com/allerpredict/allerpredict/internal/domain/catalog"
)

// Service embeds queries and ranks catalog entries against them.
type Service struct {
	embed Embedder
}

// New creates a retrieval service.
func New(embed Embedder) *Service {
	return &Service{embed: embed}
}

// Retrieve returns the topK catalog entries most similar to query.
func (s *Service) Retrieve(ctx context.Context, cat *catalog.Catalog, query string, topK int) ([]Hit, error) {
	if topK <= 0 || cat.Len() == 0 {
		return []Hit{}, nil
	}

	res, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	hits, err := Rank(res.Embedding, cat.Entries(), topK)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	return hits, nil
}
